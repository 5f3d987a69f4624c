package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

var chatConversation string

var chatCmd = &cobra.Command{
	Use:   "chat [user-id]",
	Short: "Chat with the assistant",
	Long: `Starts an interactive chat session. Answers stream to stdout as
they are generated, with source citations printed after each turn.
Use --conversation to resume an existing conversation; otherwise a
fresh one is started. Type "exit" or press Ctrl-D to leave.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatConversation, "conversation", "c", "", "Conversation ID to resume")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if agentService == nil {
		return errors.New("agent service not configured")
	}

	userID := args[0]
	conversationID := chatConversation
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	cmd.Printf("Conversation %s. Type \"exit\" to leave.\n\n", conversationID)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result, err := agentService.RunTurn(cmd.Context(), userID, conversationID, line, func(token string) {
			cmd.Print(token)
		})
		if err != nil {
			if errors.Is(err, domain.ErrModelUnavailable) || errors.Is(err, domain.ErrRateLimited) {
				cmd.Println("The assistant is unavailable right now, try again shortly.")
				continue
			}
			return err
		}
		cmd.Println()
		printCitations(cmd, result.Citations)
		cmd.Println()
	}
	return scanner.Err()
}

func printCitations(cmd *cobra.Command, citations []domain.Citation) {
	if len(citations) == 0 {
		return
	}
	cmd.Println("\nSources:")
	for _, c := range citations {
		if c.Subtitle != "" {
			cmd.Printf("  [%s] %s (%s)\n", c.Tool, c.Title, c.Subtitle)
			continue
		}
		cmd.Printf("  [%s] %s\n", c.Tool, c.Title)
	}
}
