package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

var (
	connectAccessToken  string
	connectRefreshToken string
	connectExpiresIn    int
	connectScopes       string
)

var connectCmd = &cobra.Command{
	Use:   "connect [user-id] [provider]",
	Short: "Store a provider's OAuth tokens for a user",
	Long: `Stores the access and refresh tokens obtained from the provider's
OAuth flow. The authorization-code exchange itself happens outside this
tool; connect consumes its result. For indexed providers a background
sync is queued immediately so the account is searchable without a
manual sync.`,
	Args: cobra.ExactArgs(2),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectAccessToken, "access-token", "", "OAuth access token (required)")
	connectCmd.Flags().StringVar(&connectRefreshToken, "refresh-token", "", "OAuth refresh token")
	connectCmd.Flags().IntVar(&connectExpiresIn, "expires-in", 0, "Access token lifetime in seconds (0 = does not expire)")
	connectCmd.Flags().StringVar(&connectScopes, "scopes", "", "Space-separated granted scopes")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	if accountStore == nil {
		return errors.New("account store not configured")
	}
	if connectAccessToken == "" {
		return errors.New("--access-token is required")
	}

	userID := args[0]
	provider := domain.Provider(args[1])
	if !provider.Valid() {
		return fmt.Errorf("unknown provider %q", args[1])
	}

	now := time.Now().UTC()
	account := domain.OAuthAccount{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  connectAccessToken,
		RefreshToken: connectRefreshToken,
		Scopes:       strings.Fields(connectScopes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if connectExpiresIn > 0 {
		account.TokenExpiresAt = now.Add(time.Duration(connectExpiresIn) * time.Second)
	}

	if err := accountStore.Save(cmd.Context(), account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	cmd.Printf("Connected %s for %s.\n", provider, userID)

	if provider.Collection() != "" && syncQueue != nil {
		if syncQueue.Submit(userID, provider, false) {
			cmd.Println("Initial sync queued.")
		} else {
			cmd.Println("Sync queue is busy; run `concierge sync` manually.")
		}
	}
	return nil
}
