package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect [user-id] [provider]",
	Short: "Disconnect a provider and remove its data",
	Long: `Removes all indexed vectors and sync ledger entries for the
provider, then deletes the stored OAuth account. A later re-connect
starts from empty state.`,
	Args: cobra.ExactArgs(2),
	RunE: runDisconnect,
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}

func runDisconnect(cmd *cobra.Command, args []string) error {
	if syncEngine == nil || accountStore == nil {
		return errors.New("disconnect services not configured")
	}

	userID := args[0]
	provider := domain.Provider(args[1])
	if !provider.Valid() {
		return fmt.Errorf("unknown provider %q", args[1])
	}
	ctx := cmd.Context()

	// Synced data goes first so the account row never outlives it in
	// the other direction: a crash between the two steps leaves an
	// account with no data, which a re-sync repairs.
	if err := syncEngine.DeleteUserData(ctx, userID, provider); err != nil {
		return fmt.Errorf("failed to delete synced data: %w", err)
	}
	if err := accountStore.Delete(ctx, userID, provider); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	cmd.Printf("Disconnected %s for %s.\n", provider, userID)
	return nil
}
