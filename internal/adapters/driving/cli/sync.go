package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

var syncForce bool

var syncCmd = &cobra.Command{
	Use:   "sync [user-id] [provider]",
	Short: "Synchronise connected sources into the index",
	Long: `Runs connector sync for a user. If a provider (notion, gmail) is
given, only that provider is synchronised. Otherwise every indexed
provider the user has connected is synchronised. Unchanged records are
skipped unless --force is set.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "Reprocess all records regardless of ledger state")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}

	userID := args[0]
	ctx := cmd.Context()

	providers := domain.SyncedProviders
	if len(args) > 1 {
		provider := domain.Provider(args[1])
		if provider.Collection() == "" {
			return fmt.Errorf("provider %q is not an indexed source", args[1])
		}
		providers = []domain.Provider{provider}
	}

	for _, provider := range providers {
		cmd.Printf("Synchronising %s for %s...\n", provider, userID)
		if err := syncEngine.Sync(ctx, userID, provider, syncForce); err != nil {
			return fmt.Errorf("sync failed for %s: %w", provider, err)
		}
		cmd.Printf("%s synchronised.\n", provider)
	}
	return nil
}
