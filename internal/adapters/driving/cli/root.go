// Package cli implements the concierge command-line interface. Commands
// hold no business logic; they validate arguments and delegate to the
// core services injected through SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/concierge-hq/concierge/internal/core/ports/driven"
	"github.com/concierge-hq/concierge/internal/core/ports/driving"
	"github.com/concierge-hq/concierge/internal/core/services"
	"github.com/concierge-hq/concierge/internal/logger"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// Services injected by the composition root before Execute runs.
var (
	syncEngine   driving.SyncEngine
	syncQueue    driving.SyncQueue
	agentService driving.Agent
	accountStore driven.AccountStore
	toolProvider services.ToolsetProvider
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Assistant over your connected workspace",
	Long: `Concierge answers natural-language questions from connected data
sources: a Notion workspace, a Gmail inbox, and HubSpot contacts.
Connected accounts are synced into a vector index; the chat agent
searches it with tools and cites its sources.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
}

// Services bundles everything the commands need.
type Services struct {
	Sync     driving.SyncEngine
	Queue    driving.SyncQueue
	Agent    driving.Agent
	Accounts driven.AccountStore
	Tools    services.ToolsetProvider
}

// SetServices injects the core services. Must be called before Execute.
func SetServices(s Services) {
	syncEngine = s.Sync
	syncQueue = s.Queue
	agentService = s.Agent
	accountStore = s.Accounts
	toolProvider = s.Tools
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
