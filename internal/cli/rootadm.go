package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fathomvfx/showsync/internal/config"
	"github.com/fathomvfx/showsync/internal/db"
)

var rootAdmCmd = &cobra.Command{
	Use:   "showsyncadm",
	Short: "Administer the showsync ledger and copy runs",
	Long: `showsyncadm administers the showsync daemon's local state.

It manages the SQLite ledger (migrations, status), inspects recorded
project-copy runs, and can run a project copy directly without going
through the tracking server's action menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteAdmin runs the admin CLI.
func ExecuteAdmin() error {
	return rootAdmCmd.Execute()
}

func init() {
	rootAdmCmd.PersistentFlags().String("ledger", "", "Ledger database path override (defaults to config)")
}

// loadConfig loads the configuration and applies the --ledger override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := cmd.Flag("ledger").Value.String(); path != "" {
		cfg.LedgerPath = path
	}
	return cfg, nil
}

// openLedger opens the ledger database for the command. The caller
// closes it.
func openLedger(cmd *cobra.Command) (*db.DB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	database, err := db.Open(cfg.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return database, nil
}

// openMigratedLedger opens the ledger and rejects a schema that still
// has pending migrations.
func openMigratedLedger(cmd *cobra.Command) (*db.DB, error) {
	database, err := openLedger(cmd)
	if err != nil {
		return nil, err
	}
	if err := database.RequiresMigrationError(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
