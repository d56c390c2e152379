package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fathomvfx/showsync/internal/config"
	"github.com/fathomvfx/showsync/internal/track"
)

var statusAdmCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, ledger, and server status",
	Long: `Status prints the effective configuration, the ledger's migration
state, and whether the configured tracking servers answer.

Use --no-ping to skip the server connectivity checks.`,
	RunE: runStatusAdm,
}

var statusNoPing bool

func init() {
	rootAdmCmd.AddCommand(statusAdmCmd)

	statusAdmCmd.Flags().BoolVar(&statusNoPing, "no-ping", false, "Skip tracking server connectivity checks")
}

func runStatusAdm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Primary server:  %s\n", serverSummary(cfg.Primary))
	fmt.Printf("  Partner server:  %s\n", serverSummary(cfg.Partner))
	fmt.Printf("  Ledger:          %s\n", cfg.LedgerPath)
	fmt.Printf("  Lock file:       %s\n", cfg.LockPath)
	fmt.Printf("  Task filter:     %s\n", cfg.TaskFilter)
	if urls := cfg.Webhooks(); len(urls) > 0 {
		fmt.Printf("  Webhooks:        %d configured\n", len(urls))
	}

	database, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, pending, err := database.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	fmt.Println()
	if len(pending) == 0 {
		fmt.Printf("Ledger schema up to date (%d migration(s) applied).\n", len(applied))
	} else {
		fmt.Printf("Ledger schema outdated: %d pending migration(s). Run 'showsyncadm migrate' to update.\n", len(pending))
	}

	if statusNoPing {
		return nil
	}

	fmt.Println()
	pingServer("primary", cfg.Primary)
	if cfg.Partner.Configured() {
		pingServer("partner", cfg.Partner)
	}
	return nil
}

func serverSummary(s config.Server) string {
	if !s.Configured() {
		return "not configured"
	}
	return fmt.Sprintf("%s (user %s)", s.URL, s.APIUser)
}

func pingServer(name string, s config.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session := track.NewSession(s.URL, s.APIUser, s.APIKey, nil)
	info, err := session.ServerInformation(ctx)
	if err != nil {
		fmt.Printf("✗ %s server unreachable: %v\n", name, err)
		return
	}
	version, _ := info["version"].(string)
	if version == "" {
		version = "unknown version"
	}
	fmt.Printf("✓ %s server answered (%s)\n", name, version)
}
