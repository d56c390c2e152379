package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/fathomvfx/showsync/internal/action"
	"github.com/fathomvfx/showsync/internal/clone"
	"github.com/fathomvfx/showsync/internal/ledger"
	"github.com/fathomvfx/showsync/internal/lock"
	"github.com/fathomvfx/showsync/internal/track"
	"github.com/fathomvfx/showsync/internal/webhooks"
)

var cloneAdmCmd = &cobra.Command{
	Use:   "clone",
	Short: "Copy a project structure from the command line",
	Long: `Clone creates a new project on the primary tracking server and copies
the source project's structure into it, exactly as the copy-project
action in the tracking UI would.

Use --dry-run to print the structure that would be copied without
touching the server. Combined with --diff-against, the dry run prints
a unified diff between an existing project's structure and the
source's instead.`,
	RunE: runCloneAdm,
}

var (
	cloneSource      string
	cloneName        string
	cloneStart       string
	cloneDryRun      bool
	cloneDiffAgainst string
)

func init() {
	rootAdmCmd.AddCommand(cloneAdmCmd)

	cloneAdmCmd.Flags().StringVar(&cloneSource, "source", "", "Source project id (required)")
	cloneAdmCmd.Flags().StringVar(&cloneName, "name", "", "Name of the new project")
	cloneAdmCmd.Flags().StringVar(&cloneStart, "start", "", "Start date of the new project (YYYY-MM-DD, defaults to today)")
	cloneAdmCmd.Flags().BoolVar(&cloneDryRun, "dry-run", false, "Print the structure that would be copied without creating anything")
	cloneAdmCmd.Flags().StringVar(&cloneDiffAgainst, "diff-against", "", "With --dry-run, diff the source structure against this project id")
	cloneAdmCmd.MarkFlagRequired("source")
}

func runCloneAdm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session := track.NewSession(cfg.Primary.URL, cfg.Primary.APIUser, cfg.Primary.APIKey, nil)

	if cloneDryRun {
		return dryRunClone(ctx, track.NewTreeStore(session))
	}
	if cloneName == "" {
		return fmt.Errorf("--name is required unless --dry-run is set")
	}

	database, err := openMigratedLedger(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	copier := action.NewCopyProject(
		session,
		ledger.New(database),
		lock.New(cfg.LockPath),
		webhooks.NewNotifier(cfg.Webhooks(), nil),
		nil,
	)
	result, err := copier.Execute(ctx, action.Params{
		SourceProjectID: cloneSource,
		TargetName:      cloneName,
		StartDate:       cloneStart,
	})
	if err != nil {
		if result != nil && result.Message != "" {
			fmt.Println(result.Message)
		}
		return err
	}
	fmt.Println(result.Message)
	return nil
}

// dryRunClone prints the source structure, or a unified diff against
// an existing project when --diff-against is set.
func dryRunClone(ctx context.Context, tree *track.TreeStore) error {
	sourceLines, err := outlineProject(ctx, tree, cloneSource)
	if err != nil {
		return err
	}

	if cloneDiffAgainst == "" {
		if len(sourceLines) == 0 {
			fmt.Println("Source project has no structure to copy.")
			return nil
		}
		for _, line := range sourceLines {
			fmt.Println(line)
		}
		return nil
	}

	targetLines, err := outlineProject(ctx, tree, cloneDiffAgainst)
	if err != nil {
		return err
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(targetLines, "\n")),
		B:        difflib.SplitLines(strings.Join(sourceLines, "\n")),
		FromFile: cloneDiffAgainst,
		ToFile:   cloneSource,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Errorf("failed to diff structures: %w", err)
	}
	if text == "" {
		fmt.Println("Structures match.")
		return nil
	}
	fmt.Print(text)
	return nil
}

func outlineProject(ctx context.Context, tree *track.TreeStore, projectID string) ([]string, error) {
	root, err := tree.ProjectNode(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return clone.Outline(ctx, tree, root)
}
