package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fathomvfx/showsync/internal/domain"
	"github.com/fathomvfx/showsync/internal/ledger"
	"github.com/fathomvfx/showsync/internal/paths"
)

var runsAdmCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded project-copy runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list [limit]",
	Short: "List recent copy runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run>",
	Short: "Show one copy run and its per-entry outcomes",
	Long: `Show prints a copy run selected by friendly id (R-00042) or UUID,
followed by every entry the run touched.

Use --match to filter entries by a glob over their structure path,
e.g. --match 'seq010/**' or --match '*/sh0010'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsShow,
}

var runsShowMatch string

func init() {
	rootAdmCmd.AddCommand(runsAdmCmd)
	runsAdmCmd.AddCommand(runsListCmd)
	runsAdmCmd.AddCommand(runsShowCmd)

	runsShowCmd.Flags().StringVar(&runsShowMatch, "match", "", "Only show entries whose path matches this glob")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	limit := 20
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}

	database, err := openMigratedLedger(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := ledger.New(database).Runs.List(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No copy runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSOURCE\tTARGET\tSTARTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Status, run.SourceProjectID, run.TargetName,
			run.StartedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	database, err := openMigratedLedger(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	run, records, err := ledger.New(database).Runs.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run:     %s (%s)\n", run.ID, run.UUID)
	fmt.Printf("Status:  %s\n", run.Status)
	fmt.Printf("Source:  %s\n", run.SourceProjectID)
	fmt.Printf("Target:  %s (%s)\n", run.TargetName, run.TargetProjectID)
	fmt.Printf("Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		fmt.Printf("Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	if run.Error != nil {
		fmt.Printf("Error:   %s\n", *run.Error)
	}

	if runsShowMatch != "" {
		records = matchRecords(records, runsShowMatch)
	}
	if len(records) == 0 {
		fmt.Println("\nNo entries.")
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tOUTCOME\tKIND\tPATH\tNOTE")
	for _, rec := range records {
		note := ""
		if rec.FallbackKind != nil {
			note = fmt.Sprintf("created as %s", *rec.FallbackKind)
		}
		if rec.Reason != nil {
			if note != "" {
				note += ": "
			}
			note += *rec.Reason
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", rec.Seq, rec.Outcome, rec.Kind, rec.Path, note)
	}
	return w.Flush()
}

func matchRecords(records []domain.CloneRecord, pattern string) []domain.CloneRecord {
	var out []domain.CloneRecord
	for _, rec := range records {
		if paths.MatchGlob(pattern, rec.Path) {
			out = append(out, rec)
		}
	}
	return out
}
