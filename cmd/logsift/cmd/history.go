package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"logsift/internal/report"
	"logsift/internal/storage"
)

var (
	historyDB    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect saved analysis runs",
	Long: `List and re-render analysis runs saved with 'analyze --save'.

Examples:
  # List recent runs
  logsift history list

  # Re-render a saved run (id prefixes are accepted)
  logsift history show 3f2a`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Render a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.PersistentFlags().StringVar(&historyDB, "history-db", "", "history database path (default from config)")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to list")
}

func openHistory() (*storage.RunStore, error) {
	path := historyDB
	if path == "" && cfg != nil {
		path = cfg.HistoryDB
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no history database at %q (run 'analyze --save' first)", path)
	}

	store := storage.NewRunStore(path)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No saved runs.")
		return nil
	}

	if GetOutput() == "json" {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tCREATED\tSOURCE\tENTRIES\tMALFORMED\tERRORS\tFLAGGED\n")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID[:8],
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.Source,
			run.TotalEntries,
			run.Malformed,
			run.ErrorCount,
			run.FlaggedIPs)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, stats, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if GetOutput() == "json" {
		return report.NewExporter(report.ExportJSON, os.Stdout).Export(stats)
	}

	sourceName := fmt.Sprintf("%s (saved %s)", run.Source,
		run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	report.NewRenderer(os.Stdout, ColorEnabled()).Render(stats, sourceName)
	return nil
}
