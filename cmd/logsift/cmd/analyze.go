package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"logsift/internal/analyzer"
	"logsift/internal/parser"
	"logsift/internal/report"
	"logsift/internal/source"
	"logsift/internal/storage"
)

var (
	analyzeTopN      int
	analyzeThreshold int
	analyzeQuiet     bool
	analyzeJSONPath  string
	analyzeExport    string
	analyzeExportTo  string
	analyzeSave      bool
	analyzeDB        string
	analyzeLimit     int
	analyzeWorkers   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file...]",
	Short: "Analyze log files",
	Long: `Analyze one or more log files and print aggregated statistics.

Supports glob patterns. Files are read and parsed in parallel; the
aggregation itself runs over the combined entries in a single pass.

Examples:
  # Analyze a single file
  logsift analyze /var/log/app/access.log

  # Analyze all logs, top 20 rankings, flag IPs with more than 3 errors
  logsift analyze /var/log/app/*.log --top 20 --error-threshold 3

  # Write the full report as JSON to a file
  logsift analyze access.log --json-output report.json

  # Export as CSV
  logsift analyze access.log --export csv --export-to report.csv

  # Save the run for later inspection with 'logsift history'
  logsift analyze access.log --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVarP(&analyzeTopN, "top", "n", 10, "number of top IPs and endpoints to report")
	analyzeCmd.Flags().IntVarP(&analyzeThreshold, "error-threshold", "e", 5, "flag IPs with more errors than this")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "suppress warnings for malformed log lines")
	analyzeCmd.Flags().StringVarP(&analyzeJSONPath, "json-output", "j", "", "write the report as JSON to this file")
	analyzeCmd.Flags().StringVar(&analyzeExport, "export", "", "export format (json, csv)")
	analyzeCmd.Flags().StringVar(&analyzeExportTo, "export-to", "", "export file path (default: stdout)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "save this run to the history database")
	analyzeCmd.Flags().StringVar(&analyzeDB, "history-db", "", "history database path (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 0, "limit parsed entries per file (0 = no limit)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "number of parallel file readers (0 = auto)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	applyAnalyzeConfig(cmd)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		PrintVerbose("Received interrupt, stopping...")
		cancel()
	}()

	files := source.ExpandGlobs(args)
	if len(files) == 0 {
		return fmt.Errorf("no files match the specified patterns")
	}

	stats, err := analyzeFiles(ctx, files)
	if err != nil {
		return err
	}

	if analyzeSave {
		id, err := saveRun(ctx, stats, describeSource(files))
		if err != nil {
			return err
		}
		PrintVerbose("Run saved as %s", id)
	}

	if analyzeJSONPath != "" {
		if err := exportToFile(stats, report.ExportJSON, analyzeJSONPath); err != nil {
			return err
		}
		fmt.Printf("JSON report saved to %q\n", analyzeJSONPath)
	}

	if analyzeExport != "" {
		format, ok := report.ParseExportFormat(analyzeExport)
		if !ok {
			return fmt.Errorf("invalid export format: %s (use json or csv)", analyzeExport)
		}
		if analyzeExportTo != "" {
			if err := exportToFile(stats, format, analyzeExportTo); err != nil {
				return err
			}
			PrintVerbose("Report exported to %s", analyzeExportTo)
			return nil
		}
		return report.NewExporter(format, os.Stdout).Export(stats)
	}

	outputStats(stats, describeSource(files))
	return nil
}

// analyzeFiles parses the given files in parallel and aggregates the
// combined entries.
func analyzeFiles(ctx context.Context, files []string) (*analyzer.Stats, error) {
	p := parser.New()

	// Warnings from parallel readers are serialized so they do not
	// interleave.
	var warnMu sync.Mutex
	warnFor := func(path string) func(lineNum int64, err error) {
		if analyzeQuiet {
			return nil
		}
		return func(lineNum int64, err error) {
			warnMu.Lock()
			defer warnMu.Unlock()
			fmt.Fprintf(os.Stderr, "warning: %s line %d: %v\n", path, lineNum, err)
		}
	}

	read := func(ctx context.Context, path string) (*source.Result, error) {
		return source.ReadFile(ctx, path, p, &source.Options{
			Limit: analyzeLimit,
			Warn:  warnFor(path),
		})
	}

	PrintVerbose("Analyzing %d file(s)...", len(files))

	merged, errs := source.ReadFiles(ctx, files, analyzeWorkers, read)
	for _, err := range errs {
		PrintError(err.Error(), false)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(merged.Entries) == 0 {
		return nil, fmt.Errorf("no valid log entries found in %s", describeSource(files))
	}

	stats := analyzer.Analyze(merged.Entries, analyzeTopN, analyzeThreshold)
	stats.MalformedEntries = merged.Malformed

	return stats, nil
}

// applyAnalyzeConfig fills in defaults from the config file for flags the
// user did not set.
func applyAnalyzeConfig(cmd *cobra.Command) {
	if cfg == nil {
		return
	}
	if !cmd.Flags().Changed("top") {
		analyzeTopN = *cfg.Analyze.TopN
	}
	if !cmd.Flags().Changed("error-threshold") {
		analyzeThreshold = *cfg.Analyze.ErrorThreshold
	}
	if !cmd.Flags().Changed("quiet") {
		analyzeQuiet = cfg.Analyze.Quiet
	}
	if analyzeDB == "" {
		analyzeDB = cfg.HistoryDB
	}
}

func saveRun(ctx context.Context, stats *analyzer.Stats, sourceName string) (string, error) {
	store := storage.NewRunStore(analyzeDB)
	if err := store.Open(); err != nil {
		return "", fmt.Errorf("open history database: %w", err)
	}
	defer store.Close()

	id, err := store.SaveRun(ctx, stats, sourceName)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return id, nil
}

func exportToFile(stats *analyzer.Stats, format report.ExportFormat, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	if err := report.NewExporter(format, file).Export(stats); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func describeSource(files []string) string {
	if len(files) == 1 {
		return files[0]
	}
	return fmt.Sprintf("%s (+%d more)", files[0], len(files)-1)
}

// outputStats renders stats in the selected output format.
func outputStats(stats *analyzer.Stats, sourceName string) {
	switch GetOutput() {
	case "json":
		if err := report.NewExporter(report.ExportJSON, os.Stdout).Export(stats); err != nil {
			PrintError(fmt.Sprintf("failed to write JSON: %v", err), false)
		}
	case "plain":
		outputStatsPlain(stats)
	default:
		report.NewRenderer(os.Stdout, ColorEnabled()).Render(stats, sourceName)
	}
}

func outputStatsPlain(stats *analyzer.Stats) {
	fmt.Printf("Entries: %d | Malformed: %d | Info: %d | Warn: %d | Error: %d | Flagged IPs: %d\n",
		stats.TotalEntries,
		stats.MalformedEntries,
		stats.LevelCounts["INFO"].Count,
		stats.LevelCounts["WARN"].Count,
		stats.LevelCounts["ERROR"].Count,
		len(stats.FlaggedIPs))
}
