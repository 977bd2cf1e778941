package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"logsift/internal/models"
	"logsift/internal/parser"
	"logsift/internal/source"
)

var (
	parseLimit int
	parseQuiet bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a log file and print the entries",
	Long: `Parse a log file and print the structured entries without
aggregating them. Useful for checking whether a file matches the
expected format.

Examples:
  # Print parsed entries as a table
  logsift parse /var/log/app/access.log

  # Print as JSON
  logsift parse access.log -o json

  # First 10 entries only
  logsift parse access.log --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().IntVarP(&parseLimit, "limit", "n", 0, "limit number of entries to parse (0 = no limit)")
	parseCmd.Flags().BoolVarP(&parseQuiet, "quiet", "q", false, "suppress warnings for malformed log lines")
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	var warn func(lineNum int64, err error)
	if !parseQuiet {
		warn = func(lineNum int64, err error) {
			fmt.Fprintf(os.Stderr, "warning: line %d: %v\n", lineNum, err)
		}
	}

	res, err := source.ReadFile(context.Background(), filePath, parser.New(), &source.Options{
		Limit: parseLimit,
		Warn:  warn,
	})
	if err != nil {
		return err
	}

	if len(res.Entries) == 0 {
		fmt.Println("No entries parsed.")
		return nil
	}

	switch GetOutput() {
	case "json":
		data, err := json.MarshalIndent(res.Entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "plain":
		for _, entry := range res.Entries {
			fmt.Println(entry.String())
		}
	default:
		outputEntryTable(res.Entries)
	}

	if res.Malformed > 0 {
		PrintVerbose("%d malformed line(s) skipped", res.Malformed)
	}
	return nil
}

func outputEntryTable(entries []*models.LogEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "TIMESTAMP\tLEVEL\tIP\tMETHOD\tENDPOINT\tSTATUS\n")
	fmt.Fprintf(w, "---------\t-----\t--\t------\t--------\t------\n")

	for _, entry := range entries {
		endpoint := entry.Endpoint
		if len(endpoint) > 60 {
			endpoint = endpoint[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			entry.Timestamp, entry.Level, entry.IP, entry.Method.String(),
			endpoint, entry.StatusCode)
	}

	w.Flush()
	fmt.Printf("\nTotal entries: %d\n", len(entries))
}
