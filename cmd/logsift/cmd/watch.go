package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"logsift/internal/analyzer"
	"logsift/internal/models"
	"logsift/internal/parser"
	"logsift/internal/tailer"
)

var (
	watchInterval  time.Duration
	watchFromEnd   bool
	watchTopN      int
	watchThreshold int
)

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Follow a log file and report running statistics",
	Long: `Follow a log file as it grows, parsing appended lines and
periodically printing a running summary. Survives log rotation.

Examples:
  # Follow a file, summary every 5 seconds
  logsift watch /var/log/app/access.log

  # Only new lines, refresh every second
  logsift watch access.log --from-end --interval 1s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "summary refresh interval")
	watchCmd.Flags().BoolVar(&watchFromEnd, "from-end", false, "skip existing content, only follow new lines")
	watchCmd.Flags().IntVarP(&watchTopN, "top", "n", 10, "number of top IPs and endpoints to report")
	watchCmd.Flags().IntVarP(&watchThreshold, "error-threshold", "e", 5, "flag IPs with more errors than this")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg != nil {
		if !cmd.Flags().Changed("top") {
			watchTopN = *cfg.Analyze.TopN
		}
		if !cmd.Flags().Changed("error-threshold") {
			watchThreshold = *cfg.Analyze.ErrorThreshold
		}
	}

	logLevel := slog.LevelWarn
	if IsVerbose() {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Debug("received interrupt, stopping")
		cancel()
	}()

	t, err := tailer.New(args[0], &tailer.Options{
		PollInterval: 250 * time.Millisecond,
		ReOpen:       true,
		FromEnd:      watchFromEnd,
	})
	if err != nil {
		return err
	}
	defer t.Stop()

	if err := t.Start(ctx); err != nil {
		return err
	}

	logger.Debug("watching file", "path", args[0], "interval", watchInterval)

	p := parser.New()
	state := &watchState{}
	dirty := false

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			printWatchSummary(state.entries, state.malformed)
			return nil

		case line, ok := <-t.Lines():
			if !ok {
				printWatchSummary(state.entries, state.malformed)
				return nil
			}
			if line.Err != nil {
				logger.Warn("tail error", "err", line.Err)
				continue
			}

			added, err := state.consume(p, line.Text)
			if err != nil {
				var formatErr *parser.FormatError
				if errors.As(err, &formatErr) {
					logger.Debug("malformed line", "line", formatErr.Line)
				} else {
					logger.Debug("malformed line", "err", err)
				}
				continue
			}
			if added {
				dirty = true
			}

		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			printWatchSummary(state.entries, state.malformed)
		}
	}
}

// watchState accumulates parsed entries across tailed lines.
type watchState struct {
	entries   []*models.LogEntry
	malformed int
}

// consume handles one tailed line. Whitespace-only lines are skipped the
// same way the file reading loop skips them, without counting as malformed.
// added reports whether an entry was appended; err is the parse failure for
// a malformed line, already counted.
func (s *watchState) consume(p *parser.Parser, text string) (added bool, err error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	entry, err := p.Parse(text)
	if err != nil {
		s.malformed++
		return false, err
	}

	s.entries = append(s.entries, entry)
	return true, nil
}

// printWatchSummary recomputes and prints the running summary. The full
// entry list is re-aggregated each time; the analyzer is a cheap single
// pass.
func printWatchSummary(entries []*models.LogEntry, malformed int) {
	if len(entries) == 0 {
		fmt.Printf("%s | no valid entries yet (malformed: %d)\n",
			time.Now().Format("15:04:05"), malformed)
		return
	}

	stats := analyzer.Analyze(entries, watchTopN, watchThreshold)
	stats.MalformedEntries = malformed

	top := "-"
	if len(stats.TopIPs) > 0 {
		top = fmt.Sprintf("%s (%d)", stats.TopIPs[0].Value, stats.TopIPs[0].Count)
	}

	fmt.Printf("%s | entries: %d | info: %d | warn: %d | error: %d | top ip: %s | flagged: %d | malformed: %d\n",
		time.Now().Format("15:04:05"),
		stats.TotalEntries,
		stats.LevelCounts["INFO"].Count,
		stats.LevelCounts["WARN"].Count,
		stats.LevelCounts["ERROR"].Count,
		top,
		len(stats.FlaggedIPs),
		malformed)
}
