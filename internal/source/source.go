// Package source reads raw log lines from files or readers and feeds them
// through a parser, keeping count of the lines that never became entries.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"logsift/internal/models"
	"logsift/internal/parser"
)

// Options configures a reading pass.
type Options struct {
	// Limit stops reading after this many parsed entries (0 = no limit).
	Limit int

	// Warn, if set, is called for every line that failed to parse and for
	// read failures. Leave nil to suppress diagnostics.
	Warn func(lineNum int64, err error)
}

// Result holds the outcome of one reading pass over one source.
type Result struct {
	// Entries are the successfully parsed entries, in input order.
	Entries []*models.LogEntry

	// Malformed counts lines that never became entries: parse failures and
	// read failures alike.
	Malformed int

	// Lines is the total number of lines seen, blank lines included.
	Lines int64
}

// ReadAll scans r line by line, parsing each non-blank line with p.
//
// Parse failures are recoverable: the line is counted as malformed,
// reported through opts.Warn, and reading continues. Blank lines are
// skipped without counting. A read failure ends the pass and is counted as
// one malformed line. The accumulated Result is returned even on context
// cancellation.
func ReadAll(ctx context.Context, r io.Reader, p *parser.Parser, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	res := &Result{}

	scanner := bufio.NewScanner(r)
	// Increase buffer for potentially long lines.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		res.Lines++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := p.Parse(line)
		if err != nil {
			res.Malformed++
			if opts.Warn != nil {
				opts.Warn(res.Lines, err)
			}
			continue
		}

		res.Entries = append(res.Entries, entry)
		if opts.Limit > 0 && len(res.Entries) >= opts.Limit {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		res.Malformed++
		if opts.Warn != nil {
			opts.Warn(res.Lines+1, fmt.Errorf("read line: %w", err))
		}
	}

	return res, nil
}

// ReadFile opens path and runs ReadAll over its contents.
func ReadFile(ctx context.Context, path string, p *parser.Parser, opts *Options) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return ReadAll(ctx, file, p, opts)
}
