// Package report renders analysis statistics for terminals and exports them
// to structured formats.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"logsift/internal/analyzer"
)

// Semantic colors for terminal output.
var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorDanger  = lipgloss.Color("#e53935")
	colorInfo    = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("244")
)

// styles holds the lipgloss styles for one renderer. A zero style renders
// text unchanged, which is how color is disabled.
type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	accent  lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		return styles{}
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		section: lipgloss.NewStyle().Bold(true).Foreground(colorInfo),
		good:    lipgloss.NewStyle().Foreground(colorSuccess),
		warn:    lipgloss.NewStyle().Foreground(colorWarning),
		bad:     lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
		accent:  lipgloss.NewStyle().Foreground(colorInfo),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
	}
}

// Renderer writes a human-readable analysis report.
type Renderer struct {
	w  io.Writer
	st styles
}

// NewRenderer creates a Renderer. Set color to false for plain output
// (non-TTY destinations, --no-color).
func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, st: newStyles(color)}
}

const separator = "════════════════════════════════════════════════════════════════════"
const thinSep = "────────────────────────────────────────────────────────────────────"

// Render writes the full report for one analysis run. source describes
// where the entries came from, e.g. a file path.
func (r *Renderer) Render(stats *analyzer.Stats, source string) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.st.accent.Render(separator))
	fmt.Fprintln(r.w, r.st.title.Render("  LOG ANALYSIS REPORT"))
	fmt.Fprintln(r.w, r.st.accent.Render(separator))
	if source != "" {
		fmt.Fprintf(r.w, "  Source : %s\n", r.st.warn.Render(source))
	}
	fmt.Fprintln(r.w)

	r.renderOverview(stats)
	r.renderLevels(stats)
	r.renderStatusCodes(stats)
	r.renderRanking(fmt.Sprintf("TOP %d IP ADDRESSES BY REQUEST COUNT", stats.TopN), "IP Address", stats.TopIPs)
	r.renderRanking(fmt.Sprintf("TOP %d ENDPOINTS BY REQUEST FREQUENCY", stats.TopN), "Endpoint", stats.TopEndpoints)
	r.renderFlagged(stats)

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.st.accent.Render(separator))
	fmt.Fprintln(r.w)
}

func (r *Renderer) sectionHeader(title string) {
	fmt.Fprintf(r.w, "  %s %s\n", r.st.accent.Render("▶"), r.st.section.Render(title))
	fmt.Fprintf(r.w, "  %s\n", thinSep)
}

func (r *Renderer) renderOverview(stats *analyzer.Stats) {
	r.sectionHeader("OVERVIEW")

	malformed := strconv.Itoa(stats.MalformedEntries)
	if stats.MalformedEntries > 0 {
		malformed = r.st.warn.Render(malformed)
	}

	fmt.Fprintf(r.w, "  %-28s %s\n", "Total entries parsed:", r.st.good.Render(strconv.Itoa(stats.TotalEntries)))
	fmt.Fprintf(r.w, "  %-28s %s\n", "Malformed / skipped lines:", malformed)
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderLevels(stats *analyzer.Stats) {
	r.sectionHeader("LOG LEVEL BREAKDOWN")

	levelStyle := map[string]lipgloss.Style{
		"INFO":  r.st.good,
		"WARN":  r.st.warn,
		"ERROR": r.st.bad,
	}

	for _, level := range []string{"INFO", "WARN", "ERROR"} {
		lc, ok := stats.LevelCounts[level]
		if !ok {
			continue
		}
		fmt.Fprintf(r.w, "  %-6s %6d  (%5.1f%%)  %s\n",
			levelStyle[level].Render(level), lc.Count, lc.Percentage, r.miniBar(lc.Percentage, 30))
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderStatusCodes(stats *analyzer.Stats) {
	r.sectionHeader("STATUS CODE DISTRIBUTION")

	codes := make([]string, 0, len(stats.StatusCodes))
	for code := range stats.StatusCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return numeric(codes[i]) < numeric(codes[j])
	})

	for _, code := range codes {
		count := stats.StatusCodes[code]
		// Status code percentages are computed here, at presentation time;
		// the snapshot stores raw counts only.
		pct := 0.0
		if stats.TotalEntries > 0 {
			pct = float64(count) / float64(stats.TotalEntries) * 100.0
		}
		fmt.Fprintf(r.w, "  HTTP %s  %6d  (%5.1f%%)  %s\n",
			r.colorStatus(code), count, pct, r.miniBar(pct, 20))
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderRanking(title, keyHeader string, items []analyzer.RankedItem) {
	r.sectionHeader(title)
	if len(items) == 0 {
		fmt.Fprintln(r.w, "  (no data)")
		fmt.Fprintln(r.w)
		return
	}

	w := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  #\t%s\tRequests\tShare\n", keyHeader)
	fmt.Fprintf(w, "  -\t%s\t--------\t-----\n", strings.Repeat("-", len(keyHeader)))
	for i, item := range items {
		value := item.Value
		if len(value) > 40 {
			value = value[:39] + "…"
		}
		fmt.Fprintf(w, "  %d\t%s\t%d\t%.2f%%\n",
			i+1, r.st.accent.Render(value), item.Count, item.Percentage)
	}
	w.Flush()
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderFlagged(stats *analyzer.Stats) {
	r.sectionHeader(fmt.Sprintf("FLAGGED IPs (ERROR COUNT > %d)", stats.ErrorThreshold))

	if len(stats.FlaggedIPs) == 0 {
		fmt.Fprintf(r.w, "  %s No IPs exceeded the error threshold.\n", r.st.good.Render("✓"))
		return
	}

	fmt.Fprintf(r.w, "  %s IPs flagged!\n\n", r.st.bad.Render(strconv.Itoa(len(stats.FlaggedIPs))))

	w := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  #\tIP Address\tErrors\tTotal\tError Rate\n")
	fmt.Fprintf(w, "  -\t----------\t------\t-----\t----------\n")
	for i, item := range stats.FlaggedIPs {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%d\t%.1f%%\n",
			i+1, r.st.bad.Render(item.IP), r.st.bad.Render(strconv.Itoa(item.ErrorCount)),
			item.TotalRequests, item.ErrorRate)
	}
	w.Flush()
}

// miniBar renders a compact bar of the given width for a percentage.
func (r *Renderer) miniBar(pct float64, width int) string {
	filled := int(pct/100.0*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return r.st.good.Render(strings.Repeat("█", filled)) +
		r.st.muted.Render(strings.Repeat("░", width-filled))
}

// colorStatus styles a status code string by its category.
func (r *Renderer) colorStatus(code string) string {
	switch n := numeric(code); {
	case n >= 200 && n < 300:
		return r.st.good.Render(code)
	case n >= 300 && n < 400:
		return r.st.accent.Render(code)
	case n >= 400 && n < 500:
		return r.st.warn.Render(code)
	case n >= 500 && n < 600:
		return r.st.bad.Render(code)
	default:
		return code
	}
}

func numeric(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
