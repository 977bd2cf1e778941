package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"logsift/internal/analyzer"
)

// ExportFormat defines the output format for exports.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ParseExportFormat parses a string to ExportFormat.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch s {
	case "json":
		return ExportJSON, true
	case "csv":
		return ExportCSV, true
	default:
		return "", false
	}
}

// Exporter writes analysis statistics in a structured interchange format.
// Every snapshot field is preserved with its stated type: counts as
// integers, percentages as floats, identifiers as strings.
type Exporter struct {
	format ExportFormat
	writer io.Writer
}

// NewExporter creates an exporter for the given format.
func NewExporter(format ExportFormat, w io.Writer) *Exporter {
	return &Exporter{format: format, writer: w}
}

// Export writes the statistics in the configured format.
func (e *Exporter) Export(stats *analyzer.Stats) error {
	switch e.format {
	case ExportCSV:
		return e.exportCSV(stats)
	default:
		return e.exportJSON(stats)
	}
}

func (e *Exporter) exportJSON(stats *analyzer.Stats) error {
	encoder := json.NewEncoder(e.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(stats)
}

func (e *Exporter) exportCSV(stats *analyzer.Stats) error {
	w := csv.NewWriter(e.writer)
	defer w.Flush()

	w.Write([]string{"# Summary"})
	w.Write([]string{"total_entries", strconv.Itoa(stats.TotalEntries)})
	w.Write([]string{"malformed_entries", strconv.Itoa(stats.MalformedEntries)})
	w.Write([]string{"top_n", strconv.Itoa(stats.TopN)})
	w.Write([]string{"error_threshold", strconv.Itoa(stats.ErrorThreshold)})
	w.Write([]string{})

	w.Write([]string{"# Level Counts"})
	w.Write([]string{"level", "count", "percentage"})
	for _, level := range sortedKeys(stats.LevelCounts) {
		lc := stats.LevelCounts[level]
		w.Write([]string{level, strconv.Itoa(lc.Count), formatPct(lc.Percentage)})
	}
	w.Write([]string{})

	w.Write([]string{"# Status Code Distribution"})
	w.Write([]string{"status_code", "count"})
	codes := make([]string, 0, len(stats.StatusCodes))
	for code := range stats.StatusCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return numeric(codes[i]) < numeric(codes[j]) })
	for _, code := range codes {
		w.Write([]string{code, strconv.Itoa(stats.StatusCodes[code])})
	}
	w.Write([]string{})

	writeRanking(w, "# Top IPs", "ip", stats.TopIPs)
	writeRanking(w, "# Top Endpoints", "endpoint", stats.TopEndpoints)

	w.Write([]string{"# Flagged IPs"})
	w.Write([]string{"ip", "error_count", "total_requests", "error_rate"})
	for _, f := range stats.FlaggedIPs {
		w.Write([]string{
			f.IP,
			strconv.Itoa(f.ErrorCount),
			strconv.Itoa(f.TotalRequests),
			formatPct(f.ErrorRate),
		})
	}

	return w.Error()
}

func writeRanking(w *csv.Writer, header, keyName string, items []analyzer.RankedItem) {
	w.Write([]string{header})
	w.Write([]string{keyName, "count", "percentage"})
	for _, item := range items {
		w.Write([]string{item.Value, strconv.Itoa(item.Count), formatPct(item.Percentage)})
	}
	w.Write([]string{})
}

func formatPct(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func sortedKeys(m map[string]analyzer.LevelCount) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
