package report

import (
	"bytes"
	"strings"
	"testing"

	"logsift/internal/analyzer"
)

func TestRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf, false).Render(sampleStats(), "access.log")
	out := buf.String()

	for _, want := range []string{
		"LOG ANALYSIS REPORT",
		"access.log",
		"OVERVIEW",
		"Total entries parsed:",
		"Malformed / skipped lines:",
		"LOG LEVEL BREAKDOWN",
		"INFO",
		"STATUS CODE DISTRIBUTION",
		"HTTP 200",
		"TOP 5 IP ADDRESSES BY REQUEST COUNT",
		"1.1.1.1",
		"TOP 5 ENDPOINTS BY REQUEST FREQUENCY",
		"/api/users",
		"FLAGGED IPs (ERROR COUNT > 0)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Color disabled means no ANSI escapes in the output.
	if strings.Contains(out, "\x1b[") {
		t.Error("report contains ANSI escapes with color disabled")
	}
}

func TestRenderer_Render_NoFlagged(t *testing.T) {
	stats := sampleStats()
	stats.FlaggedIPs = nil
	stats.ErrorThreshold = 5

	var buf bytes.Buffer
	NewRenderer(&buf, false).Render(stats, "")
	out := buf.String()

	if !strings.Contains(out, "No IPs exceeded the error threshold") {
		t.Error("report missing no-flagged message")
	}
	if !strings.Contains(out, "FLAGGED IPs (ERROR COUNT > 5)") {
		t.Error("flagged section header does not echo the threshold")
	}
}

func TestRenderer_Render_Empty(t *testing.T) {
	stats := &analyzer.Stats{
		LevelCounts: map[string]analyzer.LevelCount{},
		StatusCodes: map[string]int{},
		TopN:        10,
	}

	var buf bytes.Buffer
	NewRenderer(&buf, false).Render(stats, "empty.log")
	out := buf.String()

	if !strings.Contains(out, "(no data)") {
		t.Error("empty rankings should render a placeholder")
	}
}

func TestRenderer_LongValuesTruncated(t *testing.T) {
	stats := sampleStats()
	long := "/api/" + strings.Repeat("x", 100)
	stats.TopEndpoints = []analyzer.RankedItem{{Value: long, Count: 1, Percentage: 100.0}}

	var buf bytes.Buffer
	NewRenderer(&buf, false).Render(stats, "")
	out := buf.String()

	if strings.Contains(out, long) {
		t.Error("long endpoint value was not truncated")
	}
	if !strings.Contains(out, "…") {
		t.Error("truncated value missing ellipsis")
	}
}
