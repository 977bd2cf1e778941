package analyzer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"logsift/internal/models"
)

func makeEntry(ip string, level models.Level, endpoint string, status uint16) *models.LogEntry {
	return &models.LogEntry{
		Timestamp:  "2024-01-01T00:00:00Z",
		Level:      level,
		IP:         ip,
		Method:     models.MethodGet,
		Endpoint:   endpoint,
		StatusCode: status,
	}
}

func TestAnalyze_LevelCounts(t *testing.T) {
	entries := []*models.LogEntry{
		makeEntry("1.1.1.1", models.LevelInfo, "/a", 200),
		makeEntry("1.1.1.1", models.LevelInfo, "/b", 200),
		makeEntry("1.1.1.2", models.LevelWarn, "/a", 429),
		makeEntry("1.1.1.3", models.LevelError, "/c", 500),
	}

	stats := Analyze(entries, 5, 3)

	if stats.TotalEntries != 4 {
		t.Errorf("TotalEntries = %d, want 4", stats.TotalEntries)
	}
	if got := stats.LevelCounts["INFO"].Count; got != 2 {
		t.Errorf("INFO count = %d, want 2", got)
	}
	if got := stats.LevelCounts["WARN"].Count; got != 1 {
		t.Errorf("WARN count = %d, want 1", got)
	}
	if got := stats.LevelCounts["ERROR"].Count; got != 1 {
		t.Errorf("ERROR count = %d, want 1", got)
	}

	sum := stats.LevelCounts["INFO"].Count + stats.LevelCounts["WARN"].Count + stats.LevelCounts["ERROR"].Count
	if sum != stats.TotalEntries {
		t.Errorf("level counts sum to %d, want %d", sum, stats.TotalEntries)
	}

	if got := stats.LevelCounts["INFO"].Percentage; got != 50.0 {
		t.Errorf("INFO percentage = %v, want 50.0", got)
	}
}

func TestAnalyze_TopIPs(t *testing.T) {
	entries := []*models.LogEntry{
		makeEntry("1.1.1.1", models.LevelInfo, "/", 200),
		makeEntry("1.1.1.1", models.LevelInfo, "/", 200),
		makeEntry("1.1.1.2", models.LevelInfo, "/", 200),
		makeEntry("1.1.1.1", models.LevelInfo, "/", 200),
	}

	stats := Analyze(entries, 5, 3)

	expected := []RankedItem{
		{Value: "1.1.1.1", Count: 3, Percentage: 75.0},
		{Value: "1.1.1.2", Count: 1, Percentage: 25.0},
	}
	if diff := cmp.Diff(expected, stats.TopIPs); diff != "" {
		t.Errorf("TopIPs mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_RankingTieBreak(t *testing.T) {
	// Equal counts must be ordered by key ascending.
	entries := []*models.LogEntry{
		makeEntry("9.9.9.9", models.LevelInfo, "/b", 200),
		makeEntry("1.1.1.1", models.LevelInfo, "/a", 200),
		makeEntry("5.5.5.5", models.LevelInfo, "/c", 200),
	}

	stats := Analyze(entries, 5, 3)

	wantIPs := []string{"1.1.1.1", "5.5.5.5", "9.9.9.9"}
	for i, want := range wantIPs {
		if stats.TopIPs[i].Value != want {
			t.Errorf("TopIPs[%d] = %q, want %q", i, stats.TopIPs[i].Value, want)
		}
	}

	wantEndpoints := []string{"/a", "/b", "/c"}
	for i, want := range wantEndpoints {
		if stats.TopEndpoints[i].Value != want {
			t.Errorf("TopEndpoints[%d] = %q, want %q", i, stats.TopEndpoints[i].Value, want)
		}
	}
}

func TestAnalyze_TopNTruncation(t *testing.T) {
	entries := []*models.LogEntry{
		makeEntry("1.1.1.1", models.LevelInfo, "/a", 200),
		makeEntry("1.1.1.2", models.LevelInfo, "/b", 200),
		makeEntry("1.1.1.3", models.LevelInfo, "/c", 200),
		makeEntry("1.1.1.4", models.LevelInfo, "/d", 200),
	}

	tests := []struct {
		topN    int
		wantLen int
	}{
		{0, 0},
		{2, 2},
		{4, 4},
		{100, 4},
		{-1, 0},
	}

	for _, tt := range tests {
		stats := Analyze(entries, tt.topN, 3)
		if len(stats.TopIPs) != tt.wantLen {
			t.Errorf("topN=%d: len(TopIPs) = %d, want %d", tt.topN, len(stats.TopIPs), tt.wantLen)
		}
		if len(stats.TopEndpoints) != tt.wantLen {
			t.Errorf("topN=%d: len(TopEndpoints) = %d, want %d", tt.topN, len(stats.TopEndpoints), tt.wantLen)
		}
	}
}

func TestAnalyze_FlaggedIPs(t *testing.T) {
	var entries []*models.LogEntry
	for i := 0; i < 6; i++ {
		entries = append(entries, makeEntry("9.9.9.9", models.LevelError, "/bad", 500))
	}
	entries = append(entries, makeEntry("1.1.1.1", models.LevelError, "/bad", 500)) // only 1 error

	stats := Analyze(entries, 5, 5)

	expected := []FlaggedIP{
		{IP: "9.9.9.9", ErrorCount: 6, TotalRequests: 6, ErrorRate: 100.0},
	}
	if diff := cmp.Diff(expected, stats.FlaggedIPs); diff != "" {
		t.Errorf("FlaggedIPs mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_FlaggedThresholdIsStrict(t *testing.T) {
	var entries []*models.LogEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, makeEntry("2.2.2.2", models.LevelError, "/x", 500))
	}

	// Exactly at the threshold: not flagged.
	if stats := Analyze(entries, 5, 5); len(stats.FlaggedIPs) != 0 {
		t.Errorf("IP with error count == threshold was flagged")
	}

	// One below: flagged.
	if stats := Analyze(entries, 5, 4); len(stats.FlaggedIPs) != 1 {
		t.Errorf("IP with error count > threshold was not flagged")
	}

	// Threshold 0 flags any IP with at least one error.
	one := []*models.LogEntry{makeEntry("3.3.3.3", models.LevelError, "/x", 500)}
	if stats := Analyze(one, 5, 0); len(stats.FlaggedIPs) != 1 {
		t.Errorf("threshold 0 did not flag an IP with one error")
	}
}

func TestAnalyze_FlaggedErrorRate(t *testing.T) {
	entries := []*models.LogEntry{
		makeEntry("4.4.4.4", models.LevelError, "/x", 500),
		makeEntry("4.4.4.4", models.LevelError, "/x", 500),
		makeEntry("4.4.4.4", models.LevelInfo, "/x", 200),
		makeEntry("4.4.4.4", models.LevelInfo, "/x", 200),
	}

	stats := Analyze(entries, 5, 1)

	if len(stats.FlaggedIPs) != 1 {
		t.Fatalf("len(FlaggedIPs) = %d, want 1", len(stats.FlaggedIPs))
	}
	f := stats.FlaggedIPs[0]
	if f.ErrorCount != 2 || f.TotalRequests != 4 {
		t.Errorf("flagged = %+v", f)
	}
	if f.ErrorRate != 50.0 {
		t.Errorf("ErrorRate = %v, want 50.0", f.ErrorRate)
	}
}

func TestAnalyze_FlaggedSortOrder(t *testing.T) {
	var entries []*models.LogEntry
	add := func(ip string, n int) {
		for i := 0; i < n; i++ {
			entries = append(entries, makeEntry(ip, models.LevelError, "/x", 500))
		}
	}
	add("8.8.8.8", 3)
	add("2.2.2.2", 3)
	add("5.5.5.5", 7)

	stats := Analyze(entries, 5, 0)

	want := []string{"5.5.5.5", "2.2.2.2", "8.8.8.8"}
	if len(stats.FlaggedIPs) != len(want) {
		t.Fatalf("len(FlaggedIPs) = %d, want %d", len(stats.FlaggedIPs), len(want))
	}
	for i, ip := range want {
		if stats.FlaggedIPs[i].IP != ip {
			t.Errorf("FlaggedIPs[%d] = %q, want %q", i, stats.FlaggedIPs[i].IP, ip)
		}
	}
}

func TestAnalyze_StatusCodeDistribution(t *testing.T) {
	entries := []*models.LogEntry{
		makeEntry("1.1.1.1", models.LevelInfo, "/", 200),
		makeEntry("1.1.1.1", models.LevelInfo, "/", 200),
		makeEntry("1.1.1.1", models.LevelWarn, "/", 404),
		makeEntry("1.1.1.1", models.LevelError, "/", 500),
	}

	stats := Analyze(entries, 5, 3)

	expected := map[string]int{"200": 2, "404": 1, "500": 1}
	if diff := cmp.Diff(expected, stats.StatusCodes); diff != "" {
		t.Errorf("StatusCodes mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	stats := Analyze(nil, 5, 3)

	if stats.TotalEntries != 0 {
		t.Errorf("TotalEntries = %d, want 0", stats.TotalEntries)
	}
	if len(stats.TopIPs) != 0 || len(stats.TopEndpoints) != 0 || len(stats.FlaggedIPs) != 0 {
		t.Error("rankings not empty for empty input")
	}
	for level, lc := range stats.LevelCounts {
		if lc.Count != 0 || lc.Percentage != 0.0 {
			t.Errorf("level %s = %+v, want zero", level, lc)
		}
	}
	if len(stats.StatusCodes) != 0 {
		t.Errorf("StatusCodes = %v, want empty", stats.StatusCodes)
	}
}

func TestAnalyze_PercentageBounds(t *testing.T) {
	entries := []*models.LogEntry{
		makeEntry("1.1.1.1", models.LevelInfo, "/a", 200),
		makeEntry("1.1.1.2", models.LevelWarn, "/b", 301),
		makeEntry("1.1.1.3", models.LevelError, "/c", 500),
	}

	stats := Analyze(entries, 10, 0)

	check := func(name string, pct float64) {
		if pct < 0.0 || pct > 100.0 {
			t.Errorf("%s percentage %v outside [0, 100]", name, pct)
		}
	}
	for level, lc := range stats.LevelCounts {
		check("level "+level, lc.Percentage)
	}
	for _, item := range stats.TopIPs {
		check("ip "+item.Value, item.Percentage)
	}
	for _, item := range stats.TopEndpoints {
		check("endpoint "+item.Value, item.Percentage)
	}
	for _, f := range stats.FlaggedIPs {
		check("flagged "+f.IP, f.ErrorRate)
	}
}

func TestAnalyze_EchoesParameters(t *testing.T) {
	stats := Analyze(nil, 7, 2)
	if stats.TopN != 7 {
		t.Errorf("TopN = %d, want 7", stats.TopN)
	}
	if stats.ErrorThreshold != 2 {
		t.Errorf("ErrorThreshold = %d, want 2", stats.ErrorThreshold)
	}
}

// Aggregating the same entries twice must yield identical snapshots, map
// iteration order notwithstanding.
func TestAnalyze_Deterministic(t *testing.T) {
	var entries []*models.LogEntry
	ips := []string{"3.3.3.3", "1.1.1.1", "2.2.2.2", "4.4.4.4", "1.1.1.1"}
	for i, ip := range ips {
		level := models.LevelInfo
		if i%2 == 0 {
			level = models.LevelError
		}
		entries = append(entries, makeEntry(ip, level, "/e"+ip, uint16(200+i)))
	}

	first := Analyze(entries, 3, 0)
	second := Analyze(entries, 3, 0)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated aggregation differs (-first +second):\n%s", diff)
	}
}
