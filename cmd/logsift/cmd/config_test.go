package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if *c.Analyze.TopN != 10 {
		t.Errorf("TopN = %d, want 10", *c.Analyze.TopN)
	}
	if *c.Analyze.ErrorThreshold != 5 {
		t.Errorf("ErrorThreshold = %d, want 5", *c.Analyze.ErrorThreshold)
	}
	if c.HistoryDB != "logsift.db" {
		t.Errorf("HistoryDB = %q, want %q", c.HistoryDB, "logsift.db")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
analyze:
  top_n: 3
  error_threshold: 1
  quiet: true
history_db: /tmp/runs.db
output: json
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if *c.Analyze.TopN != 3 {
		t.Errorf("TopN = %d, want 3", *c.Analyze.TopN)
	}
	if *c.Analyze.ErrorThreshold != 1 {
		t.Errorf("ErrorThreshold = %d, want 1", *c.Analyze.ErrorThreshold)
	}
	if !c.Analyze.Quiet {
		t.Error("Quiet = false, want true")
	}
	if c.HistoryDB != "/tmp/runs.db" {
		t.Errorf("HistoryDB = %q", c.HistoryDB)
	}
	if c.Output != "json" {
		t.Errorf("Output = %q, want %q", c.Output, "json")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `output: table`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if *c.Analyze.TopN != 10 || *c.Analyze.ErrorThreshold != 5 {
		t.Errorf("defaults not applied: top_n=%d threshold=%d", *c.Analyze.TopN, *c.Analyze.ErrorThreshold)
	}
	if c.HistoryDB != "logsift.db" {
		t.Errorf("HistoryDB = %q, want default", c.HistoryDB)
	}
}

// An explicit zero is a meaningful setting (empty rankings, flag any IP
// with at least one error) and must survive the default filling.
func TestLoadConfig_ExplicitZero(t *testing.T) {
	path := writeConfig(t, `
analyze:
  top_n: 0
  error_threshold: 0
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if *c.Analyze.TopN != 0 {
		t.Errorf("TopN = %d, want 0", *c.Analyze.TopN)
	}
	if *c.Analyze.ErrorThreshold != 0 {
		t.Errorf("ErrorThreshold = %d, want 0", *c.Analyze.ErrorThreshold)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative top_n", "analyze:\n  top_n: -1\n"},
		{"negative threshold", "analyze:\n  error_threshold: -3\n"},
		{"bad output", "output: xml\n"},
		{"malformed yaml", "analyze: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
