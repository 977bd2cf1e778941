package config

import (
	"strings"
	"testing"
)

func TestVersionStrings(t *testing.T) {
	if got := ShortVersionString(); got != Version {
		t.Errorf("ShortVersionString() = %q, want %q", got, Version)
	}

	full := VersionString()
	for _, want := range []string{"logsift", Version, Commit, BuildTime} {
		if !strings.Contains(full, want) {
			t.Errorf("VersionString() = %q, missing %q", full, want)
		}
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version != Version || info.Commit != Commit {
		t.Errorf("GetBuildInfo() = %+v", info)
	}
	if info.GoVersion == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("runtime fields empty: %+v", info)
	}
}
