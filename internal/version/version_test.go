package version_test

import (
	"runtime"
	"testing"

	"github.com/gangfang/kaggle-scripts/internal/version"
	"github.com/stretchr/testify/assert"
)

func withBuildVars(t *testing.T, v, date, commit string) {
	t.Helper()
	origVersion, origDate, origCommit := version.Version, version.BuildDate, version.GitCommit
	version.Version, version.BuildDate, version.GitCommit = v, date, commit
	t.Cleanup(func() {
		version.Version, version.BuildDate, version.GitCommit = origVersion, origDate, origCommit
	})
}

func TestInfo(t *testing.T) {
	withBuildVars(t, "v1.2.0", "2026-01-02T03:04:05Z", "0123456789abcdef-dirty")

	info := version.Info()
	assert.Equal(t, "v1.2.0", info.Version)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.BuildDate)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.True(t, info.Dirty)
}

func TestBuildInfoString(t *testing.T) {
	t.Run("release build", func(t *testing.T) {
		withBuildVars(t, "v1.0.0", "2026-01-02", "0123456789abcdef")

		out := version.Info().String()
		assert.Contains(t, out, "houseprice\n")
		assert.Contains(t, out, "Version: v1.0.0\n")
		assert.Contains(t, out, "Build Date: 2026-01-02\n")
		assert.Contains(t, out, "Git Commit: 0123456\n")
		assert.NotContains(t, out, "(dirty)")
	})

	t.Run("dev build", func(t *testing.T) {
		withBuildVars(t, "dev", "unknown", "unknown")

		out := version.Info().String()
		assert.Contains(t, out, "Version: dev\n")
		assert.NotContains(t, out, "Build Date")
		assert.NotContains(t, out, "Git Commit")
	})
}

func TestBuildInfoStringListsDependencies(t *testing.T) {
	info := version.BuildInfo{
		Version:   "v1.0.0",
		BuildDate: "unknown",
		GitCommit: "unknown",
		GoVersion: "go1.24.4",
		Main:      version.Module{Path: "github.com/gangfang/kaggle-scripts"},
		Deps: []version.Module{
			{Path: "github.com/apache/arrow-go/v18", Version: "v18.3.1"},
			{Path: "gonum.org/v1/gonum", Version: "v0.16.0"},
		},
	}

	out := info.String()
	assert.Contains(t, out, "Module: github.com/gangfang/kaggle-scripts\n")
	assert.Contains(t, out, "Dependencies:\n  github.com/apache/arrow-go/v18 v18.3.1\n  gonum.org/v1/gonum v0.16.0\n")

	info.Deps = nil
	assert.NotContains(t, info.String(), "Dependencies:")
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc", version.ShortCommit("abc"))
	assert.Equal(t, "0123456", version.ShortCommit("0123456789"))
	assert.Equal(t, "0123456", version.ShortCommit("0123456789-dirty"))
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"dev", false},
		{"v1.0.0", true},
		{"v1.1.0-rc1", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withBuildVars(t, tt.version, "unknown", "unknown")
			assert.Equal(t, tt.want, version.IsRelease())
		})
	}
}
