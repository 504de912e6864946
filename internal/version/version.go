// Package version provides build information for the houseprice binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string   `json:"version"`
	BuildDate string   `json:"build_date"`
	GitCommit string   `json:"git_commit"`
	GoVersion string   `json:"go_version"`
	Dirty     bool     `json:"dirty"`
	Main      Module   `json:"main"`
	Deps      []Module `json:"deps"`
}

// Module represents a Go module with version information
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Info returns detailed build information
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		Dirty:     strings.HasSuffix(GitCommit, "-dirty"),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.Main = Module{Path: buildInfo.Main.Path, Version: buildInfo.Main.Version}
		for _, dep := range buildInfo.Deps {
			info.Deps = append(info.Deps, Module{Path: dep.Path, Version: dep.Version})
		}
	}

	return info
}

// String returns a formatted version string
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString("houseprice\n")
	sb.WriteString(fmt.Sprintf("Version: %s", b.Version))
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue {
		sb.WriteString(fmt.Sprintf("Build Date: %s\n", b.BuildDate))
	}

	if b.GitCommit != unknownValue {
		sb.WriteString(fmt.Sprintf("Git Commit: %s\n", ShortCommit(b.GitCommit)))
	}

	sb.WriteString(fmt.Sprintf("Go Version: %s\n", b.GoVersion))

	if b.Main.Path != "" {
		sb.WriteString(fmt.Sprintf("Module: %s\n", b.Main.Path))
	}

	if len(b.Deps) > 0 {
		sb.WriteString("Dependencies:\n")
		for _, dep := range b.Deps {
			sb.WriteString(fmt.Sprintf("  %s %s\n", dep.Path, dep.Version))
		}
	}

	return sb.String()
}

// ShortCommit abbreviates a commit hash for display.
func ShortCommit(commit string) string {
	commit = strings.TrimSuffix(commit, "-dirty")
	if len(commit) > commitHashLength {
		return commit[:commitHashLength]
	}
	return commit
}

// IsRelease returns true if this is a release version (not dev)
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
