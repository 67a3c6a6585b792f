// Package misc keeps small helpers needed across the program which have no
// better home.
package misc

import (
	"runtime/debug"
)

const appName = "fdoc"

// GetAppName returns short program name to be used in logs, reports and
// temporary file names.
func GetAppName() string {
	return appName
}

// GetVersion returns program version recorded in build info, "devel" when
// built outside of a module context.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 {
		return bi.Main.Version
	}
	return "devel"
}

// GetGitHash returns vcs revision recorded in build info, if any.
func GetGitHash() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
