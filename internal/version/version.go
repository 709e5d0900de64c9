package version

import (
	"fmt"
	"strings"
)

// Version is the service current released version.
// Semantic versioning: https://semver.org/
var Version = "0.3.0"

// DevVersion is the service current development version.
var DevVersion = "0.3.0"

// Commit is set at build time with -ldflags "-X github.com/hrygo/rift/internal/version.Commit=...".
var Commit = ""

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// String renders the version line printed by "rift version".
func String(mode string) string {
	v := GetCurrentVersion(mode)
	if c := strings.TrimSpace(Commit); c != "" {
		if len(c) > 7 {
			c = c[:7]
		}
		return fmt.Sprintf("rift %s (%s)", v, c)
	}
	return "rift " + v
}
