package intake

import (
	"os"
	"strings"
)

// Version is the hydrate release version.
var Version = "0.1.0"

// Packaged is set to "true" for release builds:
//
//	go build -ldflags "-X github.com/roach88/hydrate/internal/intake.Packaged=true"
var Packaged = ""

// IsPackaged reports whether this binary runs as a packaged release build,
// either through the link-time flag or HYDRATE_PACKAGED=1.
func IsPackaged() bool {
	if Packaged == "true" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("HYDRATE_PACKAGED"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
