package techninja

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed VERSION
var version string

// Version is the release of this module.
var Version = strings.TrimSpace(version)

const (
	// Build is the build stamp shown in the footer of every front-end.
	Build = "2025-03-16"
	// DataVersion is the revision of the machine data format this build expects.
	DataVersion = "0.4"
)

// Stamp returns the one-line version banner.
func Stamp() string {
	return fmt.Sprintf("TechNinja • Build %s • Data v%s", Build, DataVersion)
}
