// Package version provides the build version of adspilot.
package version

import (
	"fmt"
	"strings"
)

// Version is the service current released version.
// Semantic versioning: https://semver.org/
var Version = "0.3.1"

// DevVersion is the service current development version.
var DevVersion = "0.3.1"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

func GetMinorVersion(version string) string {
	versionList := strings.Split(version, ".")
	if len(versionList) < 3 {
		return ""
	}
	return fmt.Sprintf("%s.%s", versionList[0], versionList[1])
}
