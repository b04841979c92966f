package version

// Version is the service version, overridden at build time with
// -ldflags "-X github.com/hrygo/homepref/internal/version.Version=...".
var Version = "1.0.0"

// DevVersion is reported in dev and demo modes.
var DevVersion = "1.0.0-dev"

// GetCurrentVersion returns the version for the given profile mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}
