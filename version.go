// Package heatshift provides the version information for heatshift.
package heatshift

// Version is the current version of heatshift.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
