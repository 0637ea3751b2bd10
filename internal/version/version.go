// ABOUTME: Build identification constants
// ABOUTME: Reported in logs and the command line banner
package version

// Version is overridden at link time with -ldflags "-X".
var Version = "0.1.0"

const (
	Product      = "asiodirect"
	Manufacturer = "Resonate"
)
