// ABOUTME: Package documentation for build identification
// ABOUTME: Describes the version constants
// Package version identifies the build.
//
// Example:
//
//	fmt.Printf("%s %s\n", version.Product, version.Version)
package version
