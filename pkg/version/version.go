// Package version provides the cq tool version.
package version

// Version is the cq tool version.
// Can be overridden at build time with:
//   go build -ldflags "-X github.com/codequotient/cq/pkg/version.Version=0.2.0"
var Version = "0.1.0"
