// Package buildtime carries the version stamp of the binary.
//
// Release builds set the variables through the linker:
//
//	go build -ldflags "\
//	  -X github.com/veloxq/veloxq-go/pkg/buildtime.version=v1.0.0 \
//	  -X github.com/veloxq/veloxq-go/pkg/buildtime.revision=0123abc"
package buildtime

var (
	version  = "dev"
	revision = "unknown"
)

// Version set at build time, "dev" for ad-hoc builds.
func Version() string {
	return version
}

// Revision of the source the binary was built from.
func Revision() string {
	return revision
}

// VersionString renders version and revision for human eyes.
func VersionString() string {
	return version + " (commit: " + revision + ")"
}
