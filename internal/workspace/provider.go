// Package workspace defines the local directory that task roots live in.
package workspace

// Provider is the interface for workspace file-system access.
type Provider interface {
	// Root returns the absolute workspace directory.
	Root() string
	// Resolve turns a workspace-relative path into an absolute one.
	Resolve(rel string) (string, error)
	// ReadDirNames returns the sorted base names of the entries of dir.
	// dir may be absolute or relative to the workspace root.
	ReadDirNames(dir string) ([]string, error)
}
