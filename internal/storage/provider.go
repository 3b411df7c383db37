// Package storage defines the store file-system abstraction.
package storage

// Provider is the interface for worklog store file operations. Paths are
// relative to the store root. The chain is append-only, so there are no
// delete or rename verbs: entry files are written once and never touched
// again.
type Provider interface {
	// List returns the names of the regular files directly under dir.
	List(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, replacing any existing file.
	Write(path string, content []byte) error
	// WriteNew writes content to path and fails if the file already exists.
	WriteNew(path string, content []byte) error
	// Append appends content to the existing file at path.
	Append(path string, content []byte) error
}
