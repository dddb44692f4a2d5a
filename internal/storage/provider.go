// Package storage indexes the source tree and writes the generated site.
package storage

// Provider reads and writes files relative to a root directory.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Root is the absolute root directory.
	Root() string
}

var _ Provider = (*FS)(nil)
