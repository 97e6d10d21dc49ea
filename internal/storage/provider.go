// Package storage persists the rule and note collections under the pile
// directory.
package storage

// Provider is the interface for raw file operations under the pile root.
// Paths are relative to the root.
type Provider interface {
	// Read returns the raw bytes of the file at path. A missing file is
	// reported with an error satisfying errors.Is(err, fs.ErrNotExist).
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root returns the absolute directory the provider is rooted at.
	Root() string
}
