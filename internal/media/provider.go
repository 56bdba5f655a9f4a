// Package media owns the stored photo bytes for inspection sessions.
package media

// Provider is the interface for photo byte storage. A stored path is the
// handle a PhotoEvidence record owns; Delete releases it.
type Provider interface {
	// Write atomically writes content to path (relative to the media root).
	Write(path string, content []byte) error
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Delete removes the file at path.
	Delete(path string) error
	// List returns every stored path under dir (relative to the media root).
	List(dir string) ([]string, error)
}
