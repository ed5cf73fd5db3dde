package blob

import "io"

// Store is the byte-storage collaborator. Handles are opaque generated names;
// the store never interprets them beyond addressing.
type Store interface {
	// Put streams the content under the given handle and returns the number
	// of bytes written.
	Put(handle string, r io.Reader) (int64, error)
	// Delete removes the content. Deleting an absent handle is not an error.
	Delete(handle string) error
	// Open returns the content for reading.
	Open(handle string) (io.ReadCloser, error)
	// PublicURL returns the URL path under which the content is served.
	PublicURL(handle string) string
	// Exists reports whether the handle currently has content.
	Exists(handle string) bool
}
