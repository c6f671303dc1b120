package core

import "io"

// FileStore persists uploaded files as opaque blobs under category-scoped
// paths (e.g. "justifications/<name>") and serves them back by path. No
// content addressing, no deduplication.
type FileStore interface {
	// Save stores the blob and returns its path relative to the store root.
	Save(category, filename string, content io.Reader) (string, error)
	// Open opens a previously stored blob by the path Save returned.
	Open(path string) (io.ReadCloser, error)
}
