// Package files stores uploaded blobs on local disk under category-scoped
// paths. Blobs are opaque: no content addressing, no deduplication.
package files

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

type diskStore struct {
	root string
}

var _ core.FileStore = (*diskStore)(nil)

func NewDiskStore(root string) (core.FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media root")
	}
	return &diskStore{root: root}, nil
}

func (s *diskStore) Save(category, filename string, content io.Reader) (string, error) {
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating category dir")
	}

	// a random prefix keeps same-named uploads from clobbering each other
	name := uuid.New().String() + "-" + sanitize(filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating blob")
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, content); err != nil {
		return "", errors.Wrap(err, "writing blob")
	}
	return filepath.ToSlash(filepath.Join(category, name)), nil
}

func (s *diskStore) Open(path string) (io.ReadCloser, error) {
	// stored paths are relative to the root; refuse traversal
	clean := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, errors.New("invalid blob path")
	}
	f, err := os.Open(filepath.Join(s.root, clean))
	if err != nil {
		return nil, errors.Wrap(err, "opening blob")
	}
	return f, nil
}

func sanitize(filename string) string {
	name := filepath.Base(filepath.Clean(filename))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
