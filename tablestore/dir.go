package tablestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lexgen/lexgen/automaton"
)

// DirStore keeps one JSON document per digest in a directory.
type DirStore struct {
	dir string
}

// NewDirStore creates the directory if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating table directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (d *DirStore) path(digest string) string {
	return filepath.Join(d.dir, digest+".json")
}

// Get reads the document for digest.
func (d *DirStore) Get(ctx context.Context, digest string) (*automaton.Document, bool, error) {
	if err := checkDigest(digest); err != nil {
		return nil, false, err
	}
	f, err := os.Open(d.path(digest))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening table %s: %w", digest, err)
	}
	defer f.Close()

	doc, err := automaton.Decode(f, "json")
	if err != nil {
		return nil, false, fmt.Errorf("reading table %s: %w", digest, err)
	}
	return doc, true, nil
}

// Put writes the document through a temporary file so readers never see
// a partial write.
func (d *DirStore) Put(ctx context.Context, digest string, doc *automaton.Document) error {
	if err := checkDigest(digest); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.dir, digest+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing table %s: %w", digest, err)
	}
	defer os.Remove(tmp.Name())

	if err := automaton.Encode(tmp, doc, "json"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing table %s: %w", digest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing table %s: %w", digest, err)
	}
	if err := os.Rename(tmp.Name(), d.path(digest)); err != nil {
		return fmt.Errorf("writing table %s: %w", digest, err)
	}
	return nil
}

// Close is a no-op.
func (d *DirStore) Close() error {
	return nil
}
