package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/assocmem/internal/mmap"
)

const tempPrefix = ".pending-"

// LocalStore keeps artifacts in a directory tree.
type LocalStore struct {
	root string
}

// NewLocalStore roots a store at dir. The directory is created on the
// first write.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

// Root returns the store directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open maps the artifact read-only.
func (s *LocalStore) Open(_ context.Context, name string) (Artifact, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	return &mappedArtifact{Reader: bytes.NewReader(m.Bytes()), m: m}, nil
}

// Create stages the artifact in a hidden file next to its final path.
func (s *LocalStore) Create(_ context.Context, name string) (Writer, error) {
	dst := s.path(name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(filepath.Dir(dst), tempPrefix+filepath.Base(dst)+"-*")
	if err != nil {
		return nil, err
	}
	return &stagedFile{File: f, dst: dst}, nil
}

// List walks the tree; pending artifacts are skipped.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil && p == s.root && errors.Is(err, fs.ErrNotExist):
			return fs.SkipAll
		case err != nil:
			return err
		case d.IsDir(), strings.HasPrefix(d.Name(), tempPrefix):
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(names)
	return names, nil
}

type mappedArtifact struct {
	*bytes.Reader
	m *mmap.File
}

// Bytes exposes the mapping; valid until Close.
func (a *mappedArtifact) Bytes() []byte { return a.m.Bytes() }

func (a *mappedArtifact) Close() error { return a.m.Close() }

type stagedFile struct {
	*os.File
	dst string
}

func (f *stagedFile) Commit() error {
	if err := f.File.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), f.dst); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return nil
}

func (f *stagedFile) Discard() error {
	_ = f.File.Close()
	return os.Remove(f.Name())
}
