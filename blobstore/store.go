package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
)

// ErrNotFound is returned when an artifact does not exist.
//
// Implementations return an error satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// ErrDiscarded is the error a backend upload observes when its Writer is
// discarded.
var ErrDiscarded = errors.New("blobstore: artifact discarded")

// Store holds run artifacts under slash-separated names such as
// "memories-000.csv" or "bank-002-009.amrm".
type Store interface {
	// Open returns a reader over the whole artifact.
	Open(ctx context.Context, name string) (Artifact, error)

	// Create starts a new artifact. Nothing is visible under name until
	// Commit succeeds; Discard drops what was written.
	Create(ctx context.Context, name string) (Writer, error)

	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Artifact is an open, read-only artifact.
type Artifact interface {
	io.ReadCloser

	// Size returns the artifact length in bytes.
	Size() int64
}

// Writer is a pending artifact. Exactly one of Commit or Discard must be
// called.
type Writer interface {
	io.Writer
	Commit() error
	Discard() error
}

// ContentType returns the MIME type uploads are tagged with.
func ContentType(name string) string {
	switch path.Ext(name) {
	case ".csv":
		return "text/csv"
	case ".toml":
		return "application/toml"
	case ".npy":
		return "application/x-npy"
	default:
		return "application/octet-stream"
	}
}

// ReadAll returns the content of an artifact.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	a, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	if m, ok := a.(interface{ Bytes() []byte }); ok {
		return bytes.Clone(m.Bytes()), nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, a.Size()))
	if _, err := buf.ReadFrom(a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile creates name, fills it with fn and commits it. The artifact is
// discarded when fn or the commit fails.
func WriteFile(ctx context.Context, s Store, name string, fn func(io.Writer) error) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}

	if err := fn(w); err != nil {
		return errors.Join(err, w.Discard())
	}
	return w.Commit()
}
