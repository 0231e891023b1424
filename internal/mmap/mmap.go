package mmap

import (
	"fmt"
	"math"
	"os"
)

// File is a read-only mapping. The file descriptor is released as soon as
// the mapping exists; only the mapping itself lives until Close.
type File struct {
	data   []byte
	region *region
}

// Open maps path read-only. An empty file yields an empty File without a
// mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	switch {
	case size == 0:
		return &File{}, nil
	case size > math.MaxInt:
		return nil, fmt.Errorf("mmap: %s is too large to map (%d bytes)", path, size)
	}

	r, err := mapRegion(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap: %s: %w", path, err)
	}

	return &File{data: r.bytes(), region: &r}, nil
}

// Bytes returns the mapped contents. The slice is valid until Close.
func (m *File) Bytes() []byte { return m.data }

// Size returns the mapped length in bytes.
func (m *File) Size() int { return len(m.data) }

// Close unmaps the file. Calling it again is a no-op.
func (m *File) Close() error {
	if m == nil || m.region == nil {
		return nil
	}
	r := m.region
	m.data, m.region = nil, nil
	return r.unmap()
}
