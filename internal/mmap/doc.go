// Package mmap maps files read-only into memory.
//
// NumPy feature matrices are read straight out of the mapping, so loading a
// fold does not copy the raw file through kernel buffers first.
//
//	m, err := mmap.Open("features-000.npy")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
// Callers must not use Bytes after Close returns.
package mmap
