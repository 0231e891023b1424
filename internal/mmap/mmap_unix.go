//go:build !windows

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

type region struct {
	b []byte
}

func mapRegion(f *os.File, size int) (region, error) {
	b, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return region{}, os.NewSyscallError("mmap", err)
	}
	// Only tunes read-ahead; NPY payloads are decoded front to back.
	_ = unix.Madvise(b, unix.MADV_SEQUENTIAL)
	return region{b: b}, nil
}

func (r region) bytes() []byte { return r.b }

func (r region) unmap() error {
	return os.NewSyscallError("munmap", unix.Munmap(r.b))
}
