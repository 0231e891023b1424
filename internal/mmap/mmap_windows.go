//go:build windows

package mmap

import (
	"errors"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// region owns the section handle until unmap, together with its view.
type region struct {
	section windows.Handle
	view    uintptr
	size    int
}

func mapRegion(f *os.File, size int) (region, error) {
	section, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return region{}, os.NewSyscallError("CreateFileMapping", err)
	}

	view, err := windows.MapViewOfFile(section, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		_ = windows.CloseHandle(section)
		return region{}, os.NewSyscallError("MapViewOfFile", err)
	}

	return region{section: section, view: view, size: size}, nil
}

func (r region) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(r.view)), r.size)
}

func (r region) unmap() error {
	return errors.Join(
		os.NewSyscallError("UnmapViewOfFile", windows.UnmapViewOfFile(r.view)),
		os.NewSyscallError("CloseHandle", windows.CloseHandle(r.section)),
	)
}
