//go:build linux || darwin

package suftree

import "os"
import "syscall"

import "golang.org/x/sys/unix"


//============================================= MMap
//
// A thin mmap wrapper in the teacher's own idiom: mari.MMap is a []byte with
// Flush/Unmap methods, obtained via mari.Map(file, flag, size). The teacher's
// own implementation file for this wasn't present in the retrieval pack, but
// its public shape is pinned by tests/MMap_test.go, which calls exactly this
// shape. Reimplemented here directly against golang.org/x/sys/unix, the
// teacher's own declared mmap dependency.


// MMap is the byte-slice view of a memory mapped region.
type MMap []byte

const (
	// RDONLY maps memory read-only; writes are rejected by the OS.
	RDONLY = 0
	// RDWR maps memory read-write; writes propagate to the backing file.
	RDWR = 1 << iota
)

// Map memory-maps the given file starting at offset 0 for length bytes.
// If length is 0, the current file size is used.
func Map(file *os.File, mode int, length int64) (MMap, error) {
	if length == 0 {
		info, statErr := file.Stat()
		if statErr != nil { return nil, wrapErr(KindIoFailure, "stat file for mmap", statErr) }

		length = info.Size()
	}

	if length == 0 { return MMap{}, nil }

	prot := unix.PROT_READ
	if mode&RDWR != 0 { prot |= unix.PROT_WRITE }

	data, mmapErr := unix.Mmap(int(file.Fd()), 0, int(length), prot, unix.MAP_SHARED)
	if mmapErr != nil { return nil, wrapErr(KindIoFailure, "mmap", mmapErr) }

	return MMap(data), nil
}

// MapAt memory-maps a page-aligned window of file covering [offset, offset+length)
// for read-only access, returning the mapping and the slice within it that
// corresponds exactly to [offset, offset+length).
func MapAt(file *os.File, offset, length int64) (full MMap, window []byte, err error) {
	pageSize := int64(os.Getpagesize())
	aligned := offset - (offset % pageSize)
	pad := offset - aligned

	mapLen := pad + length
	if mapLen == 0 { return MMap{}, nil, nil }

	data, mmapErr := unix.Mmap(int(file.Fd()), aligned, int(mapLen), unix.PROT_READ, unix.MAP_SHARED)
	if mmapErr != nil { return nil, nil, wrapErr(KindIoFailure, "mmap window", mmapErr) }

	return MMap(data), data[pad : pad+length], nil
}

// Flush synchronizes the mapped region back to the backing file.
func (m MMap) Flush() error {
	if len(m) == 0 { return nil }

	flushErr := unix.Msync([]byte(m), unix.MS_SYNC)
	if flushErr != nil { return wrapErr(KindIoFailure, "msync", flushErr) }

	return nil
}

// Unmap releases the mapping.
func (m MMap) Unmap() error {
	if len(m) == 0 { return nil }

	unmapErr := unix.Munmap([]byte(m))
	if unmapErr != nil && unmapErr != syscall.EINVAL {
		return wrapErr(KindIoFailure, "munmap", unmapErr)
	}

	return nil
}
