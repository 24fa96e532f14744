package suftree

import "os"
import "sync/atomic"
import "unicode/utf16"


//============================================= TextSource
//
// Two implementations, per spec.md section 4.2: an owned in-memory buffer
// and a memory-mapped file view. Bounds arithmetic is carried out in int64
// to stay overflow-safe regardless of host int width.


//---------------------------------------------- ownedText


// ownedText is a TextSource backed by an in-memory UTF-16 buffer the caller
// already owns; no I/O, no disposal beyond marking the flag.
type ownedText struct {
	data     []uint16
	disposed atomicBool
}

// NewOwnedText wraps a UTF-16 code unit slice as a TextSource.
func NewOwnedText(data []uint16) TextSource {
	return &ownedText{ data: data }
}

// NewOwnedTextFromString converts a Go string into an owned UTF-16 TextSource.
func NewOwnedTextFromString(s string) TextSource {
	return &ownedText{ data: utf16.Encode([]rune(s)) }
}

func (t *ownedText) Len() int {
	if t.disposed.get() { return 0 }
	return len(t.data)
}

func (t *ownedText) At(i int) (uint16, error) {
	if t.disposed.get() { return 0, errDisposed }
	if i < 0 || i >= len(t.data) { return 0, newErr(KindOutOfRange, "index out of range") }

	return t.data[i], nil
}

func checkedBounds(total, start, length int) error {
	totalW, startW, lengthW := int64(total), int64(start), int64(length)
	if startW < 0 || lengthW < 0 { return newErr(KindOutOfRange, "negative start or length") }

	end := startW + lengthW
	if end < startW { return newErr(KindOutOfRange, "bounds overflow") }
	if end > totalW { return newErr(KindOutOfRange, "bounds past end of text") }

	return nil
}

func (t *ownedText) Substring(start, length int) ([]uint16, error) {
	if t.disposed.get() { return nil, errDisposed }
	if err := checkedBounds(len(t.data), start, length); err != nil { return nil, err }

	out := make([]uint16, length)
	copy(out, t.data[start:start+length])
	return out, nil
}

func (t *ownedText) Slice(start, length int) ([]uint16, error) {
	if t.disposed.get() { return nil, errDisposed }
	if err := checkedBounds(len(t.data), start, length); err != nil { return nil, err }

	return t.data[start : start+length], nil
}

func (t *ownedText) String() (string, error) {
	if t.disposed.get() { return "", errDisposed }
	return string(utf16.Decode(t.data)), nil
}

func (t *ownedText) Dispose() error {
	t.disposed.setOnce()
	return nil
}

func (t *ownedText) Disposed() bool { return t.disposed.get() }


//---------------------------------------------- mmapText


// mmapText is a TextSource backed by its own, independent memory-mapped
// window over a file region holding raw little-endian UTF-16 code units.
// It snapshots its mapped-data pointer into a local before every disposed
// check so a concurrent Dispose() cannot be observed as a half-torn nil.
type mmapText struct {
	full    atomic.Pointer[MMap]
	window  atomic.Pointer[[]byte]
	length  int
	disposed atomicBool
}

// NewMmapTextSource memory-maps length UTF-16 code units (2*length bytes)
// starting at byte offset off within file, independent of any other mapping
// held over the same file.
func NewMmapTextSource(file *os.File, off int64, length int) (TextSource, error) {
	if length == 0 {
		t := &mmapText{ length: 0 }
		empty := MMap{}
		emptyWindow := []byte{}
		t.full.Store(&empty)
		t.window.Store(&emptyWindow)
		return t, nil
	}

	full, window, err := MapAt(file, off, int64(length)*2)
	if err != nil { return nil, err }

	t := &mmapText{ length: length }
	t.full.Store(&full)
	t.window.Store(&window)

	return t, nil
}

func (t *mmapText) Len() int {
	if t.disposed.get() { return 0 }
	return t.length
}

func (t *mmapText) loadWindow() ([]byte, error) {
	w := t.window.Load()
	if t.disposed.get() || w == nil { return nil, errDisposed }

	return *w, nil
}

func (t *mmapText) At(i int) (uint16, error) {
	w, err := t.loadWindow()
	if err != nil { return 0, err }
	if i < 0 || i >= t.length { return 0, newErr(KindOutOfRange, "index out of range") }

	return deserializeChar(w[i*2 : i*2+2]), nil
}

func (t *mmapText) Substring(start, length int) ([]uint16, error) {
	w, err := t.loadWindow()
	if err != nil { return nil, err }
	if err := checkedBounds(t.length, start, length); err != nil { return nil, err }

	out := make([]uint16, length)
	for i := 0; i < length; i++ {
		out[i] = deserializeChar(w[(start+i)*2 : (start+i)*2+2])
	}

	return out, nil
}

func (t *mmapText) Slice(start, length int) ([]uint16, error) {
	// The window is raw little-endian bytes; a true zero-copy []uint16 slice
	// would require unsafe aliasing of the mapping, so Slice here returns a
	// freshly decoded (but not re-mapped or re-read-from-disk) copy.
	return t.Substring(start, length)
}

func (t *mmapText) String() (string, error) {
	w, err := t.loadWindow()
	if err != nil { return "", err }

	runes := make([]uint16, t.length)
	for i := 0; i < t.length; i++ {
		runes[i] = deserializeChar(w[i*2 : i*2+2])
	}

	return string(utf16.Decode(runes)), nil
}

// Dispose releases the mapping before nulling internal state: the unmap
// happens first, then the pointers are cleared, so a concurrent reader that
// snapshotted the pointer before this call either sees the still-valid
// mapping or observes Disposed — never a dangling pointer into unmapped memory.
func (t *mmapText) Dispose() error {
	if !t.disposed.setOnce() { return nil }

	full := t.full.Load()
	var unmapErr error
	if full != nil && len(*full) > 0 { unmapErr = full.Unmap() }

	t.window.Store(nil)
	t.full.Store(nil)

	return unmapErr
}

func (t *mmapText) Disposed() bool { return t.disposed.get() }


//---------------------------------------------- storageText


// storageText is a TextSource reading directly out of a Tree's own arena,
// over the region the builder persisted the text into. It exists so Tree
// never needs a second, independent mapping of the same bytes it already
// holds open via its StorageProvider.
type storageText struct {
	sp     StorageProvider
	offset int64
	length int
}

func newStorageText(sp StorageProvider, offset int64, length int) TextSource {
	return &storageText{ sp: sp, offset: offset, length: length }
}

func (t *storageText) Len() int { return t.length }

func (t *storageText) At(i int) (uint16, error) {
	if i < 0 || i >= t.length { return 0, newErr(KindOutOfRange, "index out of range") }
	return t.sp.ReadChar(t.offset + int64(i)*2)
}

func (t *storageText) Substring(start, length int) ([]uint16, error) {
	if err := checkedBounds(t.length, start, length); err != nil { return nil, err }

	out := make([]uint16, length)
	for i := 0; i < length; i++ {
		ch, err := t.sp.ReadChar(t.offset + int64(start+i)*2)
		if err != nil { return nil, err }
		out[i] = ch
	}

	return out, nil
}

func (t *storageText) Slice(start, length int) ([]uint16, error) { return t.Substring(start, length) }

func (t *storageText) String() (string, error) {
	all, err := t.Substring(0, t.length)
	if err != nil { return "", err }
	return string(utf16.Decode(all)), nil
}

func (t *storageText) Dispose() error { return nil } // lifetime owned by the Tree's StorageProvider

func (t *storageText) Disposed() bool { return t.sp.Disposed() }
