package suftree

import "os"
import "sync"
import "sync/atomic"


//============================================= StorageProvider
//
// Two implementations: a heap-backed arena and a file-backed, memory-mapped
// arena, both growing by doubling with a floor, following the teacher's
// resizeMmap/determineIfResize/flushRegionToDisk idiom in IOUtils.go and
// Mari.go's initializeFile/FileSize.


//---------------------------------------------- heapStorage


// heapStorage is an in-memory, growable byte arena.
type heapStorage struct {
	mu       sync.RWMutex
	buf      []byte
	size     int64
	disposed atomicBool
	readOnly bool
}

// NewHeapStorage creates a fresh in-memory StorageProvider.
func NewHeapStorage() StorageProvider {
	return &heapStorage{ buf: make([]byte, 0, growthFloor) }
}

func (h *heapStorage) Size() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

func (h *heapStorage) Allocate(n int64) (int64, error) {
	if h.disposed.get() { return 0, errDisposed }
	if n < 0 { return 0, newErr(KindInvalidArgument, "allocate: negative size") }
	if h.readOnly { return 0, newErr(KindInvalidState, "allocate: read-only storage") }

	h.mu.Lock()
	defer h.mu.Unlock()

	start := h.size
	target := h.size + n

	if growErr := h.ensureCapacityLocked(target); growErr != nil { return 0, growErr }

	h.size = target
	return start, nil
}

func (h *heapStorage) EnsureCapacity(c int64) error {
	if h.disposed.get() { return errDisposed }

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ensureCapacityLocked(c)
}

// ensureCapacityLocked grows physical capacity to at least c, doubling from
// the current capacity with a floor, never looping at zero capacity.
func (h *heapStorage) ensureCapacityLocked(c int64) error {
	if int64(cap(h.buf)) >= c { return nil }

	newCap := int64(cap(h.buf))
	if newCap < growthFloor { newCap = growthFloor }

	for newCap < c { newCap *= 2 }

	grown := make([]byte, len(h.buf), newCap)
	copy(grown[:h.size], h.buf[:h.size])
	h.buf = grown

	return nil
}

func (h *heapStorage) TrimToSize() error {
	if h.disposed.get() { return errDisposed }

	h.mu.Lock()
	defer h.mu.Unlock()

	trimmed := make([]byte, h.size)
	copy(trimmed, h.buf[:h.size])
	h.buf = trimmed

	return nil
}

func (h *heapStorage) checkRange(offset, n int64) error {
	if offset < 0 || n < 0 { return newErr(KindOutOfRange, "negative offset or length") }
	if offset+n > h.size { return newErr(KindOutOfRange, "access past logical size") }

	return nil
}

func (h *heapStorage) ReadBytes(offset, n int64) ([]byte, error) {
	if h.disposed.get() { return nil, errDisposed }

	h.mu.RLock()
	defer h.mu.RUnlock()

	if err := h.checkRange(offset, n); err != nil { return nil, err }

	out := make([]byte, n)
	copy(out, h.buf[offset:offset+n])
	return out, nil
}

func (h *heapStorage) WriteBytes(offset int64, data []byte) error {
	if h.disposed.get() { return errDisposed }
	if h.readOnly { return newErr(KindInvalidState, "write: read-only storage") }

	h.mu.Lock()
	defer h.mu.Unlock()

	n := int64(len(data))
	if offset < 0 { return newErr(KindOutOfRange, "negative offset") }
	if offset+n > h.size { return newErr(KindOutOfRange, "write past logical size") }

	copy(h.buf[offset:offset+n], data)
	return nil
}

func (h *heapStorage) ReadI32(offset int64) (int32, error) {
	b, err := h.ReadBytes(offset, 4)
	if err != nil { return 0, err }
	return deserializeI32(b), nil
}

func (h *heapStorage) WriteI32(offset int64, v int32) error {
	return h.WriteBytes(offset, serializeI32(v))
}

func (h *heapStorage) ReadU32(offset int64) (uint32, error) {
	b, err := h.ReadBytes(offset, 4)
	if err != nil { return 0, err }
	return deserializeU32(b), nil
}

func (h *heapStorage) WriteU32(offset int64, v uint32) error {
	return h.WriteBytes(offset, serializeU32(v))
}

func (h *heapStorage) ReadI64(offset int64) (int64, error) {
	b, err := h.ReadBytes(offset, 8)
	if err != nil { return 0, err }
	return deserializeI64(b), nil
}

func (h *heapStorage) WriteI64(offset int64, v int64) error {
	return h.WriteBytes(offset, serializeI64(v))
}

func (h *heapStorage) ReadChar(offset int64) (uint16, error) {
	b, err := h.ReadBytes(offset, 2)
	if err != nil { return 0, err }
	return deserializeChar(b), nil
}

func (h *heapStorage) WriteChar(offset int64, v uint16) error {
	return h.WriteBytes(offset, serializeChar(v))
}

func (h *heapStorage) WriteCompactOffset(offset int64, v int64) error {
	if v < 0 || v > compactMaxAddressable {
		return newErrf(KindInvalidState, "compact offset %d exceeds max addressable %d", v, compactMaxAddressable)
	}

	return h.WriteU32(offset, uint32(v))
}

func (h *heapStorage) ReadOnly() bool { return h.readOnly }

func (h *heapStorage) Dispose() error {
	if !h.disposed.setOnce() { return nil }

	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = nil

	return nil
}

func (h *heapStorage) Disposed() bool { return h.disposed.get() }


//---------------------------------------------- fileStorage


// fileStorage is a file-backed, memory-mapped, growable byte arena.
type fileStorage struct {
	file     *os.File
	data     atomic.Pointer[MMap]
	size     atomic.Int64
	disposed atomicBool
	readOnly bool
	resizeMu sync.Mutex
}

// NewFileStorage opens (creating if necessary) a file-backed StorageProvider.
func NewFileStorage(path string, readOnly bool) (StorageProvider, error) {
	flag := os.O_RDWR | os.O_CREATE
	if readOnly { flag = os.O_RDONLY }

	file, openErr := os.OpenFile(path, flag, 0600)
	if openErr != nil { return nil, wrapErr(KindIoFailure, "open storage file", openErr) }

	fs := &fileStorage{ file: file, readOnly: readOnly }
	fs.data.Store(&MMap{})

	info, statErr := file.Stat()
	if statErr != nil { return nil, wrapErr(KindIoFailure, "stat storage file", statErr) }

	if info.Size() > 0 {
		mode := RDONLY
		if !readOnly { mode = RDWR }

		mapped, mmapErr := Map(file, mode, info.Size())
		if mmapErr != nil { return nil, mmapErr }

		fs.data.Store(&mapped)
		if readOnly { fs.size.Store(info.Size()) }
	}

	return fs, nil
}

func (f *fileStorage) Size() int64 { return f.size.Load() }

func (f *fileStorage) Allocate(n int64) (int64, error) {
	if f.disposed.get() { return 0, errDisposed }
	if n < 0 { return 0, newErr(KindInvalidArgument, "allocate: negative size") }
	if f.readOnly { return 0, newErr(KindInvalidState, "allocate: read-only storage") }

	f.resizeMu.Lock()
	defer f.resizeMu.Unlock()

	start := f.size.Load()
	target := start + n

	if growErr := f.ensureCapacityLocked(target); growErr != nil { return 0, growErr }

	f.size.Store(target)
	return start, nil
}

func (f *fileStorage) EnsureCapacity(c int64) error {
	if f.disposed.get() { return errDisposed }

	f.resizeMu.Lock()
	defer f.resizeMu.Unlock()
	return f.ensureCapacityLocked(c)
}

// ensureCapacityLocked grows the backing file and remaps it, doubling from
// the current physical capacity with a floor. Must be called with resizeMu held.
func (f *fileStorage) ensureCapacityLocked(c int64) error {
	current := f.data.Load()
	if int64(len(*current)) >= c { return nil }

	newCap := int64(len(*current))
	if newCap < growthFloor { newCap = growthFloor }

	for newCap < c { newCap *= 2 }

	if len(*current) > 0 {
		if flushErr := current.Flush(); flushErr != nil { return flushErr }
		if unmapErr := current.Unmap(); unmapErr != nil { return unmapErr }
	}

	if truncErr := f.file.Truncate(newCap); truncErr != nil {
		return wrapErr(KindIoFailure, "truncate storage file", truncErr)
	}

	mapped, mmapErr := Map(f.file, RDWR, newCap)
	if mmapErr != nil { return mmapErr }

	f.data.Store(&mapped)
	return nil
}

func (f *fileStorage) TrimToSize() error {
	if f.disposed.get() { return errDisposed }

	f.resizeMu.Lock()
	defer f.resizeMu.Unlock()

	size := f.size.Load()
	current := f.data.Load()

	if flushErr := current.Flush(); flushErr != nil { return flushErr }
	if unmapErr := current.Unmap(); unmapErr != nil { return unmapErr }

	if truncErr := f.file.Truncate(size); truncErr != nil {
		return wrapErr(KindIoFailure, "trim storage file", truncErr)
	}

	if size == 0 {
		empty := MMap{}
		f.data.Store(&empty)
		return nil
	}

	mode := RDONLY
	if !f.readOnly { mode = RDWR }

	mapped, mmapErr := Map(f.file, mode, size)
	if mmapErr != nil { return mmapErr }

	f.data.Store(&mapped)
	return nil
}

func (f *fileStorage) checkRange(offset, n int64) error {
	if offset < 0 || n < 0 { return newErr(KindOutOfRange, "negative offset or length") }
	if offset+n > f.size.Load() { return newErr(KindOutOfRange, "access past logical size") }

	return nil
}

func (f *fileStorage) ReadBytes(offset, n int64) ([]byte, error) {
	if f.disposed.get() { return nil, errDisposed }
	if err := f.checkRange(offset, n); err != nil { return nil, err }

	data := f.data.Load()
	if data == nil { return nil, errDisposed }

	out := make([]byte, n)
	copy(out, (*data)[offset:offset+n])
	return out, nil
}

func (f *fileStorage) WriteBytes(offset int64, payload []byte) error {
	if f.disposed.get() { return errDisposed }
	if f.readOnly { return newErr(KindInvalidState, "write: read-only storage") }

	n := int64(len(payload))
	if offset < 0 { return newErr(KindOutOfRange, "negative offset") }
	if offset+n > f.size.Load() { return newErr(KindOutOfRange, "write past logical size") }

	data := f.data.Load()
	if data == nil { return errDisposed }

	copy((*data)[offset:offset+n], payload)
	return nil
}

func (f *fileStorage) ReadI32(offset int64) (int32, error) {
	b, err := f.ReadBytes(offset, 4)
	if err != nil { return 0, err }
	return deserializeI32(b), nil
}

func (f *fileStorage) WriteI32(offset int64, v int32) error {
	return f.WriteBytes(offset, serializeI32(v))
}

func (f *fileStorage) ReadU32(offset int64) (uint32, error) {
	b, err := f.ReadBytes(offset, 4)
	if err != nil { return 0, err }
	return deserializeU32(b), nil
}

func (f *fileStorage) WriteU32(offset int64, v uint32) error {
	return f.WriteBytes(offset, serializeU32(v))
}

func (f *fileStorage) ReadI64(offset int64) (int64, error) {
	b, err := f.ReadBytes(offset, 8)
	if err != nil { return 0, err }
	return deserializeI64(b), nil
}

func (f *fileStorage) WriteI64(offset int64, v int64) error {
	return f.WriteBytes(offset, serializeI64(v))
}

func (f *fileStorage) ReadChar(offset int64) (uint16, error) {
	b, err := f.ReadBytes(offset, 2)
	if err != nil { return 0, err }
	return deserializeChar(b), nil
}

func (f *fileStorage) WriteChar(offset int64, v uint16) error {
	return f.WriteBytes(offset, serializeChar(v))
}

func (f *fileStorage) WriteCompactOffset(offset int64, v int64) error {
	if v < 0 || v > compactMaxAddressable {
		return newErrf(KindInvalidState, "compact offset %d exceeds max addressable %d", v, compactMaxAddressable)
	}

	return f.WriteU32(offset, uint32(v))
}

func (f *fileStorage) ReadOnly() bool { return f.readOnly }

// Dispose unmaps and closes the backing file. Idempotent and safe to call
// concurrently with readers: the mapped-data pointer is swapped to nil only
// after the unmap completes, and readers snapshot the pointer locally before
// checking the disposed flag, so a racing reader observes either valid data
// or Disposed, never a half-torn pointer.
func (f *fileStorage) Dispose() error {
	if !f.disposed.setOnce() { return nil }

	var firstErr error

	data := f.data.Load()
	if data != nil && len(*data) > 0 {
		if err := data.Unmap(); err != nil && firstErr == nil { firstErr = err }
	}

	f.data.Store(nil)

	if f.file != nil {
		if err := f.file.Close(); err != nil && firstErr == nil {
			firstErr = wrapErr(KindIoFailure, "close storage file", err)
		}
	}

	return firstErr
}

func (f *fileStorage) Disposed() bool { return f.disposed.get() }
