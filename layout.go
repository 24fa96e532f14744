package suftree

import "fmt"


//============================================= NodeLayout & Header
//
// The offset-width decision is encoded as a descriptor object carrying field
// offsets and widths (design notes section 9, "Dual-layout under one
// loader"). The builder picks its starting descriptor below from
// BuilderOptions.Layout; node.go and navigator.go select field offsets and
// widths with a compact flag and the shared constants in types.go.


// nodeLayout describes one of the two node encodings: Compact (v4, 28-byte
// node, u32 offsets) or Large (v3, 40-byte node, i64 offsets).
type nodeLayout struct {
	Version        int32
	NodeSize       int64
	ChildEntrySize int64
	OffsetWidth    int64
	MaxAddressable int64
	NullOffset     int64
}

var compactLayout = nodeLayout{
	Version:        layoutVersionCompact,
	NodeSize:       compactNodeSize,
	ChildEntrySize: compactChildEntrySize,
	OffsetWidth:    4,
	MaxAddressable: compactMaxAddressable,
	NullOffset:     compactNullOffset,
}

var largeLayout = nodeLayout{
	Version:        layoutVersionLarge,
	NodeSize:       largeNodeSize,
	ChildEntrySize: largeChildEntrySize,
	OffsetWidth:    8,
	MaxAddressable: 1<<63 - 1,
	NullOffset:     largeNullOffset,
}

// layoutForVersion picks the node-layout descriptor recorded in a header.
func layoutForVersion(v int32) (*nodeLayout, error) {
	switch v {
	case layoutVersionCompact:
		return &compactLayout, nil
	case layoutVersionLarge:
		return &largeLayout, nil
	default:
		return nil, newErrf(KindCorruption, "unsupported node layout version %d", v)
	}
}

// Layout selects which node-layout version a Builder starts construction
// from. The zero value means "unset" and resolves to LayoutCompact.
type Layout int32

const (
	LayoutCompact Layout = Layout(layoutVersionCompact)
	LayoutLarge   Layout = Layout(layoutVersionLarge)
)

func (l Layout) descriptor() (*nodeLayout, error) {
	if l == 0 { return &compactLayout, nil }
	return layoutForVersion(int32(l))
}


//============================================= Header


// Header is the fixed 80-byte v5 header written at storage offset 0.
// nullable fields (Deepest, Transition, JumpStart, JumpEnd) use -1 for null,
// independent of the node layout's own offset width.
type Header struct {
	NodeVersion int32
	Root        int64
	TotalSize   int64
	TextOffset  int64
	TextLength  int32
	Deepest     int64
	Transition  int64
	JumpStart   int64
	JumpEnd     int64
}

// WriteHeader serializes h into the first headerSize bytes of sp. The
// caller must have already allocated at least headerSize bytes at offset 0.
func WriteHeader(sp StorageProvider, h *Header) error {
	writes := []struct {
		off int64
		v   int64
	}{
		{hdrOffRoot, h.Root},
		{hdrOffSize, h.TotalSize},
		{hdrOffTextOffset, h.TextOffset},
		{hdrOffDeepest, h.Deepest},
		{hdrOffTransition, h.Transition},
		{hdrOffJumpStart, h.JumpStart},
		{hdrOffJumpEnd, h.JumpEnd},
	}

	if err := sp.WriteI64(hdrOffMagic, headerMagic); err != nil { return err }
	if err := sp.WriteI32(hdrOffNodeVersion, h.NodeVersion); err != nil { return err }
	if err := sp.WriteI32(hdrOffReserved1, 0); err != nil { return err }

	for _, w := range writes {
		if err := sp.WriteI64(w.off, w.v); err != nil { return err }
	}

	if err := sp.WriteI32(hdrOffTextLength, h.TextLength); err != nil { return err }
	if err := sp.WriteI32(hdrOffReserved2, 0); err != nil { return err }

	return nil
}

// ReadHeader reads and validates the header at offset 0 of sp, failing on
// the first violation, in this order: storage size (checked before the
// magic, so a truncated store is reported as Corruption rather than as an
// out-of-range read), magic, version, root bounds, text bounds, deepest
// bounds, hybrid field consistency, then the header-recorded total size
// against the storage's logical size.
func ReadHeader(sp StorageProvider) (*Header, error) {
	if sp.Size() < headerSize {
		return nil, newErrf(KindCorruption, "storage too small for header: %d bytes", sp.Size())
	}

	magic, err := sp.ReadI64(hdrOffMagic)
	if err != nil { return nil, err }
	if magic != headerMagic {
		return nil, newErr(KindCorruption, "Magic: bad magic number")
	}

	nodeVersion, err := sp.ReadI32(hdrOffNodeVersion)
	if err != nil { return nil, err }
	if nodeVersion != layoutVersionCompact && nodeVersion != layoutVersionLarge {
		return nil, newErrf(KindCorruption, "version: unsupported node layout version %d", nodeVersion)
	}

	h := &Header{ NodeVersion: nodeVersion }

	h.Root, err = sp.ReadI64(hdrOffRoot)
	if err != nil { return nil, err }

	h.TotalSize, err = sp.ReadI64(hdrOffSize)
	if err != nil { return nil, err }

	h.TextOffset, err = sp.ReadI64(hdrOffTextOffset)
	if err != nil { return nil, err }

	h.TextLength, err = sp.ReadI32(hdrOffTextLength)
	if err != nil { return nil, err }

	h.Deepest, err = sp.ReadI64(hdrOffDeepest)
	if err != nil { return nil, err }

	h.Transition, err = sp.ReadI64(hdrOffTransition)
	if err != nil { return nil, err }

	h.JumpStart, err = sp.ReadI64(hdrOffJumpStart)
	if err != nil { return nil, err }

	h.JumpEnd, err = sp.ReadI64(hdrOffJumpEnd)
	if err != nil { return nil, err }

	storageSize := sp.Size()

	if h.Root < 0 || h.Root >= storageSize {
		return nil, newErrf(KindCorruption, "root: offset %d outside storage bounds [0,%d)", h.Root, storageSize)
	}

	if h.TextLength < 0 {
		return nil, newErr(KindCorruption, "text: negative text length")
	}

	textBytes := 2 * int64(h.TextLength)
	if h.TextOffset < 0 || h.TextOffset+textBytes > storageSize {
		return nil, newErrf(KindCorruption, "text: region [%d,%d) outside storage bounds [0,%d)", h.TextOffset, h.TextOffset+textBytes, storageSize)
	}

	if h.Deepest != -1 && (h.Deepest < 0 || h.Deepest >= storageSize) {
		return nil, newErrf(KindCorruption, "deepest: offset %d outside storage bounds [0,%d)", h.Deepest, storageSize)
	}

	if h.Transition != -1 {
		if h.Transition < 0 || h.Transition > storageSize {
			return nil, newErrf(KindCorruption, "jump: transition offset %d outside storage bounds [0,%d]", h.Transition, storageSize)
		}

		if h.JumpStart == -1 || h.JumpEnd == -1 {
			return nil, newErr(KindCorruption, "jump: transition set but jump table bounds are null")
		}
	}

	if h.JumpStart != -1 || h.JumpEnd != -1 {
		if h.JumpEnd < h.JumpStart {
			return nil, newErrf(KindCorruption, "jump: jump_end %d precedes jump_start %d", h.JumpEnd, h.JumpStart)
		}

		if h.JumpStart < 0 || h.JumpEnd > storageSize {
			return nil, newErrf(KindCorruption, "jump: table [%d,%d) outside storage bounds [0,%d)", h.JumpStart, h.JumpEnd, storageSize)
		}
	}

	if h.TotalSize != storageSize {
		return nil, newErrf(KindCorruption, "size: header size %d does not match storage size %d", h.TotalSize, storageSize)
	}

	return h, nil
}

func (h *Header) String() string {
	return fmt.Sprintf(
		"Header{nodeVersion=%d root=%d size=%d textOff=%d textLen=%d deepest=%d transition=%d jumpStart=%d jumpEnd=%d}",
		h.NodeVersion, h.Root, h.TotalSize, h.TextOffset, h.TextLength, h.Deepest, h.Transition, h.JumpStart, h.JumpEnd,
	)
}
