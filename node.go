package suftree

//============================================= Node Records
//
// Fixed-size node record read/write against either layout, following the
// teacher's ReadINodeFromMemMap/WriteINodeToMemMap idiom in Node.go, but
// generalized over two possible field widths instead of one.


// nodeRecord is the decoded, in-memory view of a node read back off the arena.
type nodeRecord struct {
	Offset          int64
	Compact         bool
	EdgeStart       int32
	EdgeEnd         int32
	LeafCount       int32
	ChildrenHeadRaw int64 // raw field value: a direct offset, a jump index, or null
	ChildCount      int
	Jumped          bool
}

func nodeSizeFor(compact bool) int64 {
	if compact { return compactNodeSize }
	return largeNodeSize
}

func childEntrySizeFor(compact bool) int64 {
	if compact { return compactChildEntrySize }
	return largeChildEntrySize
}

// allocateNode reserves one fixed-size node record and writes its edge
// bounds plus null suffix-link/children placeholders.
func allocateNode(sp StorageProvider, compact bool, edgeStart, edgeEnd int32) (int64, error) {
	offset, err := sp.Allocate(nodeSizeFor(compact))
	if err != nil { return 0, err }

	if err := writeNodeFixed(sp, offset, compact, edgeStart, edgeEnd); err != nil { return 0, err }
	return offset, nil
}

// writeNodeFixed writes edge bounds and resets suffix-link/children fields
// to their null state. Suffix links are never meaningfully persisted: they
// exist only for the in-memory construction pass (spec.md section 3.1,
// "used only during build"), so every on-disk record simply carries null.
func writeNodeFixed(sp StorageProvider, offset int64, compact bool, edgeStart, edgeEnd int32) error {
	if compact {
		if err := sp.WriteI32(offset+cnOffEdgeStart, edgeStart); err != nil { return err }
		if err := sp.WriteI32(offset+cnOffEdgeEnd, edgeEnd); err != nil { return err }
		if err := sp.WriteI32(offset+cnOffLeafCount, 0); err != nil { return err }
		if err := sp.WriteU32(offset+cnOffSuffixLink, uint32(compactNullOffset)); err != nil { return err }
		if err := sp.WriteU32(offset+cnOffChildrenHead, uint32(compactNullOffset)); err != nil { return err }
		if err := sp.WriteU32(offset+cnOffChildCount, 0); err != nil { return err }
		return sp.WriteU32(offset+cnOffReserved, 0)
	}

	if err := sp.WriteI32(offset+lnOffEdgeStart, edgeStart); err != nil { return err }
	if err := sp.WriteI32(offset+lnOffEdgeEnd, edgeEnd); err != nil { return err }
	if err := sp.WriteI32(offset+lnOffLeafCount, 0); err != nil { return err }
	if err := sp.WriteI32(offset+lnOffReserved, 0); err != nil { return err }
	if err := sp.WriteI64(offset+lnOffSuffixLink, largeNullOffset); err != nil { return err }
	if err := sp.WriteI64(offset+lnOffChildrenHead, largeNullOffset); err != nil { return err }
	if err := sp.WriteU32(offset+lnOffChildCount, 0); err != nil { return err }
	return sp.WriteU32(offset+lnOffReserved2, 0)
}

func writeLeafCount(sp StorageProvider, offset int64, compact bool, leafCount int32) error {
	if compact { return sp.WriteI32(offset+cnOffLeafCount, leafCount) }
	return sp.WriteI32(offset+lnOffLeafCount, leafCount)
}

// writeChildrenPointer patches a node's children_head/child_count fields.
// storedValue is either a direct arena offset (jumped == false) or a jump
// table index (jumped == true); -1 means "no children".
func writeChildrenPointer(sp StorageProvider, nodeOffset int64, compact bool, storedValue int64, childCount int, jumped bool) error {
	cc := uint32(childCount) & childCountMask
	if jumped { cc |= jumpedFlag }

	if compact {
		if err := sp.WriteU32(nodeOffset+cnOffChildCount, cc); err != nil { return err }

		if jumped { return sp.WriteU32(nodeOffset+cnOffChildrenHead, uint32(storedValue)) }
		if storedValue == -1 { return sp.WriteU32(nodeOffset+cnOffChildrenHead, uint32(compactNullOffset)) }

		return sp.WriteCompactOffset(nodeOffset+cnOffChildrenHead, storedValue)
	}

	if err := sp.WriteU32(nodeOffset+lnOffChildCount, cc); err != nil { return err }

	val := storedValue
	if val == -1 { val = largeNullOffset }

	return sp.WriteI64(nodeOffset+lnOffChildrenHead, val)
}

// readNodeRecord decodes the fixed portion of a node record at offset,
// assuming it was written using the given layout width.
func readNodeRecord(sp StorageProvider, offset int64, compact bool) (*nodeRecord, error) {
	rec := &nodeRecord{ Offset: offset, Compact: compact }

	var err error

	if compact {
		rec.EdgeStart, err = sp.ReadI32(offset + cnOffEdgeStart)
		if err != nil { return nil, err }

		rec.EdgeEnd, err = sp.ReadI32(offset + cnOffEdgeEnd)
		if err != nil { return nil, err }

		rec.LeafCount, err = sp.ReadI32(offset + cnOffLeafCount)
		if err != nil { return nil, err }

		headRaw, hErr := sp.ReadU32(offset + cnOffChildrenHead)
		if hErr != nil { return nil, hErr }

		ccRaw, cErr := sp.ReadU32(offset + cnOffChildCount)
		if cErr != nil { return nil, cErr }

		rec.Jumped = ccRaw&jumpedFlag != 0
		rec.ChildCount = int(ccRaw & childCountMask)

		if rec.Jumped {
			rec.ChildrenHeadRaw = int64(headRaw)
		} else if headRaw == uint32(compactNullOffset) {
			rec.ChildrenHeadRaw = -1
		} else {
			rec.ChildrenHeadRaw = int64(headRaw)
		}

		return rec, nil
	}

	rec.EdgeStart, err = sp.ReadI32(offset + lnOffEdgeStart)
	if err != nil { return nil, err }

	rec.EdgeEnd, err = sp.ReadI32(offset + lnOffEdgeEnd)
	if err != nil { return nil, err }

	rec.LeafCount, err = sp.ReadI32(offset + lnOffLeafCount)
	if err != nil { return nil, err }

	headRaw, hErr := sp.ReadI64(offset + lnOffChildrenHead)
	if hErr != nil { return nil, hErr }

	ccRaw, cErr := sp.ReadU32(offset + lnOffChildCount)
	if cErr != nil { return nil, cErr }

	rec.Jumped = ccRaw&jumpedFlag != 0
	rec.ChildCount = int(ccRaw & childCountMask)
	rec.ChildrenHeadRaw = headRaw

	return rec, nil
}


//============================================= Child Arrays


func allocateChildArray(sp StorageProvider, compact bool, n int) (int64, error) {
	return sp.Allocate(childEntrySizeFor(compact) * int64(n))
}

func writeChildEntry(sp StorageProvider, arrayOffset int64, idx int, compact bool, key uint16, childOffset int64) error {
	entryOffset := arrayOffset + int64(idx)*childEntrySizeFor(compact)

	if err := sp.WriteU32(entryOffset, uint32(key)); err != nil { return err }

	if compact { return sp.WriteCompactOffset(entryOffset+4, childOffset) }
	return sp.WriteI64(entryOffset+4, childOffset)
}

func readChildEntry(sp StorageProvider, arrayOffset int64, idx int, compact bool) (key uint16, childOffset int64, err error) {
	entryOffset := arrayOffset + int64(idx)*childEntrySizeFor(compact)

	k, kErr := sp.ReadU32(entryOffset)
	if kErr != nil { return 0, 0, kErr }

	if compact {
		v, vErr := sp.ReadU32(entryOffset + 4)
		if vErr != nil { return 0, 0, vErr }

		if v == uint32(compactNullOffset) { return uint16(k), -1, nil }
		return uint16(k), int64(v), nil
	}

	v, vErr := sp.ReadI64(entryOffset + 4)
	if vErr != nil { return 0, 0, vErr }

	return uint16(k), v, nil
}
