package suftree

import "sort"


//============================================= Navigator
//
// The only place raw arena offsets are dereferenced for query purposes.
// Everything above this layer (tree.go) deals in resolved childEdge values,
// never in raw offsets, mirroring the teacher's own loadINodeFromPointer /
// storeINodeAsPointer boundary in Node.go between "pointer as stored
// representation" and "pointer as resolved in-memory node".


// childEdge is one resolved entry of a node's child array: the key and the
// offset of the child node it leads to.
type childEdge struct {
	Key    uint16
	Offset int64
}

// navigator resolves node and child-array offsets against a loaded header,
// hiding the jump-table indirection used by hybrid-promoted trees.
type navigator struct {
	sp         StorageProvider
	startsCompact bool  // false for a tree built in Large layout from the start
	transition int64 // -1 if the tree never transitioned
	jumpStart  int64 // base offset of the jump table; -1 if there is none
}

func newNavigator(sp StorageProvider, h *Header) *navigator {
	return &navigator{ sp: sp, startsCompact: h.NodeVersion == layoutVersionCompact, transition: h.Transition, jumpStart: h.JumpStart }
}

// isCompact reports whether the node record at offset was written using the
// Compact layout. Node records never move once written, so this is a pure
// function of offset against the recorded layout version and transition point.
func (n *navigator) isCompact(offset int64) bool {
	if !n.startsCompact { return false }
	return n.transition == -1 || offset < n.transition
}

func (n *navigator) readNode(offset int64) (*nodeRecord, error) {
	return readNodeRecord(n.sp, offset, n.isCompact(offset))
}

// childArrayLocation resolves a node's children_head field into a concrete
// arena offset and the format of the array stored there. A jumped Compact
// node's children_head is an index into the jump table; every other case is
// already a direct offset.
func (n *navigator) childArrayLocation(rec *nodeRecord) (offset int64, arrayCompact bool, err error) {
	if rec.ChildrenHeadRaw == -1 { return -1, false, nil }

	if rec.Compact && rec.Jumped {
		jumpOffset := n.jumpTableEntryOffset(rec.ChildrenHeadRaw)
		real, readErr := n.sp.ReadI64(jumpOffset)
		if readErr != nil { return 0, false, readErr }

		return real, false, nil
	}

	if rec.Compact { return rec.ChildrenHeadRaw, true, nil }

	return rec.ChildrenHeadRaw, false, nil
}

func (n *navigator) jumpTableEntryOffset(index int64) int64 {
	return n.jumpStart + index*8
}

// children returns every (key, childOffset) pair of a node, in sorted order.
func (n *navigator) children(rec *nodeRecord) ([]childEdge, error) {
	if rec.ChildCount == 0 { return nil, nil }

	arrayOffset, arrayCompact, err := n.childArrayLocation(rec)
	if err != nil { return nil, err }

	out := make([]childEdge, rec.ChildCount)
	for i := 0; i < rec.ChildCount; i++ {
		key, childOffset, readErr := readChildEntry(n.sp, arrayOffset, i, arrayCompact)
		if readErr != nil { return nil, readErr }

		out[i] = childEdge{ Key: key, Offset: childOffset }
	}

	return out, nil
}

// findChild looks up a single child by key using a sorted binary search over
// the resolved child array.
func (n *navigator) findChild(rec *nodeRecord, key uint16) (int64, bool, error) {
	if rec.ChildCount == 0 { return 0, false, nil }

	arrayOffset, arrayCompact, err := n.childArrayLocation(rec)
	if err != nil { return 0, false, err }

	lo, hi := 0, rec.ChildCount-1
	for lo <= hi {
		mid := (lo + hi) / 2

		k, childOffset, readErr := readChildEntry(n.sp, arrayOffset, mid, arrayCompact)
		if readErr != nil { return 0, false, readErr }

		switch {
		case k == key:
			return childOffset, true, nil
		case k < key:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}

	return 0, false, nil
}

// sortChildEdges sorts edges by key. Nothing in the package calls it: the
// builder's buildNode keeps children sorted incrementally, so serialized
// child arrays are already in key order.
func sortChildEdges(edges []childEdge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].Key < edges[j].Key })
}
