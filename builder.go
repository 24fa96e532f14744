package suftree

//============================================= Builder
//
// Ukkonen's algorithm builds the tree as an in-memory pointer structure
// first (the classic active-point / remaining-suffix presentation), then a
// single post-order walk serializes it into the arena, choosing Compact or
// Large layout as it goes and handling hybrid promotion. Keeping the
// algorithm itself in plain Go pointers -- rather than threading arena
// offsets through every step of the online construction -- follows the
// teacher's own separation between building a path in memory
// (SerializePathToMemMap's caller) and writing it out (serializeRecursive).


//---------------------------------------------- in-memory construction


// buildNode is one node of the in-memory tree produced by Ukkonen's
// algorithm, before serialization. children is kept sorted by key at all
// times via linear insertion, mirroring the on-disk child array's own
// sorted-linear-insert convention.
type buildNode struct {
	start      int
	end        *int // shared pointer for open leaves; a private int for internal nodes
	children   []buildChildEdge
	suffixLink *buildNode
	isLeaf     bool

	leafCount int // filled in during the serialize walk
}

type buildChildEdge struct {
	key  uint16
	node *buildNode
}

func (n *buildNode) edgeLength() int { return *n.end - n.start }

func (n *buildNode) findChild(key uint16) *buildNode {
	for _, c := range n.children {
		if c.key == key { return c.node }
	}
	return nil
}

// insertChild inserts or replaces a child, keeping n.children sorted by key.
func (n *buildNode) insertChild(key uint16, child *buildNode) {
	for i, c := range n.children {
		if c.key == key {
			n.children[i].node = child
			return
		}
		if c.key > key {
			n.children = append(n.children, buildChildEdge{})
			copy(n.children[i+1:], n.children[i:])
			n.children[i] = buildChildEdge{ key: key, node: child }
			return
		}
	}
	n.children = append(n.children, buildChildEdge{ key: key, node: child })
}

func newLeaf(start int, globalEnd *int) *buildNode {
	return &buildNode{ start: start, end: globalEnd, isLeaf: true }
}

func newInternal(start, end int) *buildNode {
	e := end
	return &buildNode{ start: start, end: &e }
}

// ukkonenBuild runs Ukkonen's online construction over text (which must
// already include the trailing sentinel) and returns the root of the
// resulting in-memory tree.
func ukkonenBuild(text []uint16) *buildNode {
	root := &buildNode{ start: -1, end: new(int) }
	root.suffixLink = root

	globalEnd := new(int)
	*globalEnd = -1

	activeNode := root
	activeEdge := -1
	activeLength := 0
	remaining := 0

	var lastNewNode *buildNode

	for pos := 0; pos < len(text); pos++ {
		*globalEnd = pos + 1
		remaining++
		lastNewNode = nil

		for remaining > 0 {
			if activeLength == 0 { activeEdge = pos }

			edgeKey := text[activeEdge]
			child := activeNode.findChild(edgeKey)

			if child == nil {
				leaf := newLeaf(pos, globalEnd)
				activeNode.insertChild(edgeKey, leaf)

				if lastNewNode != nil {
					lastNewNode.suffixLink = activeNode
					lastNewNode = nil
				}
			} else {
				edgeLen := child.edgeLength()

				if activeLength >= edgeLen {
					activeEdge += edgeLen
					activeLength -= edgeLen
					activeNode = child
					continue
				}

				if text[child.start+activeLength] == text[pos] {
					if lastNewNode != nil && activeNode != root {
						lastNewNode.suffixLink = activeNode
						lastNewNode = nil
					}
					activeLength++
					break
				}

				splitEnd := child.start + activeLength
				split := newInternal(child.start, splitEnd)
				split.suffixLink = root
				activeNode.insertChild(edgeKey, split)

				newLeafNode := newLeaf(pos, globalEnd)
				split.insertChild(text[pos], newLeafNode)

				child.start = splitEnd
				split.insertChild(text[child.start], child)

				if lastNewNode != nil { lastNewNode.suffixLink = split }
				lastNewNode = split
			}

			remaining--

			if activeNode == root && activeLength > 0 {
				activeLength--
				activeEdge = pos - remaining + 1
			} else if activeNode != root {
				activeNode = activeNode.suffixLink
			}
		}
	}

	return root
}


//---------------------------------------------- serialization


// pendingJump records a Compact node whose children_head needs a jump-table
// entry, deferred until the whole tree is written so the jump table itself
// can be allocated as one contiguous block at the very end.
type pendingJump struct {
	nodeOffset  int64
	arrayOffset int64
}

type serializeState struct {
	sp            StorageProvider
	useLayout     *nodeLayout // the layout chosen by BuilderOptions before any overflow
	compactLimit  int64       // 0 means unlimited
	allowPromote  bool
	transition    int64 // -1 until a transition actually occurs
	pendingJumps  []pendingJump
	deepestOffset int64
	deepestDepth  int
	pool          *nodePool
}

// currentlyCompact reports whether the NEXT allocation (of size n, about to
// start at the current tail) should use Compact format.
func (s *serializeState) currentlyCompact(n int64) (bool, error) {
	if s.useLayout.Version == layoutVersionLarge { return false, nil }
	if s.transition != -1 { return false, nil }

	tail := s.sp.Size()

	if s.compactLimit > 0 && tail+n > s.compactLimit {
		if !s.allowPromote {
			return false, newErr(KindCompactOverflow, "compact offset limit exceeded")
		}

		s.transition = tail
		return false, nil
	}

	return true, nil
}

// serializeNode writes one subtree to the arena and returns its offset,
// while accumulating leaf counts and the deepest-internal-node candidate.
// isRoot is true only for the very first call: the root carries no incoming
// edge, so its own edge length never contributes to character depth.
func (s *serializeState) serializeNode(n *buildNode, depth int, isRoot bool) (int64, error) {
	compact, err := s.currentlyCompact(compactNodeSize)
	if err != nil { return 0, err }

	offset, err := allocateNode(s.sp, compact, int32(n.start), int32(*n.end))
	if err != nil { return 0, err }

	if n.isLeaf {
		n.leafCount = 1
		if err := writeLeafCount(s.sp, offset, compact, 1); err != nil { return 0, err }
		return offset, nil
	}

	childOffsets := s.pool.getOffsets(len(n.children))
	defer s.pool.putOffsets(childOffsets)

	leafTotal := 0

	charDepth := depth
	if !isRoot { charDepth = depth + n.edgeLength() }

	for i, edge := range n.children {
		childOffset, cErr := s.serializeNode(edge.node, charDepth, false)
		if cErr != nil { return 0, cErr }

		childOffsets[i] = childOffset
		leafTotal += edge.node.leafCount
	}

	n.leafCount = leafTotal

	if charDepth > s.deepestDepth || s.deepestOffset == -1 {
		s.deepestOffset = offset
		s.deepestDepth = charDepth
	}

	if err := writeLeafCount(s.sp, offset, compact, int32(leafTotal)); err != nil { return 0, err }

	if len(n.children) == 0 {
		if err := writeChildrenPointer(s.sp, offset, compact, -1, 0, false); err != nil { return 0, err }
		return offset, nil
	}

	arrayCompact, aErr := s.currentlyCompact(childEntrySizeFor(true) * int64(len(n.children)))
	if aErr != nil { return 0, aErr }

	arrayOffset, allocErr := allocateChildArray(s.sp, arrayCompact, len(n.children))
	if allocErr != nil { return 0, allocErr }

	for i, edge := range n.children {
		if wErr := writeChildEntry(s.sp, arrayOffset, i, arrayCompact, edge.key, childOffsets[i]); wErr != nil { return 0, wErr }
	}

	// A Compact node whose array ended up written in Large format (the tree
	// transitioned somewhere during this node's own children) cannot address
	// that array directly: its children_head field is only 4 bytes wide.
	if compact && !arrayCompact {
		s.pendingJumps = append(s.pendingJumps, pendingJump{ nodeOffset: offset, arrayOffset: arrayOffset })
		// children_head is patched with the real jump index once the jump
		// table itself is allocated, after the whole tree is written.
		if err := writeChildrenPointer(s.sp, offset, compact, 0, len(n.children), true); err != nil { return 0, err }
		return offset, nil
	}

	if err := writeChildrenPointer(s.sp, offset, compact, arrayOffset, len(n.children), false); err != nil { return 0, err }
	return offset, nil
}


//---------------------------------------------- public surface


// BuilderOptions configures a Builder's layout policy.
type BuilderOptions struct {
	// Layout is the node layout to start from. Zero value defaults to Compact.
	Layout Layout
	// CompactOffsetLimit bounds how far the Compact zone may grow before
	// promotion (or overflow, if AllowHybridPromotion is false). Zero means
	// unlimited -- the tree never needs to leave Compact format.
	CompactOffsetLimit int64
	// AllowHybridPromotion, when true, lets the builder transition to Large
	// mid-build via the jump table instead of failing with KindCompactOverflow.
	AllowHybridPromotion bool
	// ProgressFunc, if set, is called twice: with 0 before construction
	// starts and with the text length once the tree is serialized. It is not
	// called during the construction pass itself.
	ProgressFunc func(consumed int)
}

// Builder runs Ukkonen's algorithm once against a TextSource and serializes
// the result into a StorageProvider. A Builder may only be used once.
type Builder struct {
	storage StorageProvider
	text    TextSource
	opts    BuilderOptions
	used    atomicBool
}

// NewBuilder creates a Builder over storage (which must be empty) and text.
func NewBuilder(storage StorageProvider, text TextSource, opts BuilderOptions) *Builder {
	if opts.Layout == 0 { opts.Layout = LayoutCompact }
	return &Builder{ storage: storage, text: text, opts: opts }
}

// Build runs construction to completion and returns a read-only Tree backed
// by storage. It may be called at most once per Builder.
func (b *Builder) Build() (*Tree, error) {
	if !b.used.setOnce() {
		return nil, newErr(KindInvalidState, "builder already used")
	}

	n := b.text.Len()

	raw := make([]uint16, n, n+1)
	if n > 0 {
		chunk, err := b.text.Substring(0, n)
		if err != nil { return nil, err }
		copy(raw, chunk)
	}
	raw = append(raw, terminatorChar)

	if b.opts.ProgressFunc != nil { b.opts.ProgressFunc(0) }

	root := ukkonenBuild(raw)

	layout, err := b.opts.Layout.descriptor()
	if err != nil { return nil, err }

	if _, err := b.storage.Allocate(headerSize); err != nil { return nil, err }

	state := &serializeState{
		sp:            b.storage,
		useLayout:     layout,
		compactLimit:  b.opts.CompactOffsetLimit,
		allowPromote:  b.opts.AllowHybridPromotion,
		transition:    -1,
		deepestOffset: -1,
		pool:          newNodePool(),
	}

	rootOffset, err := state.serializeNode(root, 0, true)
	if err != nil { return nil, err }

	if b.opts.ProgressFunc != nil { b.opts.ProgressFunc(n) }

	jumpStart := int64(-1)
	jumpEnd := int64(-1)

	if len(state.pendingJumps) > 0 {
		jumpStart, err = b.storage.Allocate(int64(len(state.pendingJumps)) * 8)
		if err != nil { return nil, err }

		for i, pj := range state.pendingJumps {
			entryOffset := jumpStart + int64(i)*8
			if err := b.storage.WriteI64(entryOffset, pj.arrayOffset); err != nil { return nil, err }

			// child_count and the jumped flag were already set when the
			// pending entry was recorded; only children_head needs the
			// real jump index now that the table has a home.
			if err := b.storage.WriteU32(pj.nodeOffset+cnOffChildrenHead, uint32(i)); err != nil { return nil, err }
		}

		jumpEnd = b.storage.Size()
	}

	textOffset, err := b.storage.Allocate(int64(len(raw)) * 2)
	if err != nil { return nil, err }

	for i, ch := range raw {
		if err := b.storage.WriteChar(textOffset+int64(i)*2, ch); err != nil { return nil, err }
	}

	header := &Header{
		NodeVersion: layout.Version,
		Root:        rootOffset,
		TotalSize:   b.storage.Size(),
		TextOffset:  textOffset,
		TextLength:  int32(len(raw)),
		Deepest:     state.deepestOffset,
		Transition:  state.transition,
		JumpStart:   jumpStart,
		JumpEnd:     jumpEnd,
	}

	if err := WriteHeader(b.storage, header); err != nil { return nil, err }

	return openTree(b.storage, header)
}

