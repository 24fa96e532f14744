package suftree

import "fmt"
import "io"
import "sort"
import "strings"
import "unicode/utf16"


//============================================= Tree
//
// The read-only query surface. Every method walks the arena through a
// navigator, never touching raw offsets directly (design notes section 9,
// "the navigator is the only place offsets are dereferenced").


// Tree is a read-only, opened suffix tree backed by a StorageProvider.
type Tree struct {
	storage StorageProvider
	header  *Header
	nav     *navigator
	text    TextSource
	textLen int // N, excluding the synthetic terminator suffix
	closed  atomicBool
}

func openTree(sp StorageProvider, h *Header) (*Tree, error) {
	nav := newNavigator(sp, h)
	text := newStorageText(sp, h.TextOffset, int(h.TextLength))

	textLen := int(h.TextLength) - 1
	if textLen < 0 { textLen = 0 }

	return &Tree{ storage: sp, header: h, nav: nav, text: text, textLen: textLen }, nil
}

func (t *Tree) checkOpen() error {
	if t.closed.get() { return errDisposed }
	return nil
}

// Close releases the underlying storage. Idempotent.
func (t *Tree) Close() error {
	if !t.closed.setOnce() { return nil }
	return t.storage.Dispose()
}

// Header returns the tree's loaded header, mainly for diagnostics.
func (t *Tree) Header() *Header { return t.header }


//---------------------------------------------- matching primitives


// matchExtent walks query against the tree as far as it will go, returning
// how many characters matched, the offset of the node reached (possibly
// mid-edge), and how many characters remain unconsumed on that node's own
// edge beyond the match point.
func (t *Tree) matchExtent(query []uint16) (length int, locus int64, edgeSlack int, err error) {
	cur := t.header.Root
	i := 0

	for i < len(query) {
		rec, rErr := t.nav.readNode(cur)
		if rErr != nil { return 0, 0, 0, rErr }

		childOffset, found, fErr := t.nav.findChild(rec, query[i])
		if fErr != nil { return 0, 0, 0, fErr }
		if !found { return i, cur, 0, nil }

		childRec, cErr := t.nav.readNode(childOffset)
		if cErr != nil { return 0, 0, 0, cErr }

		edgeLen := int(childRec.EdgeEnd - childRec.EdgeStart)
		matched := 0

		for matched < edgeLen && i < len(query) {
			ch, atErr := t.text.At(int(childRec.EdgeStart) + matched)
			if atErr != nil { return 0, 0, 0, atErr }
			if ch != query[i] { return i, childOffset, edgeLen - matched, nil }

			i++
			matched++
		}

		cur = childOffset
		if i >= len(query) { return i, cur, edgeLen - matched, nil }
	}

	return i, cur, 0, nil
}

// locate reports whether query occurs as a path prefix in the tree, and if
// so, the node at (or immediately past) the match point.
func (t *Tree) locate(query []uint16) (locus int64, edgeSlack int, ok bool, err error) {
	if len(query) == 0 { return t.header.Root, 0, true, nil }

	length, locus, edgeSlack, err := t.matchExtent(query)
	if err != nil { return 0, 0, false, err }

	return locus, edgeSlack, length == len(query), nil
}

// collectLeaves visits every leaf under offset, reporting each one's suffix
// start position in the tree's own text. depth is the cumulative character
// depth to the end of offset's own edge.
func (t *Tree) collectLeaves(offset int64, depth int, visit func(suffixStart int)) error {
	rec, err := t.nav.readNode(offset)
	if err != nil { return err }

	if rec.ChildCount == 0 {
		visit(int(t.header.TextLength) - depth)
		return nil
	}

	edges, err := t.nav.children(rec)
	if err != nil { return err }

	for _, e := range edges {
		childRec, err := t.nav.readNode(e.Offset)
		if err != nil { return err }

		childDepth := depth + int(childRec.EdgeEnd-childRec.EdgeStart)
		if err := t.collectLeaves(e.Offset, childDepth, visit); err != nil { return err }
	}

	return nil
}

// firstLeafSuffixStart descends via the smallest-keyed child at every step
// until it reaches a leaf, returning that leaf's suffix start position.
func (t *Tree) firstLeafSuffixStart(offset int64, depth int) (int, error) {
	rec, err := t.nav.readNode(offset)
	if err != nil { return 0, err }

	if rec.ChildCount == 0 { return int(t.header.TextLength) - depth, nil }

	edges, err := t.nav.children(rec)
	if err != nil { return 0, err }

	first := edges[0]
	firstRec, err := t.nav.readNode(first.Offset)
	if err != nil { return 0, err }

	childDepth := depth + int(firstRec.EdgeEnd-firstRec.EdgeStart)
	return t.firstLeafSuffixStart(first.Offset, childDepth)
}

// depthOf reports the cumulative character depth of target's own edge end,
// found via a full traversal from the root.
func (t *Tree) depthOf(target int64) (int, bool, error) {
	return t.depthOfRec(t.header.Root, 0, target)
}

func (t *Tree) depthOfRec(cur int64, depth int, target int64) (int, bool, error) {
	if cur == target { return depth, true, nil }

	rec, err := t.nav.readNode(cur)
	if err != nil { return 0, false, err }
	if rec.ChildCount == 0 { return 0, false, nil }

	edges, err := t.nav.children(rec)
	if err != nil { return 0, false, err }

	for _, e := range edges {
		childRec, err := t.nav.readNode(e.Offset)
		if err != nil { return 0, false, err }

		childDepth := depth + int(childRec.EdgeEnd-childRec.EdgeStart)

		d, found, err := t.depthOfRec(e.Offset, childDepth, target)
		if err != nil { return 0, false, err }
		if found { return d, true, nil }
	}

	return 0, false, nil
}


//---------------------------------------------- query surface


func encodeQuery(s string) []uint16 { return utf16.Encode([]rune(s)) }

// Contains reports whether s occurs anywhere in the tree's text.
func (t *Tree) Contains(s string) (bool, error) {
	if err := t.checkOpen(); err != nil { return false, err }

	_, _, ok, err := t.locate(encodeQuery(s))
	return ok, err
}

// FindAllOccurrences returns every start position of s within the tree's
// text, ascending, excluding the synthetic terminator suffix. The empty
// string occurs at every position, so FindAllOccurrences("") is {0,...,N-1}.
func (t *Tree) FindAllOccurrences(s string) ([]int, error) {
	if err := t.checkOpen(); err != nil { return nil, err }

	q := encodeQuery(s)

	locus, slack, ok, err := t.locate(q)
	if err != nil { return nil, err }
	if !ok { return []int{}, nil }

	baseDepth := len(q) + slack

	var positions []int
	collectErr := t.collectLeaves(locus, baseDepth, func(suffixStart int) {
		if suffixStart < t.textLen { positions = append(positions, suffixStart) }
	})
	if collectErr != nil { return nil, collectErr }

	sort.Ints(positions)
	return positions, nil
}

// CountOccurrences returns how many times s occurs in the tree's text: the
// cached leaf_count of the node at (or just past) the match point, read
// directly after navigation. The empty string occurs N times.
func (t *Tree) CountOccurrences(s string) (int, error) {
	if err := t.checkOpen(); err != nil { return 0, err }

	q := encodeQuery(s)
	if len(q) == 0 { return t.textLen, nil }

	locus, _, ok, err := t.locate(q)
	if err != nil { return 0, err }
	if !ok { return 0, nil }

	rec, err := t.nav.readNode(locus)
	if err != nil { return 0, err }

	return int(rec.LeafCount), nil
}

// LongestRepeatedSubstring returns the longest substring that occurs at
// least twice in the tree's text, or "" for degenerate inputs with no
// internal node besides the root.
func (t *Tree) LongestRepeatedSubstring() (string, error) {
	if err := t.checkOpen(); err != nil { return "", err }

	depth, found, err := t.depthOf(t.header.Deepest)
	if err != nil { return "", err }
	if !found { return "", newErr(KindCorruption, "deepest node offset is not reachable from root") }
	if depth == 0 { return "", nil }

	pos, err := t.firstLeafSuffixStart(t.header.Deepest, depth)
	if err != nil { return "", err }

	runes, err := t.text.Substring(pos, depth)
	if err != nil { return "", err }

	return string(utf16.Decode(runes)), nil
}

// LongestCommonSubstring finds the longest substring shared between the
// tree's text and an arbitrary foreign string, reporting every occurrence
// of that substring within the tree's own text.
func (t *Tree) LongestCommonSubstring(foreign string) (*LCSInfo, error) {
	if err := t.checkOpen(); err != nil { return nil, err }

	fr := encodeQuery(foreign)

	best := 0
	bestStart := 0

	for p := 0; p < len(fr); p++ {
		length, _, _, err := t.matchExtent(fr[p:])
		if err != nil { return nil, err }

		if length > best {
			best = length
			bestStart = p
		}
	}

	if best == 0 { return &LCSInfo{}, nil }

	sub := string(utf16.Decode(fr[bestStart : bestStart+best]))

	positions, err := t.FindAllOccurrences(sub)
	if err != nil { return nil, err }

	return &LCSInfo{ Substring: sub, TextPositions: positions }, nil
}

// LongestCommonSubstringAll is the "all occurrences" variant of
// LongestCommonSubstring: every maximal match achieving the global best
// length is reported, grouped by substring content, with positions in both
// the tree's text and the foreign string.
func (t *Tree) LongestCommonSubstringAll(foreign string) ([]LCSAllMatch, error) {
	if err := t.checkOpen(); err != nil { return nil, err }

	fr := encodeQuery(foreign)

	type span struct{ start, length int }

	best := 0
	var spans []span

	for p := 0; p < len(fr); p++ {
		length, _, _, err := t.matchExtent(fr[p:])
		if err != nil { return nil, err }

		switch {
		case length > best:
			best = length
			spans = []span{{ p, length }}
		case length == best && length > 0:
			spans = append(spans, span{ p, length })
		}
	}

	if best == 0 { return nil, nil }

	byContent := map[string]*LCSAllMatch{}
	var order []string

	for _, s := range spans {
		sub := string(utf16.Decode(fr[s.start : s.start+best]))

		entry, ok := byContent[sub]
		if !ok {
			positions, err := t.FindAllOccurrences(sub)
			if err != nil { return nil, err }

			entry = &LCSAllMatch{ Substring: sub, TextPositions: positions }
			byContent[sub] = entry
			order = append(order, sub)
		}

		entry.ForeignPositions = append(entry.ForeignPositions, s.start)
	}

	out := make([]LCSAllMatch, 0, len(order))
	for _, s := range order { out = append(out, *byContent[s]) }

	return out, nil
}

// FindExactMatchAnchors reports, for every start position in query, the
// longest exact match extending from that position against the tree, along
// with every occurrence of that match within the tree's text.
func (t *Tree) FindExactMatchAnchors(query string) ([]Anchor, error) {
	if err := t.checkOpen(); err != nil { return nil, err }

	q := encodeQuery(query)
	anchors := make([]Anchor, 0, len(q))

	for p := 0; p < len(q); p++ {
		length, _, _, err := t.matchExtent(q[p:])
		if err != nil { return nil, err }
		if length == 0 { continue }

		sub := string(utf16.Decode(q[p : p+length]))

		positions, err := t.FindAllOccurrences(sub)
		if err != nil { return nil, err }

		anchors = append(anchors, Anchor{ QueryStart: p, Length: length, TextPositions: positions })
	}

	return anchors, nil
}

// EnumerateSuffixes returns every non-empty suffix of the tree's text in
// lexicographic (UTF-16 code-unit) order, excluding the synthetic
// terminator suffix.
func (t *Tree) EnumerateSuffixes() ([]string, error) {
	if err := t.checkOpen(); err != nil { return nil, err }

	full, err := t.text.Substring(0, t.textLen)
	if err != nil { return nil, err }

	starts := make([]int, t.textLen)
	for i := range starts { starts[i] = i }

	sort.Slice(starts, func(i, j int) bool {
		return lessUint16(full[starts[i]:], full[starts[j]:])
	})

	out := make([]string, t.textLen)
	for rank, start := range starts {
		out[rank] = string(utf16.Decode(full[start:]))
	}

	return out, nil
}

// lessUint16 compares two code-unit slices lexicographically.
func lessUint16(a, b []uint16) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] { return a[i] < b[i] }
	}
	return len(a) < len(b)
}

// Traverse walks the tree in pre-order, invoking v at every node and
// Enter/Exit around every child descent.
func (t *Tree) Traverse(v Visitor) error {
	if err := t.checkOpen(); err != nil { return err }
	return t.traverseRec(t.header.Root, 0, v)
}

func (t *Tree) traverseRec(offset int64, depth int, v Visitor) error {
	rec, err := t.nav.readNode(offset)
	if err != nil { return err }

	if err := v.Visit(int(rec.EdgeStart), int(rec.EdgeEnd), int(rec.LeafCount), rec.ChildCount, depth); err != nil { return err }
	if rec.ChildCount == 0 { return nil }

	edges, err := t.nav.children(rec)
	if err != nil { return err }

	childDepth := depth
	if offset != t.header.Root { childDepth = depth + int(rec.EdgeEnd-rec.EdgeStart) }

	for _, e := range edges {
		if err := v.Enter(e.Key); err != nil { return err }
		if err := t.traverseRec(e.Offset, childDepth, v); err != nil { return err }
		if err := v.Exit(); err != nil { return err }
	}

	return nil
}

// PrintTree writes a human-readable, indented dump of the tree to w, in the
// teacher's PrintChildren idiom.
func (t *Tree) PrintTree(w io.Writer) error {
	if err := t.checkOpen(); err != nil { return err }
	return t.printRec(w, t.header.Root, 0)
}

func (t *Tree) printRec(w io.Writer, offset int64, depth int) error {
	rec, err := t.nav.readNode(offset)
	if err != nil { return err }

	label := ""
	if offset != t.header.Root {
		runes, sErr := t.text.Substring(int(rec.EdgeStart), int(rec.EdgeEnd-rec.EdgeStart))
		if sErr != nil { return sErr }
		label = string(utf16.Decode(runes))
	}

	fmt.Fprintf(w, "%s%q leaves=%d children=%d\n", strings.Repeat("  ", depth), label, rec.LeafCount, rec.ChildCount)
	if rec.ChildCount == 0 { return nil }

	edges, err := t.nav.children(rec)
	if err != nil { return err }

	for _, e := range edges {
		if err := t.printRec(w, e.Offset, depth+1); err != nil { return err }
	}

	return nil
}

// Stats returns an operational snapshot of the loaded tree, computed with
// one pass over the arena.
func (t *Tree) Stats() (*Stats, error) {
	if err := t.checkOpen(); err != nil { return nil, err }

	st := &Stats{ ArenaBytes: t.header.TotalSize }
	if err := t.statsRec(t.header.Root, st); err != nil { return nil, err }

	return st, nil
}

func (t *Tree) statsRec(offset int64, st *Stats) error {
	rec, err := t.nav.readNode(offset)
	if err != nil { return err }

	st.NodeCount++

	if rec.ChildCount == 0 {
		st.LeafCount++
		return nil
	}

	st.InternalCount++

	edges, err := t.nav.children(rec)
	if err != nil { return err }

	for _, e := range edges {
		if err := t.statsRec(e.Offset, st); err != nil { return err }
	}

	return nil
}
