package suftree

import "os"


//============================================= Promotion Policy
//
// Two ways for a build to outgrow the Compact layout: hybrid promotion
// (handled inline by Builder.Build via the jump table, when
// BuilderOptions.AllowHybridPromotion is set) or a clean rebuild from
// scratch in Large layout, in the teacher's Compact.go/CompactUtils.go
// idiom of building into a fresh file/mapping and swapping it in once
// complete rather than mutating the live one in place.


// rebuildAsLarge reruns construction from scratch against a fresh
// in-memory Large-layout storage, discarding whatever partial Compact
// build produced the overflow.
func rebuildAsLarge(text TextSource, storage StorageProvider, opts BuilderOptions) (*Tree, error) {
	largeOpts := opts
	largeOpts.Layout = LayoutLarge
	largeOpts.CompactOffsetLimit = 0
	largeOpts.AllowHybridPromotion = false

	return NewBuilder(storage, text, largeOpts).Build()
}

// rebuildAsLargeFile reruns construction into a sibling temp file, then
// atomically renames it over path once it succeeds -- the live file at
// path (if any) is only ever replaced by a complete, valid tree.
func rebuildAsLargeFile(path string, text TextSource, opts BuilderOptions) (*Tree, error) {
	tmpPath := path + ".rebuild"
	_ = os.Remove(tmpPath)

	storage, err := NewFileStorage(tmpPath, false)
	if err != nil { return nil, err }

	tree, buildErr := rebuildAsLarge(text, storage, opts)
	if buildErr != nil {
		_ = storage.Dispose()
		_ = os.Remove(tmpPath)
		return nil, buildErr
	}

	if err := storage.TrimToSize(); err != nil { return nil, err }

	if err := os.Rename(tmpPath, path); err != nil {
		return nil, wrapErr(KindIoFailure, "rename rebuilt storage into place", err)
	}

	return tree, nil
}
