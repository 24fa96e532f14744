package suftree

//============================================= Factory
//
// Orchestrates construction and loading, in the teacher's Mari.Open/
// initializeFile idiom of picking a storage backing and validating what
// comes back before handing it to the caller.


// Factory creates and opens trees, choosing between Compact-with-hybrid-
// promotion and clean-rebuild-to-Large when a Compact build overflows.
type Factory struct{}

// NewFactory returns a ready-to-use Factory. It carries no state; every
// method is a pure function of its arguments.
func NewFactory() *Factory { return &Factory{} }

// CreateInMemory builds a tree entirely in heap-backed storage.
func (f *Factory) CreateInMemory(text TextSource, opts BuilderOptions) (*Tree, error) {
	storage := NewHeapStorage()

	tree, err := NewBuilder(storage, text, opts).Build()
	if err == nil { return tree, nil }

	if IsKind(err, KindCompactOverflow) && !opts.AllowHybridPromotion {
		return rebuildAsLarge(text, NewHeapStorage(), opts)
	}

	return nil, err
}

// CreateFile builds a tree into a new file-backed, memory-mapped storage
// at path. If the Compact layout overflows and hybrid promotion was not
// requested, the build is retried from scratch directly in Large layout,
// written to a sibling temp file and renamed into place on success.
func (f *Factory) CreateFile(path string, text TextSource, opts BuilderOptions) (*Tree, error) {
	storage, err := NewFileStorage(path, false)
	if err != nil { return nil, err }

	tree, buildErr := NewBuilder(storage, text, opts).Build()
	if buildErr != nil {
		_ = storage.Dispose()

		if IsKind(buildErr, KindCompactOverflow) && !opts.AllowHybridPromotion {
			return rebuildAsLargeFile(path, text, opts)
		}

		return nil, buildErr
	}

	if err := storage.TrimToSize(); err != nil { return nil, err }

	return tree, nil
}

// Load opens an existing on-disk tree read-only, memory-mapped, validating
// its header before returning it.
func (f *Factory) Load(path string) (*Tree, error) {
	storage, err := NewFileStorage(path, true)
	if err != nil { return nil, err }

	header, err := ReadHeader(storage)
	if err != nil {
		_ = storage.Dispose()
		return nil, err
	}

	return openTree(storage, header)
}

// LoadFromProvider opens an already-populated StorageProvider (typically
// heap-backed, for tests) as a read-only tree.
func (f *Factory) LoadFromProvider(sp StorageProvider) (*Tree, error) {
	header, err := ReadHeader(sp)
	if err != nil { return nil, err }

	return openTree(sp, header)
}
