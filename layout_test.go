package suftree_test

import "strings"
import "testing"

import "suftree"


//============================================= Header load-validation
//
// Builds one valid tree, then corrupts one header field at a time and
// confirms ReadHeader rejects it with Corruption, naming the violated field
// in its message, per spec.md section 4.3's validation order.


func buildHeaderFixture(t *testing.T) (suftree.StorageProvider, *suftree.Header) {
	t.Helper()

	storage := suftree.NewHeapStorage()
	tree, err := suftree.NewBuilder(storage, suftree.NewOwnedTextFromString("banana"), suftree.BuilderOptions{}).Build()
	if err != nil { t.Fatalf("build: %s", err) }

	header := tree.Header()
	return storage, header
}

func TestHeaderValidationRejectsCorruption(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		storage, _ := buildHeaderFixture(t)

		if err := storage.WriteI64(0, 0xBAD); err != nil { t.Fatalf("corrupt magic: %s", err) }

		_, err := suftree.ReadHeader(storage)
		expectCorruption(t, err, "magic")
	})

	t.Run("unsupported node version", func(t *testing.T) {
		storage, _ := buildHeaderFixture(t)

		if err := storage.WriteI32(8, 99); err != nil { t.Fatalf("corrupt version: %s", err) }

		_, err := suftree.ReadHeader(storage)
		expectCorruption(t, err, "version")
	})

	t.Run("root out of bounds", func(t *testing.T) {
		storage, _ := buildHeaderFixture(t)

		if err := storage.WriteI64(16, storage.Size()+1000); err != nil { t.Fatalf("corrupt root: %s", err) }

		_, err := suftree.ReadHeader(storage)
		expectCorruption(t, err, "root")
	})

	t.Run("text region out of bounds", func(t *testing.T) {
		storage, _ := buildHeaderFixture(t)

		if err := storage.WriteI64(32, storage.Size()+1000); err != nil { t.Fatalf("corrupt text offset: %s", err) }

		_, err := suftree.ReadHeader(storage)
		expectCorruption(t, err, "text")
	})

	t.Run("deepest out of bounds", func(t *testing.T) {
		storage, _ := buildHeaderFixture(t)

		if err := storage.WriteI64(48, storage.Size()+1000); err != nil { t.Fatalf("corrupt deepest: %s", err) }

		_, err := suftree.ReadHeader(storage)
		expectCorruption(t, err, "deepest")
	})

	t.Run("jump table end precedes start", func(t *testing.T) {
		storage, _ := buildHeaderFixture(t)

		if err := storage.WriteI64(64, 10); err != nil { t.Fatalf("corrupt jump start: %s", err) }
		if err := storage.WriteI64(72, 5); err != nil { t.Fatalf("corrupt jump end: %s", err) }

		_, err := suftree.ReadHeader(storage)
		expectCorruption(t, err, "jump")
	})

	t.Run("size mismatch", func(t *testing.T) {
		storage, _ := buildHeaderFixture(t)

		if err := storage.WriteI64(24, storage.Size()+8); err != nil { t.Fatalf("corrupt size: %s", err) }

		_, err := suftree.ReadHeader(storage)
		expectCorruption(t, err, "size")
	})

	t.Run("storage too small for header", func(t *testing.T) {
		storage := suftree.NewHeapStorage()
		if _, err := storage.Allocate(10); err != nil { t.Fatalf("allocate: %s", err) }

		_, err := suftree.ReadHeader(storage)
		if err == nil { t.Fatal("ReadHeader on truncated storage succeeded, want Corruption") }
		if !suftree.IsKind(err, suftree.KindCorruption) {
			t.Errorf("error kind = %v, want Corruption", err)
		}
	})
}

func expectCorruption(t *testing.T, err error, wantSubstring string) {
	t.Helper()

	if err == nil { t.Fatal("ReadHeader succeeded on corrupted header, want Corruption error") }
	if !suftree.IsKind(err, suftree.KindCorruption) {
		t.Fatalf("error kind = %v, want Corruption", err)
	}
	if !strings.Contains(strings.ToLower(err.Error()), wantSubstring) {
		t.Errorf("error message %q does not name the violated field %q", err.Error(), wantSubstring)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	storage, header := buildHeaderFixture(t)

	reloaded, err := suftree.ReadHeader(storage)
	if err != nil { t.Fatalf("ReadHeader on a freshly built, uncorrupted header: %s", err) }

	if reloaded.NodeVersion != header.NodeVersion { t.Errorf("NodeVersion mismatch: %d != %d", reloaded.NodeVersion, header.NodeVersion) }
	if reloaded.Root != header.Root { t.Errorf("Root mismatch: %d != %d", reloaded.Root, header.Root) }
	if reloaded.TotalSize != header.TotalSize { t.Errorf("TotalSize mismatch: %d != %d", reloaded.TotalSize, header.TotalSize) }
	if reloaded.TextLength != header.TextLength { t.Errorf("TextLength mismatch: %d != %d", reloaded.TextLength, header.TextLength) }
}
