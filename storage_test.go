package suftree_test

import "sync"
import "testing"

import "suftree"


//============================================= StorageProvider concurrency
//
// Four goroutines repeatedly closing an already-built Tree, in the
// teacher's WaitGroup-per-goroutine concurrency test idiom (see
// MariConcurrent_test.go's insertWG/retrieveWG pattern): Close must be
// idempotent and safe to call from multiple goroutines at once.


func TestTreeConcurrentDispose(t *testing.T) {
	tree := buildInMemory(t, "mississippi", suftree.BuilderOptions{})

	const goroutines = 4
	const iterations = 200

	var wg sync.WaitGroup
	errs := make(chan error, goroutines*iterations)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < iterations; i++ {
				if err := tree.Close(); err != nil {
					errs <- err
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Close returned an error: %s", err)
	}

	_, err := tree.Contains("iss")
	if err == nil { t.Fatal("Contains on a disposed tree succeeded, want an error") }
}

func TestHeapStorageGrowthAndBounds(t *testing.T) {
	storage := suftree.NewHeapStorage()

	first, err := storage.Allocate(4)
	if err != nil { t.Fatalf("Allocate: %s", err) }
	if first != 0 { t.Errorf("first allocation offset = %d, want 0", first) }

	second, err := storage.Allocate(4)
	if err != nil { t.Fatalf("Allocate: %s", err) }
	if second != 4 { t.Errorf("second allocation offset = %d, want 4", second) }

	if err := storage.WriteI32(0, 42); err != nil { t.Fatalf("WriteI32: %s", err) }
	v, err := storage.ReadI32(0)
	if err != nil { t.Fatalf("ReadI32: %s", err) }
	if v != 42 { t.Errorf("ReadI32 = %d, want 42", v) }

	_, err = storage.ReadI32(storage.Size())
	if err == nil { t.Fatal("ReadI32 past logical size succeeded, want OutOfRange") }
	if !suftree.IsKind(err, suftree.KindOutOfRange) {
		t.Errorf("error kind = %v, want OutOfRange", err)
	}
}

func TestHeapStorageRejectsWritesWhenDisposed(t *testing.T) {
	storage := suftree.NewHeapStorage()
	if _, err := storage.Allocate(8); err != nil { t.Fatalf("Allocate: %s", err) }

	if err := storage.Dispose(); err != nil { t.Fatalf("Dispose: %s", err) }
	if err := storage.Dispose(); err != nil { t.Fatalf("second Dispose: %s", err) }

	if err := storage.WriteI32(0, 1); err == nil {
		t.Fatal("WriteI32 on disposed storage succeeded, want Disposed error")
	}
}

func TestCompactOffsetRejectsOutOfRangeValues(t *testing.T) {
	storage := suftree.NewHeapStorage()
	if _, err := storage.Allocate(8); err != nil { t.Fatalf("Allocate: %s", err) }

	err := storage.WriteCompactOffset(0, -1)
	if err == nil { t.Fatal("WriteCompactOffset(-1) succeeded, want InvalidState") }
	if !suftree.IsKind(err, suftree.KindInvalidState) {
		t.Errorf("error kind = %v, want InvalidState", err)
	}

	err = storage.WriteCompactOffset(0, (1<<32)-1)
	if err == nil { t.Fatal("WriteCompactOffset(null sentinel) succeeded, want InvalidState") }
}
