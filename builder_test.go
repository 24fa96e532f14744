package suftree_test

import "strings"
import "testing"

import "suftree"


//============================================= Builder / Ukkonen construction
//
// Classic suffix-tree textbook scenarios (banana, mississippi, abracadabra)
// plus the boundary inputs spec.md section 8 calls out explicitly: empty
// text, single-character text, periodic text, and randomized small-alphabet
// text.


func TestBuilderClassicScenarios(t *testing.T) {
	t.Run("banana", func(t *testing.T) {
		tree := buildInMemory(t, "banana", suftree.BuilderOptions{})
		defer tree.Close()

		mustContain(t, tree, "ana", true)
		mustContain(t, tree, "ban", true)
		mustContain(t, tree, "nana", true)
		mustContain(t, tree, "xyz", false)

		mustOccurrences(t, tree, "a", []int{1, 3, 5})
		mustOccurrences(t, tree, "ana", []int{1, 3})
		mustOccurrences(t, tree, "na", []int{2, 4})

		lrs, err := tree.LongestRepeatedSubstring()
		if err != nil { t.Fatalf("LRS: %s", err) }
		if lrs != "ana" { t.Errorf("LRS(banana) = %q, want %q", lrs, "ana") }
	})

	t.Run("mississippi", func(t *testing.T) {
		tree := buildInMemory(t, "mississippi", suftree.BuilderOptions{})
		defer tree.Close()

		mustContain(t, tree, "issi", true)
		mustContain(t, tree, "ssi", true)
		mustContain(t, tree, "ppi", true)
		mustContain(t, tree, "ipp", true)

		mustOccurrences(t, tree, "i", []int{1, 4, 7, 10})
		mustOccurrences(t, tree, "ss", []int{2, 5})
		mustOccurrences(t, tree, "issi", []int{1, 4})

		lrs, err := tree.LongestRepeatedSubstring()
		if err != nil { t.Fatalf("LRS: %s", err) }
		if lrs != "issi" { t.Errorf("LRS(mississippi) = %q, want %q", lrs, "issi") }
	})

	t.Run("abracadabra", func(t *testing.T) {
		tree := buildInMemory(t, "abracadabra", suftree.BuilderOptions{})
		defer tree.Close()

		mustContain(t, tree, "abra", true)
		mustContain(t, tree, "cad", true)
		mustContain(t, tree, "dabra", true)
		mustContain(t, tree, "z", false)

		mustOccurrences(t, tree, "abra", []int{0, 7})
		mustOccurrences(t, tree, "a", []int{0, 3, 5, 7, 10})

		lrs, err := tree.LongestRepeatedSubstring()
		if err != nil { t.Fatalf("LRS: %s", err) }
		if lrs != "abra" { t.Errorf("LRS(abracadabra) = %q, want %q", lrs, "abra") }
	})
}

func TestBuilderBoundaryInputs(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		tree := buildInMemory(t, "", suftree.BuilderOptions{})
		defer tree.Close()

		suffixes, err := tree.EnumerateSuffixes()
		if err != nil { t.Fatalf("EnumerateSuffixes: %s", err) }
		if len(suffixes) != 0 { t.Errorf("EnumerateSuffixes(empty) = %v, want empty", suffixes) }

		mustContain(t, tree, "a", false)

		lrs, err := tree.LongestRepeatedSubstring()
		if err != nil { t.Fatalf("LRS: %s", err) }
		if lrs != "" { t.Errorf("LRS(empty) = %q, want empty", lrs) }
	})

	t.Run("single character", func(t *testing.T) {
		tree := buildInMemory(t, "a", suftree.BuilderOptions{})
		defer tree.Close()

		mustContain(t, tree, "a", true)
		mustOccurrences(t, tree, "a", []int{0})

		suffixes, err := tree.EnumerateSuffixes()
		if err != nil { t.Fatalf("EnumerateSuffixes: %s", err) }
		if len(suffixes) != 1 || suffixes[0] != "a" {
			t.Errorf("EnumerateSuffixes(a) = %v, want [a]", suffixes)
		}
	})

	t.Run("periodic text", func(t *testing.T) {
		text := strings.Repeat("abc", 50)
		tree := buildInMemory(t, text, suftree.BuilderOptions{})
		defer tree.Close()

		mustContain(t, tree, "abcabc", true)
		mustContain(t, tree, "cab", true)

		positions, err := tree.FindAllOccurrences("abc")
		if err != nil { t.Fatalf("FindAllOccurrences: %s", err) }
		if len(positions) != 50 {
			t.Errorf("FindAllOccurrences(abc) in abc*50 = %d positions, want 50", len(positions))
		}

		lrs, err := tree.LongestRepeatedSubstring()
		if err != nil { t.Fatalf("LRS: %s", err) }
		if len(lrs) != len(text)-3 {
			t.Errorf("LRS(periodic) length = %d, want %d", len(lrs), len(text)-3)
		}
	})

	t.Run("small alphabet random length 1000", func(t *testing.T) {
		// Deterministic pseudo-random text over {a,b,c}, generated with a
		// fixed linear congruential sequence so the test needs no RNG seed
		// plumbing and is reproducible across runs.
		var sb strings.Builder
		state := uint32(12345)
		alphabet := "abc"
		for i := 0; i < 1000; i++ {
			state = state*1103515245 + 12345
			sb.WriteByte(alphabet[(state>>16)%3])
		}
		text := sb.String()

		tree := buildInMemory(t, text, suftree.BuilderOptions{})
		defer tree.Close()

		suffixes, err := tree.EnumerateSuffixes()
		if err != nil { t.Fatalf("EnumerateSuffixes: %s", err) }
		if len(suffixes) != 1000 {
			t.Fatalf("EnumerateSuffixes count = %d, want 1000", len(suffixes))
		}

		// Sampled suffixes (starts 0, 1, 500 and 999) must each be found
		// starting at their own position.
		for _, start := range []int{0, 1, 500, 999} {
			positions, err := tree.FindAllOccurrences(text[start:])
			if err != nil { t.Fatalf("FindAllOccurrences(suffix at %d): %s", start, err) }

			found := false
			for _, p := range positions {
				if p == start { found = true; break }
			}
			if !found {
				t.Errorf("suffix at %d not reported among its own occurrences: %v", start, positions)
			}
		}
	})
}

func TestBuilderSingleUseGuard(t *testing.T) {
	storage := suftree.NewHeapStorage()
	builder := suftree.NewBuilder(storage, suftree.NewOwnedTextFromString("banana"), suftree.BuilderOptions{})

	if _, err := builder.Build(); err != nil { t.Fatalf("first Build: %s", err) }

	_, err := builder.Build()
	if err == nil { t.Fatal("second Build on the same Builder succeeded, want InvalidState") }
	if !suftree.IsKind(err, suftree.KindInvalidState) {
		t.Errorf("second Build error kind = %v, want InvalidState", err)
	}
}
