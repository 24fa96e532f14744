package suftree_test

import "fmt"
import "os"
import "path/filepath"
import "sort"

import "suftree"


//============================================= shared test fixtures
//
// Package-level helpers and fixtures shared across this package's test
// files, in the teacher's own tests/Shared.go idiom.


func buildInMemory(t testingT, text string, opts suftree.BuilderOptions) *suftree.Tree {
	t.Helper()

	tree, err := suftree.NewBuilder(suftree.NewHeapStorage(), suftree.NewOwnedTextFromString(text), opts).Build()
	if err != nil { t.Fatalf("build failed for %q: %s", text, err) }

	return tree
}

func mustContain(t testingT, tree *suftree.Tree, s string, want bool) {
	t.Helper()

	got, err := tree.Contains(s)
	if err != nil { t.Fatalf("Contains(%q): %s", s, err) }
	if got != want { t.Errorf("Contains(%q) = %v, want %v", s, got, want) }
}

func mustOccurrences(t testingT, tree *suftree.Tree, s string, want []int) {
	t.Helper()

	got, err := tree.FindAllOccurrences(s)
	if err != nil { t.Fatalf("FindAllOccurrences(%q): %s", s, err) }

	sort.Ints(got)
	sort.Ints(want)

	if !intSlicesEqual(got, want) {
		t.Errorf("FindAllOccurrences(%q) = %v, want %v", s, got, want)
	}
}

func intSlicesEqual(a, b []int) bool {
	if len(a) != len(b) { return false }
	for i := range a {
		if a[i] != b[i] { return false }
	}
	return true
}

// testingT is the subset of *testing.T used by helpers, so both *testing.T
// and *testing.B can share them.
type testingT interface {
	Helper()
	Fatalf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

func tempFilePath(name string) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("suftree_test_%s", name))
}
