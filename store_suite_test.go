package ldbridge

import (
	"fmt"
	"strings"
	"testing"

	"bitbucket.org/creachadair/stringset"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"github.com/twinfer/ldbridge/rdf"
)

// atom parses a string into an ast.Atom using Mangle's parser.
func atom(s string) ast.Atom {
	term, err := parse.Term(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse %q: %v", s, err))
	}
	return term.(ast.Atom)
}

// triple builds a triple atom from lexical terms.
func triple(s, p, o string) ast.Atom {
	return rdf.TripleAtom(s, p, o)
}

type closer interface{ Close() error }

func runAddContainsTest(t *testing.T, store factstore.FactStoreWithRemove) {
	tests := []ast.Atom{
		triple("<test:123>", "<http://example.org/farm#name>", `"bessie"`),
		triple("<test:123>", "<http://example.org/farm#barn>", "<test:/barn>"),
		triple("_:b0", "<http://example.org/farm#name>", `"koe"@nl`),
		triple("<>", "<http://example.org/farm#healthy>", `"true"^^<http://www.w3.org/2001/XMLSchema#boolean>`),
		triple("<test:123>", "<http://example.org/farm#note>", `"line\nbreak \"quoted\""`),
		atom(`triple("<test:1>", "<p:x>", "<o:y>")`),
	}

	for _, testAtom := range tests {
		t.Run(testAtom.String(), func(t *testing.T) {
			if got := store.Add(testAtom); !got {
				t.Errorf("Add(%v)=%v want %v", testAtom, got, true)
			}
			if !store.Contains(testAtom) {
				t.Errorf("Contains(%v)=false want true", testAtom)
			}
			if got := store.Add(testAtom); got {
				t.Errorf("Add(%v)=%v want %v (second add)", testAtom, got, false)
			}
		})
	}

	if got, want := store.EstimateFactCount(), len(tests); got != want {
		t.Errorf("EstimateFactCount() = %d want %d", got, want)
	}
}

func runGetFactsPatternMatchingTest(t *testing.T, store factstore.FactStoreWithRemove) {
	facts := []string{
		`triple("<s:a>", "<p:x>", "<o:1>")`,
		`triple("<s:a>", "<p:x>", "<o:2>")`,
		`triple("<s:a>", "<p:y>", "<o:1>")`,
		`triple("<s:b>", "<p:x>", "<o:1>")`,
	}
	for _, f := range facts {
		store.Add(atom(f))
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{`triple(S, P, O)`, facts},
		{`triple("<s:a>", P, O)`, facts[:3]},
		{`triple(S, "<p:x>", O)`, []string{facts[0], facts[1], facts[3]}},
		{`triple(S, P, "<o:1>")`, []string{facts[0], facts[2], facts[3]}},
		{`triple("<s:a>", "<p:x>", "<o:2>")`, facts[1:2]},
		{`triple("<s:c>", P, O)`, nil},
		{`other(S, P, O)`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			want := stringset.New()
			for _, w := range tt.want {
				want.Add(atom(w).String())
			}
			got := stringset.New()
			err := store.GetFacts(atom(tt.pattern), func(fact ast.Atom) error {
				got.Add(fact.String())
				return nil
			})
			if err != nil {
				t.Fatalf("GetFacts(%q) error: %v", tt.pattern, err)
			}
			if !got.Equals(want) {
				t.Errorf("GetFacts(%q) = %v want %v", tt.pattern, got, want)
			}
		})
	}
}

func runRejectedAtomsTest(t *testing.T, store factstore.FactStoreWithRemove) {
	tests := []ast.Atom{
		atom(`triple(S, "<p:x>", "<o:y>")`),
		atom(`other("<s:a>", "<p:x>", "<o:y>")`),
		atom(`triple(/name, "<p:x>", "<o:y>")`),
	}
	for _, testAtom := range tests {
		t.Run(testAtom.String(), func(t *testing.T) {
			if got := store.Add(testAtom); got {
				t.Errorf("Add(%v)=%v want false", testAtom, got)
			}
			if store.Contains(testAtom) {
				t.Errorf("Contains(%v)=true want false", testAtom)
			}
		})
	}
}

func runListPredicatesTest(t *testing.T, store factstore.FactStoreWithRemove) {
	if got := store.ListPredicates(); len(got) != 0 {
		t.Errorf("Expected 0 predicates, got %v", got)
	}
	store.Add(triple("<s:a>", "<p:x>", "<o:y>"))
	got := store.ListPredicates()
	if len(got) != 1 || got[0] != rdf.TriplePredicate {
		t.Errorf("ListPredicates() = %v want [%v]", got, rdf.TriplePredicate)
	}
}

func runMergeTest(t *testing.T, newStore func() (factstore.FactStoreWithRemove, error)) {
	store1, err := newStore()
	if err != nil {
		t.Fatalf("Failed to create store1: %v", err)
	}
	defer store1.(closer).Close()

	store2, err := newStore()
	if err != nil {
		t.Fatalf("Failed to create store2: %v", err)
	}
	defer store2.(closer).Close()

	store1.Add(triple("<s:a>", "<p:x>", "<o:1>"))
	store1.Add(triple("<s:a>", "<p:x>", "<o:2>"))
	store2.Add(triple("<s:a>", "<p:x>", "<o:1>")) // Duplicate
	store2.Add(triple("<s:b>", "<p:y>", `"new"`))

	store1.Merge(store2)

	for _, fact := range []ast.Atom{
		triple("<s:a>", "<p:x>", "<o:1>"),
		triple("<s:a>", "<p:x>", "<o:2>"),
		triple("<s:b>", "<p:y>", `"new"`),
	} {
		if !store1.Contains(fact) {
			t.Errorf("After merge, store1 should contain %v", fact)
		}
	}
	if got := store1.EstimateFactCount(); got != 3 {
		t.Errorf("EstimateFactCount() = %d want 3", got)
	}
}

func runRemoveTest(t *testing.T, store factstore.FactStoreWithRemove) {
	keep := triple("<s:a>", "<p:x>", "<o:1>")
	gone := triple("<s:a>", "<p:x>", "<o:2>")
	store.Add(keep)
	store.Add(gone)

	if !store.Remove(gone) {
		t.Errorf("Remove(%v) should return true", gone)
	}
	if store.Contains(gone) {
		t.Errorf("Contains(%v) after remove should be false", gone)
	}
	if store.Remove(gone) {
		t.Errorf("Remove(%v) should return false (fact already removed)", gone)
	}
	if !store.Contains(keep) {
		t.Errorf("Remove must not touch %v", keep)
	}
}

func runApplyUpdateTest(t *testing.T, newStore func() (factstore.FactStoreWithRemove, error)) {
	store, err := newStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.(closer).Close()
	ts, ok := store.(*TripleStore)
	if !ok {
		t.Skipf("store %T does not apply updates", store)
	}

	initial := `<test:123> <http://example.org/farm#healthy> "true"^^<http://www.w3.org/2001/XMLSchema#boolean> .
<test:123> <http://example.org/farm#calves> <test:/1> .
<test:123> <http://example.org/farm#calves> <test:2> .
`
	if _, err := ts.LoadNTriples(initial); err != nil {
		t.Fatalf("LoadNTriples failed: %v", err)
	}

	script := "DELETE { \n" +
		"?s <http://example.org/farm#calves> ?o .\n" +
		"}\n" +
		"INSERT { \n" +
		"<test:123> <http://example.org/farm#calves> <test:3> .\n" +
		"}\n" +
		"WHERE {?s ?p ?o}"
	if err := ts.ApplyUpdate(script); err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}

	got, err := ts.Triples()
	if err != nil {
		t.Fatalf("Triples failed: %v", err)
	}
	want := []string{
		`<test:123> <http://example.org/farm#calves> <test:3> .`,
		`<test:123> <http://example.org/farm#healthy> "true"^^<http://www.w3.org/2001/XMLSchema#boolean> .`,
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Triples() after update =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	calves, err := ts.Match("", "<http://example.org/farm#calves>", "")
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(calves) != 1 || calves[0] != want[0] {
		t.Errorf("Match(calves) = %v, want [%s]", calves, want[0])
	}
	if none, err := ts.Match("<test:404>", "", ""); err != nil || len(none) != 0 {
		t.Errorf("Match(unknown subject) = %v, %v; want no triples", none, err)
	}
}

// runSuite runs all shared tests for a given store implementation.
func runSuite(t *testing.T, newStore func() (factstore.FactStoreWithRemove, error)) {
	tests := []struct {
		name string
		run  func(*testing.T, factstore.FactStoreWithRemove)
	}{
		{"AddContains", runAddContainsTest},
		{"GetFactsPatternMatching", runGetFactsPatternMatchingTest},
		{"RejectedAtoms", runRejectedAtomsTest},
		{"ListPredicates", runListPredicatesTest},
		{"Remove", runRemoveTest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := newStore()
			if err != nil {
				t.Fatalf("Failed to create store: %v", err)
			}
			t.Cleanup(func() { store.(closer).Close() })
			tt.run(t, store)
		})
	}

	t.Run("Merge", func(t *testing.T) {
		runMergeTest(t, newStore)
	})
	t.Run("ApplyUpdate", func(t *testing.T) {
		runApplyUpdateTest(t, newStore)
	})
}
