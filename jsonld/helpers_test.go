package jsonld

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twinfer/ldbridge"
)

const (
	farmIRI     = "http://example.org/farm"
	aliasedIRI  = "http://example.org/farm-aliased"
	registryIRI = "http://example.org/farm-registry"

	farmNS = "http://example.org/farm#"

	initialCow = `{"@id":"test:123","@type":"Cow","healthy":true,"milkVolume":100.6,"barn":"test:/barn","calves":["test:/1","test:2"],"@context":"http://example.org/farm"}`
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	loader := NewStaticLoader()
	require.NoError(t, loader.Preload(map[string]string{
		farmIRI:     "testdata/farm.jsonld",
		aliasedIRI:  "testdata/farm-aliased.jsonld",
		registryIRI: "testdata/farm-registry.jsonld",
	}))
	return loader
}

func testOptions(t *testing.T, configure ...func(*Options)) *Options {
	t.Helper()
	opts := &Options{Loader: newTestLoader(t)}
	for _, c := range configure {
		c(opts)
	}
	return opts
}

func strict(o *Options)          { o.Strict = true }
func persistContext(o *Options)  { o.PersistContext = true }
func limitCompaction(o *Options) { o.LimitCompaction = true }

// lines splits N-Triples text into sorted statements.
func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// without returns the statements that do not mention predicate.
func without(stmts []string, predicate string) []string {
	var out []string
	for _, s := range stmts {
		if !strings.Contains(s, "<"+predicate+">") {
			out = append(out, s)
		}
	}
	return out
}

// matching returns the statements that mention predicate.
func matching(stmts []string, predicate string) []string {
	var out []string
	for _, s := range stmts {
		if strings.Contains(s, "<"+predicate+">") {
			out = append(out, s)
		}
	}
	return out
}

// newStoreWith returns an in-memory triple store holding ntriples.
func newStoreWith(t *testing.T, ntriples string) *ldbridge.TripleStore {
	t.Helper()
	store, err := ldbridge.NewTripleStoreSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	_, err = store.LoadNTriples(ntriples)
	require.NoError(t, err)
	return store
}
