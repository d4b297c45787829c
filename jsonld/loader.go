package jsonld

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/piprate/json-gold/ld"
	"golang.org/x/sync/errgroup"
)

// Loader dereferences context IRIs for json-gold. Documents injected at
// startup are served from memory, everything else is fetched through the
// fallback loader on every call.
type Loader struct {
	mu       sync.RWMutex
	injected map[string]any
	next     ld.DocumentLoader
}

var _ ld.DocumentLoader = (*Loader)(nil)

// NewLoader returns a loader that fetches unknown IRIs with client.
// A nil client uses http.DefaultClient.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		injected: make(map[string]any),
		next:     ld.NewDefaultDocumentLoader(client),
	}
}

// NewStaticLoader returns a loader that only serves injected documents.
func NewStaticLoader() *Loader {
	return &Loader{injected: make(map[string]any)}
}

// AddInjectedDoc registers content as the document for iri.
func (l *Loader) AddInjectedDoc(iri string, content []byte) error {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("failed to parse injected document %s: %w", iri, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.injected[iri] = doc
	return nil
}

// Preload reads every file of the IRI to path table and injects it.
func (l *Loader) Preload(table map[string]string) error {
	iris := make([]string, 0, len(table))
	for iri := range table {
		iris = append(iris, iri)
	}
	sort.Strings(iris)

	var g errgroup.Group
	g.SetLimit(8)
	for _, iri := range iris {
		path := table[iri]
		g.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to preload %s: %w", iri, err)
			}
			return l.AddInjectedDoc(iri, content)
		})
	}
	return g.Wait()
}

// Injected returns the sorted IRIs of all injected documents.
func (l *Loader) Injected() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	iris := make([]string, 0, len(l.injected))
	for iri := range l.injected {
		iris = append(iris, iri)
	}
	sort.Strings(iris)
	return iris
}

// LoadDocument implements ld.DocumentLoader. Injected documents are returned
// as deep copies so that callers cannot alter the table.
func (l *Loader) LoadDocument(iri string) (*ld.RemoteDocument, error) {
	l.mu.RLock()
	doc, ok := l.injected[iri]
	l.mu.RUnlock()
	if ok {
		return &ld.RemoteDocument{DocumentURL: iri, Document: deepCopy(doc)}, nil
	}
	if l.next == nil {
		return nil, fmt.Errorf("no document registered for %s", iri)
	}
	return l.next.LoadDocument(iri)
}

func deepCopy(x any) any {
	switch t := x.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = deepCopy(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = deepCopy(v)
		}
		return out
	}
	return x
}
