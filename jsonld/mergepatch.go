package jsonld

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bitbucket.org/creachadair/stringset"

	"github.com/twinfer/ldbridge/rdf"
)

// MergePatchCompiler rewrites a JSON Merge Patch on a JSON-LD resource as a
// SPARQL Update.
type MergePatchCompiler struct {
	persist    bool
	resolver   *Resolver
	translator *Translator
	log        *slog.Logger
	metrics    *Metrics
}

// NewMergePatchCompiler returns a compiler configured by opts.
func NewMergePatchCompiler(opts *Options) *MergePatchCompiler {
	c := &MergePatchCompiler{
		resolver:   NewResolver(opts.loader()),
		translator: NewTranslator(opts),
		log:        opts.logger(),
		metrics:    opts.metrics(),
	}
	if opts != nil {
		c.persist = opts.PersistContext
	}
	return c
}

// ToSparql compiles patch into a SPARQL Update. Every top-level member that
// maps to a predicate produces a DELETE pattern, and the non-null members
// of the patch are inserted. defaultContext is used when the patch has no
// @context of its own.
func (c *MergePatchCompiler) ToSparql(patch []byte, defaultContext string) (script string, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("patch", start, err) }()

	doc, err := Parse(patch)
	if err != nil {
		return "", badRequest("patch", err, "Could not parse request")
	}
	if doc.Kind() != ObjectKind {
		return "", badRequest("patch", nil, "Could not parse request: patch is a JSON %s", doc.Kind())
	}
	if _, ok := doc.Get(KeywordContext); !ok {
		if defaultContext == "" {
			return "", badRequest("patch", nil, "No context provided")
		}
		doc = doc.With(KeywordContext, String(defaultContext))
	}

	cxt, err := c.resolver.Resolve(doc)
	if err != nil {
		return "", err
	}
	predicates := c.deletePredicates(doc, cxt)

	triples, err := c.translator.TranslateValue(doc)
	if err != nil {
		return "", err
	}
	return BuildUpdate(predicates, triples), nil
}

// deletePredicates lists, in patch order and without repeats, the
// predicates whose current values the patch replaces.
func (c *MergePatchCompiler) deletePredicates(doc Value, cxt *Context) []string {
	var out []string
	seen := stringset.New()
	add := func(p string) {
		if seen.Add(p) {
			out = append(out, p)
		}
	}
	for _, m := range doc.Members() {
		switch cxt.Keyword(m.Name) {
		case KeywordType:
			add(rdf.RDFType)
			continue
		case KeywordID, KeywordContext:
			continue
		}
		p, ok := cxt.Predicate(m.Name)
		if !ok {
			c.log.Debug("patch field has no predicate in context", "field", m.Name, "context", cxt.String())
			continue
		}
		add(p)
	}
	// Only a context given by IRI is recorded again on insert.
	if raw, _ := doc.Get(KeywordContext); c.persist && raw.Kind() == StringKind {
		add(rdf.HasContext)
	}
	return out
}

// BuildUpdate assembles the DELETE/INSERT script. triples must be
// N-Triples text with one statement per line.
func BuildUpdate(predicates []string, triples string) string {
	var sb strings.Builder
	sb.WriteString("DELETE { \n")
	for _, p := range predicates {
		fmt.Fprintf(&sb, "?s <%s> ?o .\n", p)
	}
	sb.WriteString("}\n")
	sb.WriteString("INSERT { \n")
	sb.WriteString(triples)
	sb.WriteString("}\n")
	sb.WriteString("WHERE {?s ?p ?o}")
	return sb.String()
}
