package jsonld

import (
	"errors"
	"log/slog"
	"time"

	"github.com/piprate/json-gold/ld"

	"github.com/twinfer/ldbridge/rdf"
)

// Compactor renders repository output as compacted JSON-LD bound to a
// context IRI.
type Compactor struct {
	persist    bool
	limit      bool
	loader     ld.DocumentLoader
	resolver   *Resolver
	translator *Translator
	log        *slog.Logger
	metrics    *Metrics
}

// NewCompactor returns a compactor configured by opts.
func NewCompactor(opts *Options) *Compactor {
	loader := opts.loader()
	c := &Compactor{
		loader:   loader,
		resolver: NewResolver(loader),
		log:      opts.logger(),
		metrics:  opts.metrics(),
	}
	if opts != nil {
		c.persist = opts.PersistContext
		c.limit = opts.LimitCompaction
	}
	// Context discovery reads the document as stored, so its translator is
	// neither strict nor adds markers.
	c.translator = NewTranslator(&Options{Loader: loader, Logger: c.log})
	return c
}

// Compact compacts jsonld against defaultContext, or against the context the
// resource was written with when persisted contexts are enabled. Without
// any context the document is returned pretty-printed but otherwise
// unchanged. Every failure is Fatal.
func (c *Compactor) Compact(jsonld []byte, defaultContext string) (out string, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("compact", start, err) }()

	doc, err := Parse(jsonld)
	if err != nil {
		return "", fatal("compact", err, "Could not parse jsonld")
	}

	iri := defaultContext
	if c.persist {
		ds, err := c.translator.dataset(doc)
		if err != nil {
			return "", asFatal("compact", err)
		}
		if stored, ok := rdf.FindObject(ds, rdf.HasContext); ok {
			iri = stored
		}
	}
	if iri == "" {
		return c.pretty(doc)
	}

	cxt, err := c.resolver.ResolveIRI(iri)
	if err != nil {
		return "", asFatal("compact", err)
	}
	local, err := c.resolver.fetch(iri)
	if err != nil {
		return "", asFatal("compact", err)
	}

	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = c.loader
	input, err := doc.Interface()
	if err != nil {
		return "", fatal("compact", err, "Could not parse jsonld")
	}
	compacted, err := ld.NewJsonLdProcessor().Compact(input, map[string]any{KeywordContext: local}, opts)
	if err != nil {
		return "", fatal("compact", err, "Could not compact jsonld")
	}
	result, err := FromInterface(compacted)
	if err != nil {
		return "", fatal("compact", err, "Could not compact jsonld")
	}

	if c.limit {
		result = c.trim(result, cxt)
	}
	return c.pretty(result.WithFirst(KeywordContext, String(iri)))
}

func (c *Compactor) pretty(v Value) (string, error) {
	text, err := v.Pretty()
	if err != nil {
		return "", fatal("compact", err, "Could not write jsonld")
	}
	return text, nil
}

// trim drops the members of node that cxt does not declare. Nodes of a
// top-level @graph are trimmed the same way.
func (c *Compactor) trim(node Value, cxt *Context) Value {
	if node.Kind() != ObjectKind {
		return node
	}
	out := node
	for _, m := range node.Members() {
		switch cxt.Keyword(m.Name) {
		case KeywordID, KeywordContext:
			continue
		case KeywordType:
			if types, keep := filterTypes(m.Value, cxt); keep {
				out = out.With(m.Name, types)
			} else {
				out = out.Without(m.Name)
			}
			continue
		}
		if m.Name == KeywordGraph && m.Value.Kind() == ArrayKind {
			var nodes []Value
			for _, n := range m.Value.Elems() {
				nodes = append(nodes, c.trim(n, cxt))
			}
			out = out.With(m.Name, Array(nodes...))
			continue
		}
		if cxt.Declares(m.Name) {
			continue
		}
		if _, ok := cxt.Predicate(m.Name); ok {
			continue
		}
		c.log.Debug("dropping json field not in context", "field", m.Name, "context", cxt.String())
		out = out.Without(m.Name)
	}
	return out
}

// filterTypes keeps the entries of a @type list that cxt declares. An empty
// result drops the member and a single entry collapses to a scalar.
func filterTypes(types Value, cxt *Context) (Value, bool) {
	if types.Kind() != ArrayKind {
		return types, true
	}
	var kept []Value
	for _, t := range types.Elems() {
		if s, ok := t.Str(); ok && cxt.Declares(s) {
			kept = append(kept, t)
		}
	}
	switch len(kept) {
	case 0:
		return Value{}, false
	case 1:
		return kept[0], true
	}
	return Array(kept...), true
}

// asFatal reclassifies an engine error as Fatal, keeping its message.
func asFatal(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindFatal {
			return e
		}
		return &Error{Kind: KindFatal, Op: op, Msg: e.Msg, Err: e.Err}
	}
	return fatal(op, err, "")
}
