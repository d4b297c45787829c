package jsonld

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/piprate/json-gold/ld"

	"github.com/twinfer/ldbridge/rdf"
)

// Translator turns JSON-LD documents into N-Quads text.
//
// Relative identifiers are resolved against a base made of a random host
// that is unique to the translator, and every occurrence of that base is
// stripped from the output. A document with "@id": "" therefore yields
// triples about <>.
type Translator struct {
	base     string
	strict   bool
	persist  bool
	loader   ld.DocumentLoader
	resolver *Resolver
	log      *slog.Logger
	metrics  *Metrics
}

// NewTranslator returns a translator configured by opts.
func NewTranslator(opts *Options) *Translator {
	loader := opts.loader()
	t := &Translator{
		base:     "http://" + uuid.NewString() + ".null.invalid/",
		loader:   loader,
		resolver: NewResolver(loader),
		log:      opts.logger(),
		metrics:  opts.metrics(),
	}
	if opts != nil {
		t.strict = opts.Strict
		t.persist = opts.PersistContext
	}
	return t
}

// Translate parses jsonld and returns its triples as N-Quads text.
func (t *Translator) Translate(jsonld []byte) (string, error) {
	doc, err := Parse(jsonld)
	if err != nil {
		return "", badRequest("translate", err, "Could not parse jsonld")
	}
	return t.TranslateValue(doc)
}

// TranslateValue returns the triples of doc as N-Quads text.
func (t *Translator) TranslateValue(doc Value) (nquads string, err error) {
	start := time.Now()
	defer func() { t.metrics.Observe("translate", start, err) }()

	ds, err := t.dataset(doc)
	if err != nil {
		return "", err
	}
	text, err := rdf.Serialize(ds)
	if err != nil {
		return "", badRequest("translate", err, "Could not parse jsonld")
	}
	return strings.ReplaceAll(text, t.base, ""), nil
}

// dataset runs validation and RDF conversion without serializing. IRIs in
// the result still carry the translator's base.
func (t *Translator) dataset(doc Value) (*ld.RDFDataset, error) {
	if t.strict {
		cxt, err := t.resolver.Resolve(doc)
		if err != nil {
			return nil, err
		}
		if err := Validate(doc, cxt); err != nil {
			return nil, err
		}
	}
	if t.persist {
		doc = withContextMarker(doc)
	}

	opts := ld.NewJsonLdOptions(t.base)
	opts.DocumentLoader = t.loader
	input, err := doc.Interface()
	if err != nil {
		return nil, badRequest("translate", err, "Could not parse jsonld")
	}
	out, err := ld.NewJsonLdProcessor().ToRDF(input, opts)
	if err != nil {
		return nil, badRequest("translate", err, "Could not parse jsonld")
	}
	ds, ok := out.(*ld.RDFDataset)
	if !ok {
		return nil, badRequest("translate", fmt.Errorf("unexpected result %T", out), "Could not parse jsonld")
	}
	t.log.Debug("translated document", "triples", len(ds.GetQuads(rdf.DefaultGraph)))
	return ds, nil
}

// withContextMarker adds the has-context link to doc when its context is
// given by reference.
func withContextMarker(doc Value) Value {
	if doc.Kind() != ObjectKind {
		return doc
	}
	raw, ok := doc.Get(KeywordContext)
	if !ok {
		return doc
	}
	iri, ok := raw.Str()
	if !ok || iri == "" {
		return doc
	}
	return doc.With(rdf.HasContext, Object(Member{Name: KeywordID, Value: String(iri)}))
}
