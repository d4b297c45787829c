package jsonld

import (
	"fmt"
	"strings"

	"bitbucket.org/creachadair/stringset"
	"github.com/piprate/json-gold/ld"
)

// Reserved keywords every document may carry at the top level.
const (
	KeywordID      = "@id"
	KeywordType    = "@type"
	KeywordContext = "@context"
	KeywordGraph   = "@graph"
)

var reserved = stringset.New(KeywordID, KeywordType, KeywordContext)

// Context is a resolved JSON-LD context.
type Context struct {
	// IRI is set when the context was resolved by reference.
	IRI string

	terms    map[string]string // term -> predicate IRI
	aliases  map[string]string // alias -> keyword
	declared stringset.Set     // keys of the raw context object
}

// Predicate returns the IRI a term expands to.
func (c *Context) Predicate(term string) (string, bool) {
	iri, ok := c.terms[term]
	return iri, ok
}

// Keyword returns the keyword name stands for: itself if it is a reserved
// keyword, the aliased keyword if it is an alias, or "".
func (c *Context) Keyword(name string) string {
	if reserved.Contains(name) {
		return name
	}
	return c.aliases[name]
}

// Recognizes reports whether name is a reserved keyword, a term or an alias.
func (c *Context) Recognizes(name string) bool {
	if c.Keyword(name) != "" {
		return true
	}
	_, ok := c.terms[name]
	return ok
}

// Declares reports whether name is a key of the raw context.
func (c *Context) Declares(name string) bool {
	return c.declared.Contains(name)
}

func (c *Context) String() string {
	if c.IRI != "" {
		return c.IRI
	}
	return fmt.Sprintf("context(%d terms)", len(c.terms))
}

// Resolver turns a document's @context into a Context.
type Resolver struct {
	loader ld.DocumentLoader
}

// NewResolver returns a resolver that dereferences IRIs through loader.
func NewResolver(loader ld.DocumentLoader) *Resolver {
	return &Resolver{loader: loader}
}

// Resolve resolves the @context member of doc, which must be an IRI or an
// object. A missing or malformed context is a BadRequest; failing to fetch
// a referenced context is Fatal.
func (r *Resolver) Resolve(doc Value) (*Context, error) {
	if doc.Kind() != ObjectKind {
		return nil, badRequest("resolve", nil, "Could not parse context: document is a JSON %s", doc.Kind())
	}
	raw, ok := doc.Get(KeywordContext)
	if !ok {
		return nil, badRequest("resolve", nil, "Could not parse context: missing %s", KeywordContext)
	}
	switch raw.Kind() {
	case StringKind:
		iri, _ := raw.Str()
		return r.ResolveIRI(iri)
	case ObjectKind:
		local, err := raw.Interface()
		if err != nil {
			return nil, badRequest("resolve", err, "Could not parse context")
		}
		return r.build("", local)
	}
	return nil, badRequest("resolve", nil, "Could not parse context")
}

// ResolveIRI dereferences iri and resolves the context it holds.
func (r *Resolver) ResolveIRI(iri string) (*Context, error) {
	local, err := r.fetch(iri)
	if err != nil {
		return nil, err
	}
	return r.build(iri, local)
}

// fetch loads iri and returns the value of its @context member.
func (r *Resolver) fetch(iri string) (any, error) {
	remote, err := r.loader.LoadDocument(iri)
	if err != nil {
		return nil, fatal("resolve", err, "Could not load context %s", iri)
	}
	doc, ok := remote.Document.(map[string]any)
	if !ok {
		return nil, badRequest("resolve", nil, "Could not parse context %s: not a JSON object", iri)
	}
	local, ok := doc[KeywordContext]
	if !ok {
		return nil, badRequest("resolve", nil, "Could not parse context %s: no %s member", iri, KeywordContext)
	}
	return local, nil
}

func (r *Resolver) build(iri string, local any) (*Context, error) {
	obj, ok := local.(map[string]any)
	if !ok {
		return nil, badRequest("resolve", nil, "Could not parse context: expected a JSON object, got %T", local)
	}

	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = r.loader
	parsed, err := ld.NewContext(nil, opts).Parse(obj)
	if err != nil {
		return nil, badRequest("resolve", err, "Could not parse context")
	}

	cxt := &Context{
		IRI:      iri,
		terms:    make(map[string]string),
		aliases:  make(map[string]string),
		declared: stringset.New(),
	}
	for key, val := range obj {
		cxt.declared.Add(key)
		if kw := aliasTarget(val); kw != "" && !strings.HasPrefix(key, "@") {
			cxt.aliases[key] = kw
		}
	}
	for term, id := range parsed.GetPrefixes(false) {
		if parsed.IsReverseProperty(term) {
			continue
		}
		cxt.terms[term] = id
	}
	return cxt, nil
}

// aliasTarget returns the keyword a raw term definition aliases, if any.
func aliasTarget(val any) string {
	var id string
	switch t := val.(type) {
	case string:
		id = t
	case map[string]any:
		id, _ = t[KeywordID].(string)
	}
	if reserved.Contains(id) {
		return id
	}
	return ""
}
