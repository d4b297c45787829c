package jsonld

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/ldbridge/rdf"
)

func TestTranslate(t *testing.T) {
	tr := NewTranslator(testOptions(t))

	out, err := tr.Translate([]byte(initialCow))
	require.NoError(t, err)

	got := lines(out)
	assert.Len(t, got, 6)
	assert.Contains(t, got, "<test:123> <"+rdf.RDFType+"> <"+farmNS+"Cow> .")
	assert.Contains(t, got, "<test:123> <"+farmNS+"barn> <test:/barn> .")
	assert.Contains(t, got, "<test:123> <"+farmNS+"calves> <test:/1> .")
	assert.Contains(t, got, "<test:123> <"+farmNS+"calves> <test:2> .")
	assert.Contains(t, got, `<test:123> <`+farmNS+`healthy> "true"^^<http://www.w3.org/2001/XMLSchema#boolean> .`)
	assert.Len(t, matching(got, farmNS+"milkVolume"), 1)
}

func TestTranslateTypedLiteral(t *testing.T) {
	doc, err := os.ReadFile("testdata/cow.jsonld")
	require.NoError(t, err)

	out, err := NewTranslator(testOptions(t, strict)).Translate(doc)
	require.NoError(t, err)
	assert.Contains(t, lines(out),
		`<test:123> <`+farmNS+`birthDate> "1980-03-20T21:25:43.511Z"^^<http://www.w3.org/2001/XMLSchema#dateTime> .`)
}

func TestTranslateNullRelative(t *testing.T) {
	tr := NewTranslator(testOptions(t))

	out, err := tr.Translate([]byte(`{"@id":"","name":"bessie","@context":"http://example.org/farm"}`))
	require.NoError(t, err)
	assert.Equal(t, "<> <"+farmNS+`name> "bessie" .`+"\n", out)

	out, err = tr.Translate([]byte(`{"@id":"#me","barn":"#barn","@context":"http://example.org/farm"}`))
	require.NoError(t, err)
	assert.Equal(t, "<#me> <"+farmNS+"barn> <#barn> .\n", out)
	assert.NotContains(t, out, tr.base)
}

func TestTranslateBlankSubject(t *testing.T) {
	out, err := NewTranslator(testOptions(t)).Translate([]byte(`{"name":"bessie","@context":"http://example.org/farm"}`))
	require.NoError(t, err)
	got := lines(out)
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "_:"), "subject should be a blank node: %s", got[0])
}

func TestTranslatorBasesAreUnique(t *testing.T) {
	opts := testOptions(t)
	a, b := NewTranslator(opts), NewTranslator(opts)
	assert.NotEqual(t, a.base, b.base)
	assert.True(t, strings.HasSuffix(a.base, ".null.invalid/"))
}

func TestTranslateStrict(t *testing.T) {
	doc := []byte(`{"@id":"test:123","color":"brown","name":"bessie","@context":"http://example.org/farm"}`)

	_, err := NewTranslator(testOptions(t, strict)).Translate(doc)
	require.Error(t, err)
	assert.True(t, IsBadRequest(err))
	assert.Equal(t, "Unknown attribute color", Message(err))

	out, err := NewTranslator(testOptions(t)).Translate(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"<test:123> <" + farmNS + `name> "bessie" .`}, lines(out))
}

func TestTranslateStrictAliases(t *testing.T) {
	doc := []byte(`{"id":"test:123","type":"Cow","name":"bessie","@context":"http://example.org/farm-aliased"}`)

	out, err := NewTranslator(testOptions(t, strict)).Translate(doc)
	require.NoError(t, err)
	assert.Contains(t, lines(out), "<test:123> <"+rdf.RDFType+"> <"+farmNS+"Cow> .")
}

func TestTranslateStrictInlineContext(t *testing.T) {
	doc := []byte(`{"@id":"test:1","label":"x","@context":{"label":"http://www.w3.org/2000/01/rdf-schema#label"}}`)

	out, err := NewTranslator(testOptions(t, strict)).Translate(doc)
	require.NoError(t, err)
	assert.Equal(t, `<test:1> <http://www.w3.org/2000/01/rdf-schema#label> "x" .`+"\n", out)
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		opts func(*Options)
		kind Kind
	}{
		{"malformed json", `{"@id":`, func(*Options) {}, KindBadRequest},
		{"duplicate member", `{"@id":"test:1","@id":"test:2"}`, func(*Options) {}, KindBadRequest},
		{"strict without context", `{"@id":"test:1","name":"x"}`, strict, KindBadRequest},
		{"strict numeric context", `{"@id":"test:1","@context":42}`, strict, KindBadRequest},
		{"strict unknown context", `{"@id":"test:1","@context":"http://example.org/missing"}`, strict, KindFatal},
		{"unknown context", `{"@id":"test:1","@context":"http://example.org/missing"}`, func(*Options) {}, KindBadRequest},
		{"strict array context", `{"@id":"test:123","healthy":true,"@context":["http://example.org/farm"]}`, strict, KindBadRequest},
		{"number out of range", `{"@id":"test:1","milkVolume":1e400,"@context":"http://example.org/farm"}`, func(*Options) {}, KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewTranslator(testOptions(t, tt.opts)).Translate([]byte(tt.doc))
			require.Error(t, err)
			assert.Empty(t, out)
			assert.Equal(t, tt.kind, KindOf(err), "error: %v", err)
		})
	}
}

func TestTranslatePersistContext(t *testing.T) {
	out, err := NewTranslator(testOptions(t, persistContext)).Translate([]byte(initialCow))
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"<test:123> <" + rdf.HasContext + "> <" + farmIRI + "> ."},
		matching(lines(out), rdf.HasContext))

	// Inline contexts have no IRI to record.
	out, err = NewTranslator(testOptions(t, persistContext)).Translate(
		[]byte(`{"@id":"test:1","label":"x","@context":{"label":"http://www.w3.org/2000/01/rdf-schema#label"}}`))
	require.NoError(t, err)
	assert.Empty(t, matching(lines(out), rdf.HasContext))
}
