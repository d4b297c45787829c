package ldbridge

import (
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
)

func TestTripleJSONRoundTrip(t *testing.T) {
	original := triple("<test:123>", "<http://example.org/farm#name>", `"bes\"sie"@en`)

	data, err := json.Marshal(tripleJSON{original})
	if err != nil {
		t.Fatalf("Failed to marshal triple: %v", err)
	}
	var got tripleJSON
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to unmarshal triple JSON: %v", err)
	}
	if !original.Equals(got.Atom) {
		t.Errorf("Atoms not equal:\n  original=%v\n  unmarshalled=%v", original, got.Atom)
	}
}

func TestTripleJSONMissingField(t *testing.T) {
	var got tripleJSON
	err := json.Unmarshal([]byte(`{"subject":"<s:a>","object":"<o:y>","extra":[1]}`), &got)
	if err == nil {
		t.Fatal("expected an error for a triple without predicate")
	}
}

func TestExportImportJSON(t *testing.T) {
	src, err := NewTripleStoreSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer src.Close()
	src.Add(triple("<s:a>", "<p:x>", "<o:1>"))
	src.Add(triple("<s:a>", "<p:x>", `"two"`))

	var buf strings.Builder
	if _, err := src.ExportJSON(&buf); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	dst, err := NewTripleStoreSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer dst.Close()
	n, err := dst.ImportJSON(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("ImportJSON reported %d bytes, input was %d", n, buf.Len())
	}

	want, _ := src.Triples()
	got, _ := dst.Triples()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("imported triples = %v want %v", got, want)
	}
}
