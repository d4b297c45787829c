package jsonld

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	NullKind ValueKind = iota
	BoolKind
	NumberKind
	StringKind
	ArrayKind
	ObjectKind
)

func (k ValueKind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	}
	return "unknown"
}

// Member is one name/value pair of a JSON object.
type Member struct {
	Name  string
	Value Value
}

// Value is an immutable JSON value. Objects keep their member order so that
// validation errors and generated scripts follow document order.
// The zero Value is JSON null.
type Value struct {
	kind ValueKind
	b    bool
	s    string // string contents, or the raw text of a number
	arr  []Value
	obj  []Member
}

var (
	_ json.MarshalerTo     = Value{}
	_ json.UnmarshalerFrom = (*Value)(nil)
)

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{kind: BoolKind, b: b} }

// String returns a JSON string.
func String(s string) Value { return Value{kind: StringKind, s: s} }

// Number returns a JSON number from its literal text.
func Number(raw string) Value { return Value{kind: NumberKind, s: raw} }

// Array returns a JSON array of elems.
func Array(elems ...Value) Value {
	return Value{kind: ArrayKind, arr: append([]Value{}, elems...)}
}

// Object returns a JSON object with members in the given order.
func Object(members ...Member) Value {
	return Value{kind: ObjectKind, obj: append([]Member{}, members...)}
}

// Parse decodes exactly one JSON value. Duplicate member names, invalid
// UTF-8 and trailing data are errors.
func Parse(data []byte) (Value, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	var v Value
	if err := v.UnmarshalJSONFrom(dec); err != nil {
		return Value{}, err
	}
	if _, err := dec.ReadToken(); err != io.EOF {
		if err == nil {
			return Value{}, errors.New("unexpected data after top-level value")
		}
		return Value{}, err
	}
	return v, nil
}

// UnmarshalJSONFrom implements json.UnmarshalerFrom.
func (v *Value) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	tok, err := dec.ReadToken()
	if err != nil {
		return err
	}
	switch tok.Kind() {
	case 'n':
		*v = Null()
	case 't', 'f':
		*v = Bool(tok.Bool())
	case '"':
		*v = String(tok.String())
	case '0':
		*v = Number(tok.String())
	case '[':
		var elems []Value
		for dec.PeekKind() != ']' {
			var elem Value
			if err := elem.UnmarshalJSONFrom(dec); err != nil {
				return err
			}
			elems = append(elems, elem)
		}
		if _, err := dec.ReadToken(); err != nil {
			return err
		}
		*v = Value{kind: ArrayKind, arr: elems}
	case '{':
		var members []Member
		for dec.PeekKind() != '}' {
			tok, err := dec.ReadToken()
			if err != nil {
				return err
			}
			// The token is only valid until the next decoder call.
			name := tok.String()
			var val Value
			if err := val.UnmarshalJSONFrom(dec); err != nil {
				return err
			}
			members = append(members, Member{Name: name, Value: val})
		}
		if _, err := dec.ReadToken(); err != nil {
			return err
		}
		*v = Value{kind: ObjectKind, obj: members}
	default:
		return fmt.Errorf("unexpected JSON token %v", tok.Kind())
	}
	return nil
}

// MarshalJSONTo implements json.MarshalerTo.
func (v Value) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch v.kind {
	case NullKind:
		return enc.WriteToken(jsontext.Null)
	case BoolKind:
		return enc.WriteToken(jsontext.Bool(v.b))
	case StringKind:
		return enc.WriteToken(jsontext.String(v.s))
	case NumberKind:
		return enc.WriteValue(jsontext.Value(v.s))
	case ArrayKind:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, elem := range v.arr {
			if err := elem.MarshalJSONTo(enc); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	case ObjectKind:
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for _, m := range v.obj {
			if err := enc.WriteToken(jsontext.String(m.Name)); err != nil {
				return err
			}
			if err := m.Value.MarshalJSONTo(enc); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndObject)
	}
	return fmt.Errorf("invalid value kind %d", v.kind)
}

// Bytes returns the compact JSON encoding of v.
func (v Value) Bytes() []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// Pretty returns v as JSON indented with two spaces.
func (v Value) Pretty() (string, error) {
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf, jsontext.WithIndent("  "))
	if err := v.MarshalJSONTo(enc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (v Value) String() string { return string(v.Bytes()) }

// Kind reports which variant v holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == NullKind }

// Str returns the contents of a string value.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == StringKind
}

// Elems returns the elements of an array value.
func (v Value) Elems() []Value {
	if v.kind != ArrayKind {
		return nil
	}
	return append([]Value{}, v.arr...)
}

// Members returns the members of an object value in document order.
func (v Value) Members() []Member {
	if v.kind != ObjectKind {
		return nil
	}
	return append([]Member{}, v.obj...)
}

// Get returns the member called name.
func (v Value) Get(name string) (Value, bool) {
	if v.kind != ObjectKind {
		return Value{}, false
	}
	for _, m := range v.obj {
		if m.Name == name {
			return m.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of object v with member name set to val. An existing
// member keeps its position, a new one is appended.
func (v Value) With(name string, val Value) Value {
	members := make([]Member, 0, len(v.obj)+1)
	replaced := false
	for _, m := range v.obj {
		if m.Name == name {
			m.Value = val
			replaced = true
		}
		members = append(members, m)
	}
	if !replaced {
		members = append(members, Member{Name: name, Value: val})
	}
	return Value{kind: ObjectKind, obj: members}
}

// WithFirst returns a copy of object v with member name set to val and
// moved to the front.
func (v Value) WithFirst(name string, val Value) Value {
	members := make([]Member, 0, len(v.obj)+1)
	members = append(members, Member{Name: name, Value: val})
	for _, m := range v.obj {
		if m.Name != name {
			members = append(members, m)
		}
	}
	return Value{kind: ObjectKind, obj: members}
}

// Without returns a copy of object v without member name.
func (v Value) Without(name string) Value {
	members := make([]Member, 0, len(v.obj))
	for _, m := range v.obj {
		if m.Name != name {
			members = append(members, m)
		}
	}
	return Value{kind: ObjectKind, obj: members}
}

// Interface converts v into the generic form json-gold consumes. Numbers
// become float64; a number outside the float64 range is an error.
func (v Value) Interface() (any, error) {
	switch v.kind {
	case BoolKind:
		return v.b, nil
	case StringKind:
		return v.s, nil
	case NumberKind:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", v.s, err)
		}
		return f, nil
	case ArrayKind:
		out := make([]any, len(v.arr))
		for i, elem := range v.arr {
			x, err := elem.Interface()
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case ObjectKind:
		out := make(map[string]any, len(v.obj))
		for _, m := range v.obj {
			x, err := m.Value.Interface()
			if err != nil {
				return nil, err
			}
			out[m.Name] = x
		}
		return out, nil
	}
	return nil, nil
}

// FromInterface converts a generic JSON tree, as produced by json-gold, into
// a Value. Object members are sorted by name.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case int:
		return Number(strconv.Itoa(t)), nil
	case int64:
		return Number(strconv.FormatInt(t, 10)), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = ev
		}
		return Value{kind: ArrayKind, arr: elems}, nil
	case map[string]any:
		names := make([]string, 0, len(t))
		for name := range t {
			names = append(names, name)
		}
		sort.Strings(names)
		members := make([]Member, 0, len(t))
		for _, name := range names {
			mv, err := FromInterface(t[name])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Name: name, Value: mv})
		}
		return Value{kind: ObjectKind, obj: members}, nil
	case []map[string]any:
		elems := make([]any, len(t))
		for i, m := range t {
			elems[i] = m
		}
		return FromInterface(elems)
	}
	return Value{}, fmt.Errorf("unsupported JSON type %T", x)
}
