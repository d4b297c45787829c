package jsonld

// Validate checks that every top-level member of doc is a reserved keyword, a
// term of cxt or an alias declared by cxt. The first unknown member, in
// document order, is reported as a BadRequest.
func Validate(doc Value, cxt *Context) error {
	for _, m := range doc.Members() {
		if !cxt.Recognizes(m.Name) {
			return badRequest("validate", nil, "Unknown attribute %s", m.Name)
		}
	}
	return nil
}
