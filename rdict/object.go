package rdict

// Object is the versionless in-memory representation every synthesized or
// built-in class descriptor decodes into (spec §9 "Dynamic class
// generation"): a class tag, the fields read for this particular version,
// and the decoded value of each Base element, in declaration order.
type Object struct {
	Class   string
	Version int32
	Fields  map[string]any
	Bases   []*Object
}

// Field retrieves a member by name, returning false if the current
// version's layout does not include it.
func (o *Object) Field(name string) (any, bool) {
	if o == nil || o.Fields == nil {
		return nil, false
	}
	v, ok := o.Fields[name]
	return v, ok
}

// fieldInt reads a member as an integer count (spec §4.D BasicPointer /
// Loop "n = member(count_name)"), tolerating any of the integer Kinds a
// count member might have been declared as.
func (o *Object) fieldInt(name string) (int, bool) {
	n, ok := o.FieldInt(name)
	return int(n), ok
}

// FieldInt reads a member as a 64-bit integer, tolerating any of the
// integer Kinds it might have been declared as. Exported for callers
// above rdict (rtree's TTree/TBranch field access) that need the same
// tolerant extraction this package uses internally for count members.
func (o *Object) FieldInt(name string) (int64, bool) {
	v, ok := o.Field(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case uint8:
		return int64(n), true
	case int16:
		return int64(n), true
	case uint16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

// FieldString reads a member expected to be a string, returning "" if
// absent or of a different type.
func (o *Object) FieldString(name string) string {
	v, ok := o.Field(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
