package rdict

import (
	"fmt"

	"github.com/go-hep/groot/rbytes"
)

// STL container-type codes (TClassEdit::ESTLType), as recorded in a
// TStreamerSTL's fSTLtype.
const (
	stlVector   = 1
	stlList     = 2
	stlDeque    = 3
	stlMap      = 4
	stlMultiMap = 5
	stlSet      = 6
	stlMultiSet = 7
)

// Schema is the compiled, per-version reader for one class (spec §9: "a
// runtime schema ... interpreted by a small VM, not code-generated").
// It is produced once from a StreamerInfo by synthesize and then reused
// for every object of that (class, version).
type Schema struct {
	Class    string
	Version  int32
	Elements []*StreamerElement
}

// synthesize compiles a StreamerInfo into a Schema. Spec §4.D describes
// this as producing "a reader fragment" per element; here that fragment
// is simply the StreamerElement itself, since readElement below
// interprets it directly rather than emitting Go closures — the
// synthesizer's job is picking apart TStreamerInfo, not code generation.
func synthesize(si *StreamerInfo) *Schema {
	return &Schema{Class: si.Name, Version: si.Version, Elements: si.Elements}
}

// Read decodes one object of this schema's (class, version) from c,
// resolving nested class reads and STL content types through reg.
func (s *Schema) Read(c *rbytes.Cursor, reg *Registry) (*Object, error) {
	obj := &Object{Class: s.Class, Version: s.Version, Fields: make(map[string]any, len(s.Elements))}
	for _, el := range s.Elements {
		v, err := s.readElement(c, reg, obj, el)
		if err != nil {
			return nil, fmt.Errorf("rdict: %s v%d: member %q: %w", s.Class, s.Version, el.Name, err)
		}
		if el.Kind == KindBase {
			if base, ok := v.(*Object); ok {
				obj.Bases = append(obj.Bases, base)
			}
			continue
		}
		obj.Fields[el.Name] = v
	}
	if c.Err() != nil {
		return nil, c.Err()
	}
	return obj, nil
}

func (s *Schema) readElement(c *rbytes.Cursor, reg *Registry, obj *Object, el *StreamerElement) (any, error) {
	switch el.Kind {
	case KindBase:
		// el.Name is the base class's own name for TStreamerBase elements;
		// el.BaseVersion only records the version it was synthesized
		// against and is not enforced, the on-disk header is authoritative.
		return reg.ReadObject(c, el.Name)

	case KindBasicType:
		k, ok := typeNameToKind(el.TypeName)
		if !ok {
			return nil, fmt.Errorf("rdict: unrecognized basic type %q", el.TypeName)
		}
		n := int(el.ArrayLength)
		if n <= 1 {
			arr := c.Array(1, k)
			return elemAt0(arr), nil
		}
		return c.Array(n, k), nil

	case KindBasicPointer:
		c.Skip(1) // speedbump
		n, ok := obj.fieldInt(el.CountName)
		if !ok {
			return nil, fmt.Errorf("rdict: count member %q not yet decoded for %q", el.CountName, el.Name)
		}
		k, ok := typeNameToKind(el.TypeName)
		if !ok {
			return nil, fmt.Errorf("rdict: unrecognized pointed-to type %q", el.TypeName)
		}
		return c.Array(n, k), nil

	case KindLoop:
		c.Skip(6) // nested byte-count+version header
		n, ok := obj.fieldInt(el.CountName)
		if !ok {
			return nil, fmt.Errorf("rdict: loop count member %q not yet decoded for %q", el.CountName, el.Name)
		}
		out := make([]*Object, n)
		for i := 0; i < n; i++ {
			nested, err := reg.ReadObject(c, el.TypeName)
			if err != nil {
				return nil, fmt.Errorf("loop element %d: %w", i, err)
			}
			out[i] = nested
		}
		return out, nil

	case KindSTL:
		return readSTL(c, reg, el)

	case KindSTLstring:
		c.Skip(6)
		return c.String(), nil

	case KindObjectPointer:
		// Inline: kObjectp/kAnyp never write a class tag, the object
		// follows immediately at its nominal type.
		return reg.ReadObject(c, el.TypeName)

	case KindObjectAnyPointer:
		return reg.readObjectAny(c)

	case KindString:
		// TString has no class-level version header of its own, even
		// when it appears as a named member (ROOT's TString::Streamer
		// writes/reads the raw length-prefixed bytes directly).
		return c.String(), nil

	case KindObject:
		return reg.ReadObject(c, el.TypeName)

	case KindArtificial:
		return nil, &rbytes.UnsupportedFeature{Feature: fmt.Sprintf("artificial streamer element %q (class %s)", el.Name, el.TypeName)}

	default:
		return nil, fmt.Errorf("rdict: unhandled element kind %v", el.Kind)
	}
}

func elemAt0(arr any) any {
	switch a := arr.(type) {
	case []bool:
		return a[0]
	case []int8:
		return a[0]
	case []uint8:
		return a[0]
	case []int16:
		return a[0]
	case []uint16:
		return a[0]
	case []int32:
		return a[0]
	case []uint32:
		return a[0]
	case []int64:
		return a[0]
	case []uint64:
		return a[0]
	case []float32:
		return a[0]
	case []float64:
		return a[0]
	default:
		return nil
	}
}

// typeNameToKind maps a canonicalized C++ primitive spelling to its Kind.
func typeNameToKind(name string) (rbytes.Kind, bool) {
	switch name {
	case "bool":
		return rbytes.KindBool, true
	case "char", "signed char":
		return rbytes.KindI8, true
	case "unsigned char":
		return rbytes.KindU8, true
	case "short":
		return rbytes.KindI16, true
	case "unsigned short":
		return rbytes.KindU16, true
	case "int":
		return rbytes.KindI32, true
	case "unsigned int", "unsigned":
		return rbytes.KindU32, true
	case "long", "long long":
		return rbytes.KindI64, true
	case "unsigned long", "unsigned long long":
		return rbytes.KindU64, true
	case "float":
		return rbytes.KindF32, true
	case "double":
		return rbytes.KindF64, true
	default:
		return 0, false
	}
}

// readSTL decodes a KindSTL element (spec §4.D): vectors, lists, deques
// and sets of a primitive skip their header and read a counted array;
// map<string,string> has a dedicated reader; anything else is a loud
// UnsupportedFeature. STL strings (KindSTLstring) are read by readElement,
// not here.
func readSTL(c *rbytes.Cursor, reg *Registry, el *StreamerElement) (any, error) {
	switch {
	case el.TypeName == "map<string,string>" || el.TypeName == "std::map<std::string,std::string>":
		return readStringStringMap(c)

	case el.STLType == stlVector || el.STLType == stlSet || el.STLType == stlList || el.STLType == stlDeque:
		inner, err := stlElementTypeName(el.TypeName)
		if err != nil {
			return nil, err
		}
		if k, ok := typeNameToKind(canonicalize(inner)); ok {
			c.Skip(6) // container's byte-count+version header
			n := int(c.ReadU32())
			return c.Array(n, k), nil
		}
		return nil, &rbytes.UnsupportedFeature{Feature: fmt.Sprintf("STL container of non-primitive element %q", inner)}

	default:
		return nil, &rbytes.UnsupportedFeature{Feature: fmt.Sprintf("unsupported STL shape %q (stltype=%d)", el.TypeName, el.STLType)}
	}
}

// readStringStringMap decodes std::map<std::string,std::string>: a
// 6-byte header, a count, then that many (key,value) string pairs —
// strings are not themselves framed, so no per-element sub-header.
func readStringStringMap(c *rbytes.Cursor) (map[string]string, error) {
	c.Skip(6)
	n := int(c.ReadU32())
	out := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k := c.String()
		v := c.String()
		if c.Err() != nil {
			return nil, fmt.Errorf("map<string,string> entry %d: %w", i, c.Err())
		}
		out[k] = v
	}
	return out, nil
}

// stlElementTypeName extracts the single template argument of a one-arg
// STL container typename, e.g. "vector<int>" -> "int".
func stlElementTypeName(name string) (string, error) {
	start := -1
	depth := 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case '>':
			depth--
			if depth == 0 {
				return name[start:i], nil
			}
		}
	}
	return "", fmt.Errorf("rdict: %q: not a one-argument template", name)
}
