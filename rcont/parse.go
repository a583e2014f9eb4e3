package rcont

import (
	"fmt"
	"strings"

	"github.com/go-hep/groot/rbytes"
)

// primitiveKinds maps canonical C++ primitive type spellings to their
// fixed-width Kind. ROOT-specific typedefs (Int_t, Float_t, ...) are
// canonicalized to these spellings by rdict before reaching this table
// (spec §4.D "Canonicalization"); this table does not list them, so the
// parser itself rejects an uncanonicalized typedef.
var primitiveKinds = map[string]rbytes.Kind{
	"bool":               rbytes.KindBool,
	"char":                rbytes.KindI8,
	"signed char":         rbytes.KindI8,
	"unsigned char":       rbytes.KindU8,
	"short":               rbytes.KindI16,
	"short int":           rbytes.KindI16,
	"unsigned short":      rbytes.KindU16,
	"unsigned short int":  rbytes.KindU16,
	"int":                 rbytes.KindI32,
	"unsigned int":        rbytes.KindU32,
	"unsigned":            rbytes.KindU32,
	"long":                rbytes.KindI64,
	"long int":            rbytes.KindI64,
	"unsigned long":       rbytes.KindU64,
	"long long":           rbytes.KindI64,
	"unsigned long long":  rbytes.KindU64,
	"float":               rbytes.KindF32,
	"double":              rbytes.KindF64,
}

// ParseTypeName parses a (possibly nested) C++ container type name into a
// Descriptor (spec §4.F / §8 scenario 1), e.g.:
//
//	ParseTypeName("vector<int>")                         -> AsVector(Dtype(i4))
//	ParseTypeName("map<vector<int>, set<set<float>>>")   -> AsMap(AsVector(i4), AsSet(AsSet(f4)))
//	ParseTypeName("map<string<int>>")                    -> error
func ParseTypeName(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "string" || s == "std::string" || s == "TString":
		return AsString{Encoding: StringLen1to5}, nil
	case hasTemplate(s, "vector") || hasTemplate(s, "std::vector"):
		inner, err := templateArg(s)
		if err != nil {
			return nil, err
		}
		args, err := splitTopLevel(inner)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("rcont: vector requires exactly one type argument, got %d in %q", len(args), s)
		}
		elem, err := ParseTypeName(args[0])
		if err != nil {
			return nil, err
		}
		return AsVector{Inner: elem}, nil
	case hasTemplate(s, "set") || hasTemplate(s, "std::set"):
		inner, err := templateArg(s)
		if err != nil {
			return nil, err
		}
		args, err := splitTopLevel(inner)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("rcont: set requires exactly one type argument, got %d in %q", len(args), s)
		}
		elem, err := ParseTypeName(args[0])
		if err != nil {
			return nil, err
		}
		return AsSet{Inner: elem}, nil
	case hasTemplate(s, "map") || hasTemplate(s, "std::map"):
		inner, err := templateArg(s)
		if err != nil {
			return nil, err
		}
		args, err := splitTopLevel(inner)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("rcont: map requires exactly two type arguments, got %d in %q", len(args), s)
		}
		key, err := ParseTypeName(args[0])
		if err != nil {
			return nil, err
		}
		val, err := ParseTypeName(args[1])
		if err != nil {
			return nil, err
		}
		return AsMap{KeyDesc: key, ValueDesc: val, Framed: true}, nil
	default:
		if k, ok := primitiveKinds[s]; ok {
			return Dtype{Kind: k}, nil
		}
		return nil, fmt.Errorf("rcont: unrecognized or unsupported type name %q", s)
	}
}

// hasTemplate reports whether s is `prefix` followed by optional space
// and a '<'.
func hasTemplate(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	rest := strings.TrimSpace(s[len(prefix):])
	return strings.HasPrefix(rest, "<")
}

// templateArg extracts the contents between the first balanced '<' ... '>'
// pair following a template name, e.g. "vector<  int  >" -> "  int  ".
func templateArg(s string) (string, error) {
	start := strings.IndexByte(s, '<')
	if start < 0 {
		return "", fmt.Errorf("rcont: %q: missing '<'", s)
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				if i != len(s)-1 {
					return "", fmt.Errorf("rcont: %q: trailing characters after closing '>'", s)
				}
				return s[start+1 : i], nil
			}
		}
	}
	return "", fmt.Errorf("rcont: %q: unbalanced '<'", s)
}

// splitTopLevel splits s on commas that are not nested inside a '<...>'
// pair, trimming whitespace from each piece.
func splitTopLevel(s string) ([]string, error) {
	var out []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("rcont: %q: unbalanced '>'", s)
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("rcont: %q: unbalanced '<'", s)
	}
	out = append(out, strings.TrimSpace(s[last:]))
	return out, nil
}
