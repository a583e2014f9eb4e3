package rtree

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Filter selects which branches Tree.Arrays/Tree.Iterate materialize (spec
// §4.I): a plain name, a glob, a "/pattern/flags" regular expression, or a
// caller-supplied predicate, all AND-composed when more than one is given.
type Filter func(branch *Branch) bool

// NameFilter matches a branch whose Name equals name exactly.
func NameFilter(name string) Filter {
	return func(b *Branch) bool { return b.Name == name }
}

// GlobFilter matches a branch Name against a shell glob pattern.
func GlobFilter(pattern string) Filter {
	return func(b *Branch) bool {
		ok, err := filepath.Match(pattern, b.Name)
		return err == nil && ok
	}
}

// RegexpFilter compiles pattern, given in the "/pattern/flags" form (the
// only supported flag is "i" for case-insensitivity), into a Filter
// matching against the branch Name.
func RegexpFilter(pattern string) (Filter, error) {
	expr, flags := splitRegexpForm(pattern)
	if strings.Contains(flags, "i") {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return func(b *Branch) bool { return re.MatchString(b.Name) }, nil
}

func splitRegexpForm(pattern string) (expr, flags string) {
	if len(pattern) < 2 || pattern[0] != '/' {
		return pattern, ""
	}
	if i := strings.LastIndexByte(pattern, '/'); i > 0 {
		return pattern[1:i], pattern[i+1:]
	}
	return pattern, ""
}

// AndFilter composes filters so a branch must satisfy all of them.
func AndFilter(filters ...Filter) Filter {
	return func(b *Branch) bool {
		for _, f := range filters {
			if f == nil {
				continue
			}
			if !f(b) {
				return false
			}
		}
		return true
	}
}
