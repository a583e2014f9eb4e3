package rdict

import "testing"

func TestCanonicalize(t *testing.T) {
	for _, test := range []struct {
		in, want string
	}{
		{"Int_t", "int"},
		{"Double32_t", "double"},
		{"Float16_t", "float"},
		{"  ULong64_t  ", "unsigned long long"},
		{"SomeUserClass", "SomeUserClass"},
	} {
		if got := canonicalize(test.in); got != test.want {
			t.Errorf("canonicalize(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}
