package rcont_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rcont"
)

func TestParseTypeName(t *testing.T) {
	for _, test := range []struct {
		name string
		in   string
		want rcont.Descriptor
	}{
		{
			name: "plain primitive",
			in:   "int",
			want: rcont.Dtype{Kind: rbytes.KindI32},
		},
		{
			name: "string",
			in:   "string",
			want: rcont.AsString{Encoding: rcont.StringLen1to5},
		},
		{
			name: "vector of int",
			in:   "vector<int>",
			want: rcont.AsVector{Inner: rcont.Dtype{Kind: rbytes.KindI32}},
		},
		{
			name: "nested map of vector and set",
			in:   "map<vector<int>, set<set<float>>>",
			want: rcont.AsMap{
				KeyDesc: rcont.AsVector{Inner: rcont.Dtype{Kind: rbytes.KindI32}},
				ValueDesc: rcont.AsSet{Inner: rcont.AsSet{
					Inner: rcont.Dtype{Kind: rbytes.KindF32},
				}},
				Framed: true,
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := rcont.ParseTypeName(test.in)
			if err != nil {
				t.Fatalf("ParseTypeName(%q) error = %v", test.in, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("ParseTypeName(%q) mismatch (-want +got):\n%s", test.in, diff)
			}
		})
	}
}

func TestParseTypeNameErrors(t *testing.T) {
	for _, in := range []string{
		"map<string<int>>",
		"vector<int, float>",
		"frobnicator",
		"vector<int",
	} {
		if _, err := rcont.ParseTypeName(in); err == nil {
			t.Errorf("ParseTypeName(%q) succeeded, want an error", in)
		}
	}
}

// TestMapRoundtrip exercises AsMap with 34 string->string entries (spec §8
// scenario 2), confirming memberwise decode against a hand-built wire image
// matching the documented layout: a 6-byte outer header, a count, N keys,
// then N values, with no sub-header since AsString is never framed.
func TestMapRoundtrip(t *testing.T) {
	const n = 34

	want := make(map[any]any, n)
	var buf []byte
	// 6-byte outer header: top-bit-set byte count (unchecked by AsMap.Read)
	// followed by a 2-byte version; AsMap.Read only skips these 6 bytes.
	buf = append(buf, 0x40, 0, 0, 0, 0, 1)
	buf = appendU32(buf, n)
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%02d", i)
		buf = appendString(buf, k)
	}
	for i := 0; i < n; i++ {
		v := fmt.Sprintf("v%02d", i)
		buf = appendString(buf, v)
	}
	for i := 0; i < n; i++ {
		want[fmt.Sprintf("k%02d", i)] = fmt.Sprintf("v%02d", i)
	}

	desc := rcont.AsMap{
		KeyDesc:   rcont.AsString{Encoding: rcont.StringLen1to5},
		ValueDesc: rcont.AsString{Encoding: rcont.StringLen1to5},
		Framed:    true,
	}
	c := rbytes.NewCursor(buf, 0, "test")
	got, err := desc.Read(c, nil)
	if err != nil {
		t.Fatalf("AsMap.Read() error = %v", err)
	}
	gotMap, ok := got.(map[any]any)
	if !ok {
		t.Fatalf("AsMap.Read() = %T, want map[any]any", got)
	}
	if len(gotMap) != n {
		t.Fatalf("len(got) = %d, want %d", len(gotMap), n)
	}
	if diff := cmp.Diff(want, gotMap); diff != "" {
		t.Errorf("map contents mismatch (-want +got):\n%s", diff)
	}
}

// TestAsStringLen1to5 covers both branches of the 1-to-5-byte length
// encoding: a short string under the one-byte cutoff, and one requiring the
// 255-escape plus 4-byte length (spec §8 scenario: "string via 1-5 length").
func TestAsStringLen1to5(t *testing.T) {
	for _, test := range []struct {
		name string
		data []byte
		want string
	}{
		{name: "short", data: appendString(nil, "hi"), want: "hi"},
		{name: "long", data: appendString(nil, string(make([]byte, 300))), want: string(make([]byte, 300))},
	} {
		t.Run(test.name, func(t *testing.T) {
			desc := rcont.AsString{Encoding: rcont.StringLen1to5}
			c := rbytes.NewCursor(test.data, 0, "test")
			got, err := desc.Read(c, nil)
			if err != nil {
				t.Fatalf("AsString.Read() error = %v", err)
			}
			if got != test.want {
				t.Errorf("AsString.Read() = %q, want %q", got, test.want)
			}
		})
	}
}

func appendU32(buf []byte, v int) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendString(buf []byte, s string) []byte {
	if len(s) < 255 {
		buf = append(buf, byte(len(s)))
	} else {
		buf = append(buf, 255)
		buf = appendU32(buf, len(s))
	}
	return append(buf, s...)
}
