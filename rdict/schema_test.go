package rdict

import (
	"reflect"
	"testing"

	"github.com/go-hep/groot/rbytes"
)

func TestTypeNameToKind(t *testing.T) {
	for _, test := range []struct {
		name string
		want rbytes.Kind
		ok   bool
	}{
		{"int", rbytes.KindI32, true},
		{"unsigned long long", rbytes.KindU64, true},
		{"double", rbytes.KindF64, true},
		{"SomeUserClass", 0, false},
	} {
		got, ok := typeNameToKind(test.name)
		if ok != test.ok || (ok && got != test.want) {
			t.Errorf("typeNameToKind(%q) = (%v, %v), want (%v, %v)", test.name, got, ok, test.want, test.ok)
		}
	}
}

func TestStlElementTypeName(t *testing.T) {
	for _, test := range []struct {
		in, want string
		wantErr  bool
	}{
		{"vector<int>", "int", false},
		{"map<string,string>", "string,string", false},
		{"vector<vector<int> >", "vector<int> ", false},
		{"notatemplate", "", true},
	} {
		got, err := stlElementTypeName(test.in)
		if test.wantErr {
			if err == nil {
				t.Errorf("stlElementTypeName(%q) expected an error", test.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("stlElementTypeName(%q) error = %v", test.in, err)
		}
		if got != test.want {
			t.Errorf("stlElementTypeName(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestReadSTLVectorOfInt(t *testing.T) {
	var data []byte
	data = append(data, 0, 0, 0, 0, 0, 0) // 6-byte container header, skipped unexamined
	data = append(data, 0, 0, 0, 3)       // element count
	data = append(data,
		0, 0, 0, 10,
		0, 0, 0, 20,
		0, 0, 0, 30,
	)
	c := rbytes.NewCursor(data, 0, "test")
	el := &StreamerElement{Kind: KindSTL, TypeName: "vector<int>", STLType: stlVector}
	got, err := readSTL(c, nil, el)
	if err != nil {
		t.Fatalf("readSTL() error = %v", err)
	}
	want := []int32{10, 20, 30}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("readSTL() = %v, want %v", got, want)
	}
}

func TestReadSTLUnsupportedShape(t *testing.T) {
	c := rbytes.NewCursor(nil, 0, "test")
	el := &StreamerElement{Kind: KindSTL, TypeName: "vector<MyClass>", STLType: stlVector}
	_, err := readSTL(c, nil, el)
	if err == nil {
		t.Fatalf("readSTL() on a non-primitive element should error")
	}
	if _, ok := err.(*rbytes.UnsupportedFeature); !ok {
		t.Errorf("error = %v (%T), want *rbytes.UnsupportedFeature", err, err)
	}
}

func TestReadStringStringMap(t *testing.T) {
	var data []byte
	data = append(data, 0, 0, 0, 0, 0, 0) // header
	data = append(data, 0, 0, 0, 2)       // n=2
	data = appendStr(data, "a")
	data = appendStr(data, "1")
	data = appendStr(data, "b")
	data = appendStr(data, "2")

	c := rbytes.NewCursor(data, 0, "test")
	got, err := readStringStringMap(c)
	if err != nil {
		t.Fatalf("readStringStringMap() error = %v", err)
	}
	want := map[string]string{"a": "1", "b": "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("readStringStringMap() = %v, want %v", got, want)
	}
}

func appendStr(data []byte, s string) []byte {
	data = append(data, byte(len(s)))
	return append(data, s...)
}

func TestSchemaReadBasicTypeMember(t *testing.T) {
	s := &Schema{
		Class:   "Simple",
		Version: 1,
		Elements: []*StreamerElement{
			{Name: "fX", Kind: KindBasicType, TypeName: "int", ArrayLength: 0},
		},
	}
	data := []byte{0, 0, 0, 42}
	c := rbytes.NewCursor(data, 0, "test")
	obj, err := s.Read(c, nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	x, ok := obj.FieldInt("fX")
	if !ok || x != 42 {
		t.Errorf("fX = (%d, %v), want (42, true)", x, ok)
	}
}
