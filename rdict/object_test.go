package rdict_test

import (
	"testing"

	"github.com/go-hep/groot/rdict"
)

func TestObjectFieldInt(t *testing.T) {
	o := &rdict.Object{
		Class: "Test",
		Fields: map[string]any{
			"i32": int32(42),
			"u64": uint64(7),
			"str": "hi",
		},
	}
	for _, test := range []struct {
		name    string
		want    int64
		wantOK  bool
	}{
		{"i32", 42, true},
		{"u64", 7, true},
		{"str", 0, false},
		{"missing", 0, false},
	} {
		got, ok := o.FieldInt(test.name)
		if ok != test.wantOK || got != test.want {
			t.Errorf("FieldInt(%q) = (%d, %v), want (%d, %v)", test.name, got, ok, test.want, test.wantOK)
		}
	}
}

func TestObjectFieldStringAndNil(t *testing.T) {
	var o *rdict.Object
	if s := o.FieldString("anything"); s != "" {
		t.Errorf("FieldString on nil Object = %q, want \"\"", s)
	}
	if _, ok := o.Field("anything"); ok {
		t.Errorf("Field on nil Object reported ok=true")
	}
}
