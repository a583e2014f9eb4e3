package rbase

import (
	"testing"

	"github.com/go-hep/groot/rbytes"
)

func TestListDescriptorReadBodyEmpty(t *testing.T) {
	reg := newTestRegistry()
	var data []byte
	data = append(data, tObjectWire(0, 0)...)
	data = append(data, byte(len("mylist")))
	data = append(data, "mylist"...)
	data = append(data, 0, 0, 0, 0) // n = 0 entries

	c := rbytes.NewCursor(data, 0, "test")
	obj, err := tListDescriptor{}.ReadBody(c, reg, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	if c.Err() != nil {
		t.Fatalf("cursor error = %v", c.Err())
	}
	if obj.FieldString("fName") != "mylist" {
		t.Errorf("fName = %q, want mylist", obj.FieldString("fName"))
	}
	entries, _ := obj.Field("entries")
	if len(entries.([]any)) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}

func TestObjArrayDescriptorReadBodyEmpty(t *testing.T) {
	reg := newTestRegistry()
	var data []byte
	data = append(data, tObjectWire(0, 0)...)
	data = append(data, byte(len("arr")))
	data = append(data, "arr"...)
	data = append(data, 0, 0, 0, 0) // n = 0
	data = append(data, 0, 0, 0, 0) // lower bound = 0

	c := rbytes.NewCursor(data, 0, "test")
	obj, err := tObjArrayDescriptor{}.ReadBody(c, reg, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	if c.Err() != nil {
		t.Fatalf("cursor error = %v", c.Err())
	}
	lb, ok := obj.Field("fLowerBound")
	if !ok || lb.(int32) != 0 {
		t.Errorf("fLowerBound = %v, want 0", lb)
	}
}
