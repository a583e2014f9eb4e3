package rbase

import (
	"testing"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

func TestObjectDescriptorReadBody(t *testing.T) {
	t.Run("plain, no pid", func(t *testing.T) {
		data := []byte{0, 0, 0, 5, 0, 0, 0, 0}
		c := rbytes.NewCursor(data, 0, "test")
		obj, err := tObjectDescriptor{}.ReadBody(c, nil, 1)
		if err != nil {
			t.Fatalf("ReadBody() error = %v", err)
		}
		uid, _ := obj.FieldInt("fUniqueID")
		if uid != 5 {
			t.Errorf("fUniqueID = %d, want 5", uid)
		}
		if _, ok := obj.Field("fPID"); ok {
			t.Errorf("fPID present, want absent")
		}
	})

	t.Run("kIsReferenced set, trailing pid", func(t *testing.T) {
		data := []byte{0, 0, 0, 1, 0, 0, 0, 0x10, 0, 7}
		c := rbytes.NewCursor(data, 0, "test")
		obj, err := tObjectDescriptor{}.ReadBody(c, nil, 1)
		if err != nil {
			t.Fatalf("ReadBody() error = %v", err)
		}
		pid, ok := obj.Field("fPID")
		if !ok || pid.(uint16) != 7 {
			t.Errorf("fPID = %v, want 7", pid)
		}
	})
}

func TestStringDescriptorReadBody(t *testing.T) {
	data := append([]byte{5}, "hello"...)
	c := rbytes.NewCursor(data, 0, "test")
	obj, err := tStringDescriptor{}.ReadBody(c, nil, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	if obj.FieldString("val") != "hello" {
		t.Errorf("val = %q, want hello", obj.FieldString("val"))
	}
}

func newTestRegistry() *rdict.Registry {
	reg := rdict.NewRegistry()
	Register(reg)
	return reg
}

// tObjectWire builds the on-disk framing of a TObject with the given
// fUniqueID and fBits, no trailing pid.
func tObjectWire(uid, bits uint32) []byte {
	return []byte{
		0x40, 0x00, 0x00, 0x0A, // byte count: 10 bytes follow (version + uid + bits)
		0x00, 0x01, // version 1
		byte(uid >> 24), byte(uid >> 16), byte(uid >> 8), byte(uid),
		byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits),
	}
}

func TestNamedDescriptorReadBody(t *testing.T) {
	reg := newTestRegistry()
	var data []byte
	data = append(data, tObjectWire(0, 0)...)
	data = append(data, byte(len("n")))
	data = append(data, "n"...)
	data = append(data, byte(len("t")))
	data = append(data, "t"...)

	c := rbytes.NewCursor(data, 0, "test")
	obj, err := tNamedDescriptor{}.ReadBody(c, reg, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	if c.Err() != nil {
		t.Fatalf("cursor error = %v", c.Err())
	}
	if obj.FieldString("fName") != "n" || obj.FieldString("fTitle") != "t" {
		t.Errorf("fName/fTitle = %q/%q, want n/t", obj.FieldString("fName"), obj.FieldString("fTitle"))
	}
	if len(obj.Bases) != 1 || obj.Bases[0].Class != "TObject" {
		t.Fatalf("Bases = %+v, want one TObject", obj.Bases)
	}
}

func TestObjStringDescriptorReadBody(t *testing.T) {
	reg := newTestRegistry()
	var data []byte
	data = append(data, tObjectWire(0, 0)...)
	data = append(data, byte(len("value")))
	data = append(data, "value"...)

	c := rbytes.NewCursor(data, 0, "test")
	obj, err := tObjStringDescriptor{}.ReadBody(c, reg, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	if obj.FieldString("val") != "value" {
		t.Errorf("val = %q, want value", obj.FieldString("val"))
	}
}
