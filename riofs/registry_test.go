package riofs

import (
	"testing"

	"github.com/go-hep/groot/rbytes"
)

func TestGlobalIsASingleton(t *testing.T) {
	reg1 := Global()
	reg2 := Global()
	if reg1 != reg2 {
		t.Fatalf("Global() returned different instances across calls")
	}
}

func TestGlobalHasBootstrapClasses(t *testing.T) {
	reg := Global()
	data := []byte{
		0x40, 0x00, 0x00, 0x0A, // byte count: 10 bytes follow
		0x00, 0x01, // version 1
		0, 0, 0, 9, // fUniqueID
		0, 0, 0, 0, // fBits
	}
	c := rbytes.NewCursor(data, 0, "test")
	obj, err := reg.ReadObject(c, "TObject")
	if err != nil {
		t.Fatalf("ReadObject(TObject) error = %v", err)
	}
	uid, _ := obj.FieldInt("fUniqueID")
	if uid != 9 {
		t.Errorf("fUniqueID = %d, want 9", uid)
	}
}
