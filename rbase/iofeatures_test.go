package rbase

import (
	"testing"

	"github.com/go-hep/groot/rbytes"
)

func TestIOFeaturesDescriptorReadBody(t *testing.T) {
	c := rbytes.NewCursor([]byte{0x03}, 0, "test")
	obj, err := tIOFeaturesDescriptor{}.ReadBody(c, nil, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	bits, ok := obj.Field("fIOBits")
	if !ok || bits.(uint8) != 0x03 {
		t.Errorf("fIOBits = %v, want 0x03", bits)
	}
}
