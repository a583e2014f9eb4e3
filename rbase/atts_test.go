package rbase

import (
	"testing"

	"github.com/go-hep/groot/rbytes"
)

func TestAttLineDescriptorReadBody(t *testing.T) {
	data := []byte{0, 2, 0, 3, 0, 4}
	c := rbytes.NewCursor(data, 0, "test")
	obj, err := tAttLineDescriptor{}.ReadBody(c, nil, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	if obj.Class != "TAttLine" {
		t.Errorf("Class = %q, want TAttLine", obj.Class)
	}
	color, _ := obj.FieldInt("fLineColor")
	style, _ := obj.FieldInt("fLineStyle")
	width, _ := obj.FieldInt("fLineWidth")
	if color != 2 || style != 3 || width != 4 {
		t.Errorf("fields = (%d, %d, %d), want (2, 3, 4)", color, style, width)
	}
}

func TestAttFillDescriptorReadBody(t *testing.T) {
	data := []byte{0, 5, 0, 6}
	c := rbytes.NewCursor(data, 0, "test")
	obj, err := tAttFillDescriptor{}.ReadBody(c, nil, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	color, _ := obj.FieldInt("fFillColor")
	style, _ := obj.FieldInt("fFillStyle")
	if color != 5 || style != 6 {
		t.Errorf("fields = (%d, %d), want (5, 6)", color, style)
	}
}

func TestAttMarkerDescriptorReadBody(t *testing.T) {
	// color=1 style=2 (shorts), size=2.5 (float32)
	data := []byte{0, 1, 0, 2, 0x40, 0x20, 0x00, 0x00}
	c := rbytes.NewCursor(data, 0, "test")
	obj, err := tAttMarkerDescriptor{}.ReadBody(c, nil, 1)
	if err != nil {
		t.Fatalf("ReadBody() error = %v", err)
	}
	color, _ := obj.FieldInt("fMarkerColor")
	style, _ := obj.FieldInt("fMarkerStyle")
	size, ok := obj.Field("fMarkerSize")
	if color != 1 || style != 2 {
		t.Errorf("fields = (%d, %d), want (1, 2)", color, style)
	}
	if !ok || size.(float32) != 2.5 {
		t.Errorf("fMarkerSize = %v, want 2.5", size)
	}
}
