package rbytes_test

import (
	"strings"
	"testing"

	"github.com/go-hep/groot/rbytes"
)

func TestCursorString(t *testing.T) {
	for _, test := range []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "short, one-byte length",
			data: append([]byte{5}, "hello"...),
			want: "hello",
		},
		{
			name: "empty",
			data: []byte{0},
			want: "",
		},
		{
			name: "long, 255 escape plus 4-byte length",
			data: append([]byte{255, 0, 0, 1, 0}, strings.Repeat("x", 256)...),
			want: strings.Repeat("x", 256),
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := rbytes.NewCursor(test.data, 0, "test")
			got := c.String()
			if c.Err() != nil {
				t.Fatalf("String() error = %v", c.Err())
			}
			if got != test.want {
				t.Errorf("String() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestCursorStickyError(t *testing.T) {
	c := rbytes.NewCursor([]byte{1, 2}, 0, "test")
	_ = c.ReadU64() // needs 8 bytes, only 2 available
	if c.Err() == nil {
		t.Fatalf("expected a sticky error after a short read")
	}
	if v := c.ReadI32(); v != 0 {
		t.Errorf("ReadI32() after sticky error = %d, want 0", v)
	}
	if arr := c.Array(3, rbytes.KindI32); arr != nil {
		t.Errorf("Array() after sticky error = %v, want nil", arr)
	}
}

func TestCursorVersionHeader(t *testing.T) {
	t.Run("with byte count", func(t *testing.T) {
		data := []byte{0x40, 0x00, 0x00, 0x06, 0x00, 0x03, 0xAA, 0xBB, 0xCC, 0xDD}
		c := rbytes.NewCursor(data, 0, "test")
		vh := c.ReadVersionHeader()
		if !vh.HasByteCount || vh.Version != 3 {
			t.Fatalf("ReadVersionHeader() = %+v", vh)
		}
		if vh.End() != 10 {
			t.Errorf("End() = %d, want 10", vh.End())
		}
	})

	t.Run("without byte count", func(t *testing.T) {
		data := []byte{0x00, 0x02, 0xAA, 0xBB}
		c := rbytes.NewCursor(data, 0, "test")
		vh := c.ReadVersionHeader()
		if vh.HasByteCount {
			t.Fatalf("ReadVersionHeader() = %+v, want HasByteCount=false", vh)
		}
		if vh.Version != 2 {
			t.Errorf("Version = %d, want 2", vh.Version)
		}
		if c.Pos() != 2 {
			t.Errorf("Pos() = %d, want 2 (rewound past the version only)", c.Pos())
		}
	})
}

func TestCursorArrayRoundtrip(t *testing.T) {
	data := []byte{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3}
	c := rbytes.NewCursor(data, 0, "test")
	got := c.Array(3, rbytes.KindI32)
	if c.Err() != nil {
		t.Fatalf("Array() error = %v", c.Err())
	}
	arr, ok := got.([]int32)
	if !ok {
		t.Fatalf("Array() returned %T, want []int32", got)
	}
	want := []int32{1, 2, 3}
	for i := range want {
		if arr[i] != want[i] {
			t.Errorf("arr[%d] = %d, want %d", i, arr[i], want[i])
		}
	}
}
