package rtree

import (
	"testing"

	"github.com/go-hep/groot/rbytes"
)

func TestReadBasketExtra(t *testing.T) {
	data := []byte{
		0, 1, // fVersion = 1
		0, 0, 1, 0, // bufSize = 256
		0, 0, 0, 10, // nevBufSize = 10
		0, 0, 0, 5, // nevBuf = 5
		0, 0, 0, 100, // last = 100
		0x01, // flag
	}
	c := rbytes.NewCursor(data, 0, "test")
	e, err := readBasketExtra(c)
	if err != nil {
		t.Fatalf("readBasketExtra() error = %v", err)
	}
	if e.version != 1 || e.bufSize != 256 || e.nevBufSize != 10 || e.nevBuf != 5 || e.last != 100 || e.flag != 1 {
		t.Errorf("readBasketExtra() = %+v", e)
	}
}

func TestReadBasketExtraShortBuffer(t *testing.T) {
	c := rbytes.NewCursor([]byte{0, 0}, 0, "test")
	if _, err := readBasketExtra(c); err == nil {
		t.Fatalf("readBasketExtra() on a short buffer should error")
	}
}

// TestDecodeBasketPayloadJaggedOffsets exercises the "centerpiece" jagged
// offset extraction (spec §4.G step 3) against a realistic TBasket tail: a
// leading placeholder int32 followed by one boundary per entry plus a
// trailing sentinel, all rebased by fKeylen. border must equal fLast minus
// fKeylen, and the decoded offsets must start at 0 and end at border (spec
// §8).
func TestDecodeBasketPayloadJaggedOffsets(t *testing.T) {
	const keyLen = 50
	const border = 12 // 3 entries of 4 bytes each

	data := make([]byte, border)
	for i := range data {
		data[i] = byte(i)
	}

	appendI32 := func(buf []byte, v int32) []byte {
		return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	var tail []byte
	tail = appendI32(tail, 0) // placeholder, discarded
	tail = appendI32(tail, keyLen+0)
	tail = appendI32(tail, keyLen+4)
	tail = appendI32(tail, keyLen+8)
	tail = appendI32(tail, keyLen+border) // trailing sentinel

	payload := append(append([]byte{}, data...), tail...)
	last := int32(keyLen + border)

	b, err := decodeBasketPayload(7, 3, keyLen, last, payload)
	if err != nil {
		t.Fatalf("decodeBasketPayload() error = %v", err)
	}
	if len(b.data) != border {
		t.Fatalf("data length = %d, want %d", len(b.data), border)
	}
	want := []int32{0, 4, 8, border}
	if len(b.offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", b.offsets, want)
	}
	for i := range want {
		if b.offsets[i] != want[i] {
			t.Errorf("offsets[%d] = %d, want %d", i, b.offsets[i], want[i])
		}
	}
	if b.offsets[0] != 0 {
		t.Errorf("offsets[0] = %d, want 0", b.offsets[0])
	}
	if b.offsets[len(b.offsets)-1] != int32(border) {
		t.Errorf("offsets[-1] = %d, want border %d", b.offsets[len(b.offsets)-1], border)
	}
}

func TestDecodeBasketPayloadFixedWidthHasNoOffsets(t *testing.T) {
	payload := make([]byte, 16)
	b, err := decodeBasketPayload(1, 4, 50, int32(16), payload)
	if err != nil {
		t.Fatalf("decodeBasketPayload() error = %v", err)
	}
	if b.offsets != nil {
		t.Errorf("offsets = %v, want nil for a basket with no offset tail", b.offsets)
	}
	if len(b.data) != 16 {
		t.Errorf("data length = %d, want 16", len(b.data))
	}
}
