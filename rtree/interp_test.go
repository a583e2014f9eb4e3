package rtree

import (
	"math"
	"testing"

	"github.com/go-hep/groot/rbytes"
)

// TestAsDouble32Decode covers spec §8's worked Double32 decode scenario:
// title "[-1.0, 1.0, 10]" maps a raw 10-bit word v onto
// v*(2.0/1024) - 1.0, i.e. scaled by (high-low)/(1<<num_bits), not by the
// word's own bitmask.
func TestAsDouble32Decode(t *testing.T) {
	rng, ok := parseDoubleRange("[-1.0, 1.0, 10]")
	if !ok {
		t.Fatalf("parseDoubleRange failed to parse range")
	}
	if rng.Low != -1.0 || rng.High != 1.0 || rng.NumBits != 10 {
		t.Fatalf("parseDoubleRange() = %+v", rng)
	}

	interp := AsDouble32{Range: rng}
	words := []uint32{0, 1024, 512}
	data := make([]byte, 4*len(words))
	for i, w := range words {
		data[4*i+0] = byte(w >> 24)
		data[4*i+1] = byte(w >> 16)
		data[4*i+2] = byte(w >> 8)
		data[4*i+3] = byte(w)
	}
	bk := &basket{num: 0, entries: int64(len(words)), data: data}

	arr, err := interp.BasketArray(bk)
	if err != nil {
		t.Fatalf("BasketArray() error = %v", err)
	}
	got, ok := arr.Values.([]float64)
	if !ok {
		t.Fatalf("Values = %T, want []float64", arr.Values)
	}
	want := []float64{
		-1.0,
		-1.0 + 1024*(2.0/1024.0),
		-1.0 + 512*(2.0/1024.0),
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestAsDouble32TruncatedMantissaNoRange covers the low==0&&high==0 branch:
// no range scaling, just the exponent+mantissa reassembly shared with
// Float16 (spec §4.G bullet 2).
func TestAsDouble32TruncatedMantissaNoRange(t *testing.T) {
	interp := AsDouble32{Range: DoubleRange{Low: 0, High: 0, NumBits: 12, HasRange: true}}
	data := []byte{0x7f, 0x00, 0x00} // exponent 0x7f, zero mantissa, sign clear
	bk := &basket{num: 0, entries: 1, data: data}

	arr, err := interp.BasketArray(bk)
	if err != nil {
		t.Fatalf("BasketArray() error = %v", err)
	}
	got := arr.Values.([]float64)
	want := float64(math.Float32frombits(uint32(0x7f) << 23))
	if got[0] != want {
		t.Errorf("got[0] = %v, want %v", got[0], want)
	}
}

// TestAsFloat16Decode covers the sign-bit extraction that a packed
// exponent<<23|mantissa<<7 reassembly cannot produce: the mantissa's sign
// bit (bit index NumBits+1) must flip the decoded value negative, and the
// magnitude bits must be masked to NumBits+1 bits before being shifted into
// the float32 mantissa field.
func TestAsFloat16Decode(t *testing.T) {
	interp := AsFloat16{Range: DoubleRange{NumBits: 12, HasRange: true}}

	// exponent 0x7f (1.0's exponent), mantissa all zero: should decode to
	// +1.0.
	positive := []byte{0x7f, 0x00, 0x00}
	// same exponent and magnitude bits, but with the sign bit (1<<13) set:
	// should decode to -1.0.
	negative := []byte{0x7f, 0x20, 0x00} // 0x2000 = 1<<13

	bk := &basket{num: 0, entries: 2, data: append(append([]byte{}, positive...), negative...)}
	arr, err := interp.BasketArray(bk)
	if err != nil {
		t.Fatalf("BasketArray() error = %v", err)
	}
	got := arr.Values.([]float32)
	if len(got) != 2 {
		t.Fatalf("len(Values) = %d, want 2", len(got))
	}
	if got[0] != 1.0 {
		t.Errorf("got[0] = %v, want 1.0", got[0])
	}
	if got[1] != -1.0 {
		t.Errorf("got[1] = %v, want -1.0", got[1])
	}
}

func TestAsDouble32NoRangeIsPlainFloat(t *testing.T) {
	interp := AsDouble32{}
	f := float32(3.5)
	bits := math.Float32bits(f)
	data := []byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
	bk := &basket{num: 0, entries: 1, data: data}

	arr, err := interp.BasketArray(bk)
	if err != nil {
		t.Fatalf("BasketArray() error = %v", err)
	}
	got := arr.Values.([]float64)
	if got[0] != float64(f) {
		t.Errorf("got[0] = %v, want %v", got[0], f)
	}
}

func TestParseDoubleRangeWithPi(t *testing.T) {
	rng, ok := parseDoubleRange("[-pi, pi, 16]")
	if !ok {
		t.Fatalf("parseDoubleRange failed")
	}
	if math.Abs(rng.Low+math.Pi) > 1e-12 || math.Abs(rng.High-math.Pi) > 1e-12 {
		t.Errorf("parseDoubleRange() = %+v", rng)
	}
	if rng.NumBits != 16 {
		t.Errorf("NumBits = %d, want 16", rng.NumBits)
	}
}

// TestBasketArraySliceAcrossBasketBoundary models spec §8's basket-assembly
// scenario directly against the slicing primitive Branch.Array relies on:
// entry offsets [0, 100, 250, 400] across three baskets, a request for
// [50, 300) spans all three baskets and must yield exactly 250 values.
func TestBasketArraySliceAcrossBasketBoundary(t *testing.T) {
	offsets := []int64{0, 100, 250, 400}
	entryStart, entryStop := int64(50), int64(300)

	makeBasket := func(n int64) BasketArray {
		vals := make([]int32, n)
		for i := range vals {
			vals[i] = int32(i)
		}
		return BasketArray{Values: vals, ElemsPerEntry: 1}
	}

	var total int
	for i := 0; i < len(offsets)-1; i++ {
		lo, hi := offsets[i], offsets[i+1]
		if hi <= entryStart || lo >= entryStop {
			continue
		}
		arr := makeBasket(hi - lo)
		sliceStart := int64(0)
		if entryStart > lo {
			sliceStart = entryStart - lo
		}
		sliceStop := hi - lo
		if entryStop < hi {
			sliceStop = entryStop - lo
		}
		sliced := arr.slice(sliceStart, sliceStop)
		total += len(sliced.Values.([]int32))
	}
	if total != 250 {
		t.Errorf("total sliced length = %d, want 250", total)
	}
}
