package rtree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestNumpyLikeLibraryJaggedNumeric covers spec §8's jagged numeric
// scenario: two baskets of a variable-length int32 branch concatenate into
// one flat Data slice with a single, correctly rebased Offsets array.
func TestNumpyLikeLibraryJaggedNumeric(t *testing.T) {
	branch := &Branch{Name: "jagged", interp: AsJagged{Inner: AsDtype{}}}

	parts := []BasketArray{
		{
			Values:  []int32{1, 2, 3, 4, 5},
			Offsets: []int32{0, 2, 5}, // entries: [1,2], [3,4,5]
		},
		{
			Values:  []int32{6, 7},
			Offsets: []int32{0, 1, 2}, // entries: [6], [7]
		},
	}

	got, err := (NumpyLikeLibrary{}).Finalize(parts, branch)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	jag, ok := got.(JaggedArray)
	if !ok {
		t.Fatalf("Finalize() = %T, want JaggedArray", got)
	}

	wantData := []int32{1, 2, 3, 4, 5, 6, 7}
	wantOffsets := []int32{0, 2, 5, 6, 7}

	if diff := cmp.Diff(wantData, jag.Data); diff != "" {
		t.Errorf("Data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantOffsets, jag.Offsets); diff != "" {
		t.Errorf("Offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestNumpyLikeLibraryFlatNumeric(t *testing.T) {
	branch := &Branch{Name: "flat", interp: AsDtype{}}
	parts := []BasketArray{
		{Values: []float64{1, 2}, ElemsPerEntry: 1},
		{Values: []float64{3, 4, 5}, ElemsPerEntry: 1},
	}
	got, err := (NumpyLikeLibrary{}).Finalize(parts, branch)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	want := []float64{1, 2, 3, 4, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNumpyLikeLibraryEmpty(t *testing.T) {
	branch := &Branch{Name: "empty", interp: AsJagged{Inner: AsDtype{}}}
	got, err := (NumpyLikeLibrary{}).Finalize(nil, branch)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	jag, ok := got.(JaggedArray)
	if !ok || len(jag.Offsets) != 1 || jag.Offsets[0] != 0 {
		t.Errorf("Finalize(nil) = %#v, want JaggedArray{Offsets: []int32{0}}", got)
	}
}
