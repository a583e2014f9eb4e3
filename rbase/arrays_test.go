package rbase

import (
	"testing"

	"github.com/go-hep/groot/rbytes"
)

func TestTArrayDescriptorReadBody(t *testing.T) {
	for _, test := range []struct {
		name string
		kind rbytes.Kind
		data []byte
		want []int32
	}{
		{
			name: "three int32 elements",
			kind: elemKindI32,
			data: []byte{
				0, 0, 0, 3, // count
				0, 0, 0, 10,
				0, 0, 0, 20,
				0, 0, 0, 30,
			},
			want: []int32{10, 20, 30},
		},
		{
			name: "empty array",
			kind: elemKindI32,
			data: []byte{0, 0, 0, 0},
			want: nil,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := rbytes.NewCursor(test.data, 0, "test")
			d := tArrayDescriptor{Kind: test.kind}
			obj, err := d.ReadBody(c, nil, 1)
			if err != nil {
				t.Fatalf("ReadBody() error = %v", err)
			}
			if c.Err() != nil {
				t.Fatalf("cursor error = %v", c.Err())
			}
			got, _ := obj.Field("data")
			arr, _ := got.([]int32)
			if len(arr) != len(test.want) {
				t.Fatalf("len(data) = %d, want %d", len(arr), len(test.want))
			}
			for i := range test.want {
				if arr[i] != test.want[i] {
					t.Errorf("data[%d] = %d, want %d", i, arr[i], test.want[i])
				}
			}
		})
	}
}
