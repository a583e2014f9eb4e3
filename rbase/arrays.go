package rbase

import (
	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

// The handful of rbytes.Kind values the TArray family needs.
const (
	elemKindI8  = rbytes.KindI8
	elemKindI16 = rbytes.KindI16
	elemKindI32 = rbytes.KindI32
	elemKindI64 = rbytes.KindI64
	elemKindF32 = rbytes.KindF32
	elemKindF64 = rbytes.KindF64
)

// tArrayDescriptor reads one of the TArray[CSILL64FD] fixed-width array
// classes: a count, then that many elements of Kind, no TObject base (the
// TArray hierarchy does not inherit TObject in ROOT).
type tArrayDescriptor struct {
	Kind rbytes.Kind
}

func (d tArrayDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	n := int(c.ReadI32())
	arr := c.Array(n, d.Kind)
	return &rdict.Object{Class: "TArray", Version: version, Fields: map[string]any{"data": arr}}, nil
}
