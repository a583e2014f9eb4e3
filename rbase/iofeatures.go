package rbase

import (
	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

// tIOFeaturesDescriptor reads ROOT::TIOFeatures: a single byte of
// feature flags (ROOT 6.16+ generate-offset-map / parallel-unzip markers,
// passed through unexamined since this reader never writes files).
type tIOFeaturesDescriptor struct{}

func (tIOFeaturesDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	flags := c.ReadU8()
	return &rdict.Object{Class: "ROOT::TIOFeatures", Version: version, Fields: map[string]any{"fIOBits": flags}}, nil
}
