package rbase

import (
	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

// tAttLineDescriptor reads TAttLine: color, style, width, each a short.
type tAttLineDescriptor struct{}

func (tAttLineDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	color := c.ReadI16()
	style := c.ReadI16()
	width := c.ReadI16()
	return &rdict.Object{Class: "TAttLine", Version: version, Fields: map[string]any{
		"fLineColor": color, "fLineStyle": style, "fLineWidth": width,
	}}, nil
}

// tAttFillDescriptor reads TAttFill: color and style, each a short.
type tAttFillDescriptor struct{}

func (tAttFillDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	color := c.ReadI16()
	style := c.ReadI16()
	return &rdict.Object{Class: "TAttFill", Version: version, Fields: map[string]any{
		"fFillColor": color, "fFillStyle": style,
	}}, nil
}

// tAttMarkerDescriptor reads TAttMarker: color and style (shorts), size
// (float32).
type tAttMarkerDescriptor struct{}

func (tAttMarkerDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	color := c.ReadI16()
	style := c.ReadI16()
	size := c.ReadF32()
	return &rdict.Object{Class: "TAttMarker", Version: version, Fields: map[string]any{
		"fMarkerColor": color, "fMarkerStyle": style, "fMarkerSize": size,
	}}, nil
}
