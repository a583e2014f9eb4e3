package riofs

import (
	"context"
	"testing"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/riofs/rsource"
)

// fakeSource serves Chunk/Chunks directly out of an in-memory buffer, for
// exercising riofs code paths that only need a Source's read surface, not
// a real file or network connection.
type fakeSource struct {
	buf    []byte
	path   string
	closed bool
}

func (s *fakeSource) Chunk(ctx context.Context, start, stop int64) (*rbytes.Chunk, error) {
	if stop > int64(len(s.buf)) {
		stop = int64(len(s.buf))
	}
	if start > stop {
		start = stop
	}
	return rbytes.NewChunk(start, stop, s.buf[start:stop]), nil
}

func (s *fakeSource) Chunks(ctx context.Context, ranges []rsource.Range, sink func(*rbytes.Chunk)) ([]*rbytes.Chunk, error) {
	out := make([]*rbytes.Chunk, len(ranges))
	for i, r := range ranges {
		c, err := s.Chunk(ctx, r.Start, r.Stop)
		if err != nil {
			return nil, err
		}
		out[i] = c
		if sink != nil {
			sink(c)
		}
	}
	return out, nil
}

func (s *fakeSource) NumBytes() int64 { return int64(len(s.buf)) }
func (s *fakeSource) Path() string    { return s.path }
func (s *fakeSource) Close() error    { s.closed = true; return nil }
func (s *fakeSource) Closed() bool    { return s.closed }

func TestOpenSourceRejectsMissingMagic(t *testing.T) {
	src := &fakeSource{buf: make([]byte, 100), path: "bad.root"}
	_, err := OpenSource(context.Background(), "bad.root", src, Options{})
	if err == nil {
		t.Fatalf("OpenSource() over a non-ROOT buffer should fail")
	}
	if !src.closed {
		t.Errorf("Source should be closed after a failed open")
	}
}

func TestOptionsSetDefaults(t *testing.T) {
	var o Options
	o.setDefaults()
	if o.Registry == nil {
		t.Errorf("Registry default not set")
	}
	if o.ObjectCache != 256 {
		t.Errorf("ObjectCache = %d, want 256", o.ObjectCache)
	}
}
