package rsource

import (
	"context"
	"fmt"
	"os"
	"sync"

	mmap "github.com/edsrzf/mmap-go"
	"k8s.io/klog/v2"

	"github.com/go-hep/groot/rbytes"
)

// MMapSource memory-maps a local file and serves every Chunk as a
// zero-copy view into the mapping (spec §4.A "Memory-mapped local file").
// It is the default local-file Source; OpenLocal falls back to PreadSource
// when the mapping cannot be created.
type MMapSource struct {
	path string
	f    *os.File
	data mmap.MMap

	mu     sync.Mutex
	closed bool
}

// NewMMapSource memory-maps path for reading. The caller should prefer
// OpenLocal, which falls back to a pread-based source on mmap failure.
func NewMMapSource(path string) (*MMapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &rbytes.SourceError{Path: path, Err: err}
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("rsource: mmap %q: %w", path, err)
	}
	return &MMapSource{path: path, f: f, data: data}, nil
}

func (s *MMapSource) Path() string     { return s.path }
func (s *MMapSource) NumBytes() int64  { return int64(len(s.data)) }
func (s *MMapSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *MMapSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.data.Unmap(); err != nil {
		klog.Warningf("rsource: unmap %q: %v", s.path, err)
	}
	return s.f.Close()
}

func (s *MMapSource) Chunk(ctx context.Context, start, stop int64) (*rbytes.Chunk, error) {
	if s.Closed() {
		return nil, &ErrClosed{Path: s.path}
	}
	if start < 0 || stop > int64(len(s.data)) || start > stop {
		return nil, &rbytes.SourceError{Path: s.path, Start: start, Stop: stop, Err: fmt.Errorf("out of range (size=%d)", len(s.data))}
	}
	// Zero-copy: the chunk aliases the mapping directly.
	return rbytes.NewChunk(start, stop, s.data[start:stop]), nil
}

func (s *MMapSource) Chunks(ctx context.Context, ranges []Range, sink func(*rbytes.Chunk)) ([]*rbytes.Chunk, error) {
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
