package rsource

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-hep/groot/rbytes"
)

// PreadSource serves Chunks via os.File.ReadAt over a small pool of file
// handles (spec §4.A "Pread local file"). Each chunk is a fresh
// allocation, unlike MMapSource's zero-copy views. OpenLocal uses it when
// mmap is unavailable (character devices, some network-mounted paths).
type PreadSource struct {
	path string
	opts Options

	mu      sync.Mutex
	handles []*os.File
	next    int
	size    int64
	closed  bool
}

// NewPreadSource opens path with a pool of opts.NumFallbackWorkers file
// handles.
func NewPreadSource(path string, opts Options) (*PreadSource, error) {
	opts.setDefaults()
	n := opts.NumFallbackWorkers
	handles := make([]*os.File, 0, n)
	for i := 0; i < n; i++ {
		f, err := os.Open(path)
		if err != nil {
			for _, h := range handles {
				h.Close()
			}
			return nil, &rbytes.SourceError{Path: path, Err: err}
		}
		handles = append(handles, f)
	}
	fi, err := handles[0].Stat()
	if err != nil {
		for _, h := range handles {
			h.Close()
		}
		return nil, &rbytes.SourceError{Path: path, Err: err}
	}
	return &PreadSource{path: path, opts: opts, handles: handles, size: fi.Size()}, nil
}

func (s *PreadSource) Path() string    { return s.path }
func (s *PreadSource) NumBytes() int64 { return s.size }

func (s *PreadSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *PreadSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var first error
	for _, h := range s.handles {
		if err := h.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// handle returns the next file handle in round-robin order.
func (s *PreadSource) handle() *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.handles[s.next%len(s.handles)]
	s.next++
	return h
}

func (s *PreadSource) Chunk(ctx context.Context, start, stop int64) (*rbytes.Chunk, error) {
	if s.Closed() {
		return nil, &ErrClosed{Path: s.path}
	}
	if start < 0 || stop > s.size || start > stop {
		return nil, &rbytes.SourceError{Path: s.path, Start: start, Stop: stop, Err: fmt.Errorf("out of range (size=%d)", s.size)}
	}
	buf := make([]byte, stop-start)
	if _, err := s.handle().ReadAt(buf, start); err != nil {
		return nil, &rbytes.SourceError{Path: s.path, Start: start, Stop: stop, Err: err}
	}
	return rbytes.NewChunk(start, stop, buf), nil
}

func (s *PreadSource) Chunks(ctx context.Context, ranges []Range, sink func(*rbytes.Chunk)) ([]*rbytes.Chunk, error) {
	pool := NewPool(len(s.handles))
	out := make([]*rbytes.Chunk, len(ranges))
	err := pool.GoGroup(ctx, len(ranges), func(ctx context.Context, i int) error {
		c, err := s.Chunk(ctx, ranges[i].Start, ranges[i].Stop)
		if err != nil {
			return err
		}
		out[i] = c
		if sink != nil {
			sink(c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OpenLocal opens a local file, preferring a memory-mapped Source and
// falling back to pread when mmap fails (spec §4.A).
func OpenLocal(path string, opts Options) (Source, error) {
	opts.setDefaults()
	if s, err := NewMMapSource(path); err == nil {
		return s, nil
	}
	return NewPreadSource(path, opts)
}
