// Package rsource implements the Source contract of spec §4.A: random
// access byte fetching behind a uniform chunk/cursor abstraction, with a
// bounded worker-pool executor for parallel fetches (spec §5).
package rsource

import (
	"context"
	"fmt"
	"time"

	"github.com/go-hep/groot/rbytes"
)

// Range is an inclusive-start, exclusive-stop byte range request.
type Range struct {
	Start, Stop int64
}

// Source is the uniform contract every physical backend (mmap, pread,
// HTTP range, XRootD vector) implements.
type Source interface {
	// Chunk blocks until the byte range [start,stop) is available and
	// returns it, satisfying from any in-process cache when possible.
	Chunk(ctx context.Context, start, stop int64) (*rbytes.Chunk, error)

	// Chunks issues a (possibly vectored) request for every range, and
	// delivers each resulting Chunk to sink as soon as it is ready, in
	// addition to returning the full set in request order. Implementations
	// must preserve the requested ranges exactly in the returned chunks.
	Chunks(ctx context.Context, ranges []Range, sink func(*rbytes.Chunk)) ([]*rbytes.Chunk, error)

	// NumBytes returns the total size of the underlying resource.
	NumBytes() int64

	// Path returns the path or URL this source was opened against, used
	// to annotate errors.
	Path() string

	Close() error
	Closed() bool
}

// Options configures a Source; see spec §6's configuration table.
type Options struct {
	Timeout            time.Duration // default 30s
	NumWorkers         int           // default 8
	NumFallbackWorkers int           // default 4
	MaxNumElements     int           // cap on vector-read fan-out; default 1024
	BeginChunkSize     int64         // prefetch length at file open; min 72
}

// DefaultOptions returns an Options populated with the defaults named in
// spec §6.
func DefaultOptions() Options {
	return Options{
		Timeout:            30 * time.Second,
		NumWorkers:         8,
		NumFallbackWorkers: 4,
		MaxNumElements:     1024,
		BeginChunkSize:     512,
	}
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = 8
	}
	if o.NumFallbackWorkers <= 0 {
		o.NumFallbackWorkers = 4
	}
	if o.MaxNumElements <= 0 {
		o.MaxNumElements = 1024
	}
	if o.BeginChunkSize < 72 {
		o.BeginChunkSize = 72
	}
}

// ErrClosed is returned by any operation on a closed Source.
type ErrClosed struct{ Path string }

func (e *ErrClosed) Error() string { return fmt.Sprintf("rsource: %q: source is closed", e.Path) }
