// Copyright 2017 The go-hep Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rbytes provides the Chunk and Cursor primitives every other
// package in this module builds on: an immutable byte window tagged with
// its absolute seek range, and a movable read pointer over that window
// with typed decoders and an object back-reference table.
package rbytes

import (
	"fmt"
	"sync"
)

// Chunk is an immutable window of bytes tagged with its absolute [Start,
// Stop) seek range in some Source. A Chunk may be synchronously filled
// (bytes already present) or pending (a goroutine will supply them later).
//
// Once filled, len(Bytes()) == Stop-Start always holds.
type Chunk struct {
	Start, Stop int64

	mu     sync.Mutex
	buf    []byte
	err    error
	done   chan struct{}
	filled bool
}

// NewChunk returns an already-filled Chunk over buf, which must have
// length Stop-Start.
func NewChunk(start, stop int64, buf []byte) *Chunk {
	if int64(len(buf)) != stop-start {
		panic(fmt.Errorf("rbytes: chunk length %d != stop-start %d", len(buf), stop-start))
	}
	c := &Chunk{Start: start, Stop: stop, buf: buf, filled: true}
	c.done = closedChan
	return c
}

// closedChan is a shared, already-closed channel used by chunks that are
// filled at construction time, so Wait never allocates for the common case.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NewPendingChunk returns a Chunk for [start,stop) that is not yet filled.
// Fill or Fail must eventually be called exactly once.
func NewPendingChunk(start, stop int64) *Chunk {
	return &Chunk{Start: start, Stop: stop, done: make(chan struct{})}
}

// Fill supplies the bytes for a pending chunk, transitioning it to filled.
// buf must have length Stop-Start.
func (c *Chunk) Fill(buf []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filled || c.err != nil {
		return
	}
	if int64(len(buf)) != c.Stop-c.Start {
		c.err = fmt.Errorf("rbytes: chunk [%d,%d): got %d bytes", c.Start, c.Stop, len(buf))
		close(c.done)
		return
	}
	c.buf = buf
	c.filled = true
	close(c.done)
}

// Fail transitions a pending chunk to failed; any Cursor reading from it
// will observe err wrapped with the chunk's byte range.
func (c *Chunk) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filled || c.err != nil {
		return
	}
	c.err = err
	close(c.done)
}

// Wait blocks until the chunk is filled or failed, and returns its bytes
// or the terminal error.
func (c *Chunk) Wait() ([]byte, error) {
	<-c.done
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, fmt.Errorf("rbytes: read error for range [%d, %d): %w", c.Start, c.Stop, c.err)
	}
	return c.buf, nil
}

// Contains reports whether this chunk can satisfy the byte range [a,b)
// without a new fetch.
func (c *Chunk) Contains(a, b int64) bool {
	return a >= c.Start && b <= c.Stop
}

// Len returns Stop-Start.
func (c *Chunk) Len() int64 { return c.Stop - c.Start }
