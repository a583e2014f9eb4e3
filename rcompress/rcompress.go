// Package rcompress dispatches ROOT's framed block compression to the
// concrete codec (ZLIB, LZMA, LZ4, ZSTD) named by each frame's header
// (spec §4.C).
package rcompress

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"

	"github.com/go-hep/groot/rbytes"
)

// Tag identifies a compression algorithm by its 2-byte on-disk prefix.
type Tag string

const (
	TagZLIB    Tag = "ZL"
	TagLZMA    Tag = "XZ"
	TagLZ4     Tag = "L4"
	TagZSTD    Tag = "ZS"
	TagLegacy  Tag = "CS"
	frameHdLen     = 9
)

// frameHeader is the 9-byte header preceding every compressed block: a
// 2-byte algorithm tag, a 1-byte method/level, then two 3-byte
// little-endian lengths (compressed, excluding this header; uncompressed).
type frameHeader struct {
	tag       Tag
	level     byte
	compLen   int
	uncomLen  int
}

func readFrameHeader(b []byte) (frameHeader, error) {
	if len(b) < frameHdLen {
		return frameHeader{}, fmt.Errorf("rcompress: short frame header: %d bytes", len(b))
	}
	return frameHeader{
		tag:      Tag(b[0:2]),
		level:    b[2],
		compLen:  le24(b[3:6]),
		uncomLen: le24(b[6:9]),
	}, nil
}

func le24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}

// Decompress decodes the framed, possibly multi-block, compressed region
// `data` (exactly `compressedBytes` long on disk) into `uncompressedBytes`
// of plain data, wraps the result in an rbytes.Chunk whose Start is
// `origin` (so that a Cursor reading the returned chunk computes correct
// back-reference addresses), and returns it.
//
// A block boundary is the end of one frame; multi-block objects are
// decompressed by concatenation, in order.
func Decompress(data []byte, compressedBytes, uncompressedBytes int, origin int64, path string) (*rbytes.Chunk, error) {
	if compressedBytes == uncompressedBytes {
		// Not actually compressed (spec §4.G step 3): caller should not
		// have called Decompress in that case, but handle it gracefully.
		buf := make([]byte, uncompressedBytes)
		copy(buf, data)
		return rbytes.NewChunk(origin, origin+int64(uncompressedBytes), buf), nil
	}

	out := make([]byte, 0, uncompressedBytes)
	pos := 0
	for pos < compressedBytes && len(out) < uncompressedBytes {
		hdr, err := readFrameHeader(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("rcompress: %q: %w", path, err)
		}
		pos += frameHdLen
		if pos+hdr.compLen > len(data) {
			return nil, fmt.Errorf("rcompress: %q: frame claims %d compressed bytes, only %d remain", path, hdr.compLen, len(data)-pos)
		}
		block := data[pos : pos+hdr.compLen]
		pos += hdr.compLen

		plain, err := decodeBlock(hdr, block, path)
		if err != nil {
			return nil, err
		}
		out = append(out, plain...)
	}
	if len(out) != uncompressedBytes {
		return nil, fmt.Errorf("rcompress: %q: decompressed %d bytes, expected %d", path, len(out), uncompressedBytes)
	}
	return rbytes.NewChunk(origin, origin+int64(uncompressedBytes), out), nil
}

func decodeBlock(hdr frameHeader, block []byte, path string) ([]byte, error) {
	switch hdr.tag {
	case TagZLIB:
		zr, err := zlib.NewReader(bytes.NewReader(block))
		if err != nil {
			return nil, fmt.Errorf("rcompress: %q: zlib: %w", path, err)
		}
		defer zr.Close()
		plain, err := io.ReadAll(io.LimitReader(zr, int64(hdr.uncomLen)))
		if err != nil {
			return nil, fmt.Errorf("rcompress: %q: zlib: %w", path, err)
		}
		return plain, nil

	case TagLZMA:
		lr, err := lzma.NewReader(bytes.NewReader(block))
		if err != nil {
			return nil, fmt.Errorf("rcompress: %q: lzma: %w", path, err)
		}
		plain, err := io.ReadAll(io.LimitReader(lr, int64(hdr.uncomLen)))
		if err != nil {
			return nil, fmt.Errorf("rcompress: %q: lzma: %w", path, err)
		}
		return plain, nil

	case TagLZ4:
		if len(block) < 8 {
			return nil, fmt.Errorf("rcompress: %q: lz4 block too short for checksum", path)
		}
		sum := beLoUint64(block[:8])
		payload := block[8:]
		plain := make([]byte, hdr.uncomLen)
		n, err := lz4.UncompressBlock(payload, plain)
		if err != nil {
			return nil, fmt.Errorf("rcompress: %q: lz4: %w", path, err)
		}
		plain = plain[:n]
		if got := xxhash.Sum64(plain); got != sum {
			return nil, fmt.Errorf("rcompress: %q: lz4 checksum mismatch: got %x want %x", path, got, sum)
		}
		return plain, nil

	case TagZSTD:
		zr, err := zstd.NewReader(bytes.NewReader(block))
		if err != nil {
			return nil, fmt.Errorf("rcompress: %q: zstd: %w", path, err)
		}
		defer zr.Close()
		plain, err := io.ReadAll(io.LimitReader(zr, int64(hdr.uncomLen)))
		if err != nil {
			return nil, fmt.Errorf("rcompress: %q: zstd: %w", path, err)
		}
		return plain, nil

	case TagLegacy:
		return nil, &rbytes.UnsupportedFeature{Feature: "legacy 'CS' compression algorithm"}

	default:
		return nil, fmt.Errorf("rcompress: %q: unknown compression tag %q", path, hdr.tag)
	}
}

// beLoUint64 reads 8 bytes as the little-endian uint64 xxhash checksum
// ROOT's LZ4 framing writes ahead of the LZ4 block payload.
func beLoUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
