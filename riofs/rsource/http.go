package rsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"k8s.io/klog/v2"

	"github.com/go-hep/groot/rbytes"
)

// HTTPSource fetches byte ranges over HTTP(S) (spec §4.A). A single
// vector request sends one Range header with multiple intervals when the
// server answers with a multipart/byteranges response; otherwise it falls
// back to one request per range over a bounded connection pool.
type HTTPSource struct {
	url  string
	opts Options

	client *http.Client
	pool   *Pool

	mu     sync.Mutex
	size   int64
	closed bool
}

// NewHTTPSource opens an HTTP(S) Source against url, issuing a HEAD (or
// ranged GET fallback) to discover the content length.
func NewHTTPSource(ctx context.Context, url string, opts Options) (*HTTPSource, error) {
	opts.setDefaults()
	tr := &http.Transport{MaxIdleConnsPerHost: opts.NumWorkers}
	client := &http.Client{Transport: tr, Timeout: opts.Timeout}

	s := &HTTPSource{url: url, opts: opts, client: client, pool: NewPool(opts.NumWorkers)}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, &rbytes.SourceError{Path: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &rbytes.SourceError{Path: url, Err: err}
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &rbytes.SourceError{Path: url, Err: fmt.Errorf("HEAD %s: status %d", url, resp.StatusCode)}
	}
	s.size = resp.ContentLength
	return s, nil
}

func (s *HTTPSource) Path() string    { return s.url }
func (s *HTTPSource) NumBytes() int64 { return s.size }

func (s *HTTPSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *HTTPSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.client.CloseIdleConnections()
	return nil
}

func (s *HTTPSource) Chunk(ctx context.Context, start, stop int64) (*rbytes.Chunk, error) {
	chunks, err := s.Chunks(ctx, []Range{{start, stop}}, nil)
	if err != nil {
		return nil, err
	}
	return chunks[0], nil
}

func (s *HTTPSource) Chunks(ctx context.Context, ranges []Range, sink func(*rbytes.Chunk)) ([]*rbytes.Chunk, error) {
	if s.Closed() {
		return nil, &ErrClosed{Path: s.url}
	}
	if len(ranges) > 1 {
		if chunks, err := s.multiRangeFetch(ctx, ranges, sink); err == nil {
			return chunks, nil
		} else {
			klog.V(2).Infof("rsource: %s: multipart range request failed (%v), falling back to parallel single-range fetches", s.url, err)
		}
	}

	out := make([]*rbytes.Chunk, len(ranges))
	err := s.pool.GoGroup(ctx, len(ranges), func(ctx context.Context, i int) error {
		c, err := s.fetchOne(ctx, ranges[i].Start, ranges[i].Stop)
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

func (s *HTTPSource) fetchOne(ctx context.Context, start, stop int64) (*rbytes.Chunk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &rbytes.SourceError{Path: s.url, Start: start, Stop: stop, Err: err}
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, stop-1))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &rbytes.SourceError{Path: s.url, Start: start, Stop: stop, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, &rbytes.SourceError{Path: s.url, Start: start, Stop: stop, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	buf := make([]byte, stop-start)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		return nil, &rbytes.SourceError{Path: s.url, Start: start, Stop: stop, Err: err}
	}
	return rbytes.NewChunk(start, stop, buf), nil
}

// multiRangeFetch issues one request carrying every interval in a single
// Range header and parses the multipart/byteranges response. If the
// server does not honor multipart ranges, it returns an error so the
// caller can fall back.
func (s *HTTPSource) multiRangeFetch(ctx context.Context, ranges []Range, sink func(*rbytes.Chunk)) ([]*rbytes.Chunk, error) {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf("%d-%d", r.Start, r.Stop-1)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", "bytes="+strings.Join(parts, ","))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("server returned status %d, not 206", resp.StatusCode)
	}
	mediaType, params, err := parseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/byteranges") {
		return nil, fmt.Errorf("unexpected content-type %q", resp.Header.Get("Content-Type"))
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("missing multipart boundary")
	}

	out := make([]*rbytes.Chunk, 0, len(ranges))
	mr := newMultipartByterangeReader(resp.Body, boundary)
	for {
		start, stop, data, err := mr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		c := rbytes.NewChunk(start, stop, data)
		out = append(out, c)
		if sink != nil {
			sink(c)
		}
	}
	if len(out) != len(ranges) {
		return nil, fmt.Errorf("server returned %d parts, requested %d", len(out), len(ranges))
	}
	return out, nil
}

func parseMediaType(v string) (string, map[string]string, error) {
	parts := strings.Split(v, ";")
	mediaType := strings.TrimSpace(parts[0])
	params := map[string]string{}
	for _, p := range parts[1:] {
		kv := strings.SplitN(strings.TrimSpace(p), "=", 2)
		if len(kv) == 2 {
			params[strings.ToLower(kv[0])] = strings.Trim(kv[1], `"`)
		}
	}
	return mediaType, params, nil
}

// multipartByterangeReader is a minimal multipart/byteranges body parser:
// each part has a Content-Range: bytes a-b/total header followed by a
// blank line and the raw bytes, parts separated by --boundary lines.
type multipartByterangeReader struct {
	body     io.Reader
	boundary string
	buf      []byte
	pos      int
	done     bool
}

func newMultipartByterangeReader(r io.Reader, boundary string) *multipartByterangeReader {
	return &multipartByterangeReader{body: r, boundary: boundary}
}

func (m *multipartByterangeReader) fill() error {
	if m.buf != nil {
		return nil
	}
	b, err := io.ReadAll(m.body)
	if err != nil {
		return err
	}
	m.buf = b
	return nil
}

func (m *multipartByterangeReader) next() (start, stop int64, data []byte, err error) {
	if m.done {
		return 0, 0, nil, io.EOF
	}
	if err := m.fill(); err != nil {
		return 0, 0, nil, err
	}
	sep := "--" + m.boundary
	rest := string(m.buf[m.pos:])
	idx := strings.Index(rest, sep)
	if idx < 0 {
		m.done = true
		return 0, 0, nil, io.EOF
	}
	rest = rest[idx+len(sep):]
	if strings.HasPrefix(strings.TrimLeft(rest, "\r\n"), "--") {
		m.done = true
		return 0, 0, nil, io.EOF
	}
	hdrEnd := strings.Index(rest, "\r\n\r\n")
	if hdrEnd < 0 {
		m.done = true
		return 0, 0, nil, fmt.Errorf("rsource: malformed multipart part")
	}
	header := rest[:hdrEnd]
	var a, b int64
	for _, line := range strings.Split(header, "\r\n") {
		if strings.HasPrefix(strings.ToLower(line), "content-range:") {
			v := strings.TrimSpace(line[strings.Index(line, ":")+1:])
			v = strings.TrimPrefix(v, "bytes ")
			v = strings.SplitN(v, "/", 2)[0]
			ab := strings.SplitN(v, "-", 2)
			a, _ = strconv.ParseInt(ab[0], 10, 64)
			b, _ = strconv.ParseInt(ab[1], 10, 64)
		}
	}
	n := int(b - a + 1)
	bodyStart := idx + len(sep) + hdrEnd + len("\r\n\r\n")
	absBodyStart := m.pos + bodyStart
	if absBodyStart+n > len(m.buf) {
		return 0, 0, nil, fmt.Errorf("rsource: truncated multipart body")
	}
	data = append([]byte(nil), m.buf[absBodyStart:absBodyStart+n]...)
	m.pos = absBodyStart + n
	return a, b + 1, data, nil
}
