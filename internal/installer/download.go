package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/time/rate"
)

// Thresholds for download-progress events. An event is sent when either
// is crossed since the last one, and once more when the body ends.
const (
	reportEveryBytes   = 1 << 20
	reportEveryPercent = 1.0
)

const copyBufferSize = 32 * 1024

// progressFunc receives the bytes written so far and the expected total,
// which is zero when the server did not send a length.
type progressFunc func(downloaded, total int64, percentage float64)

// throttle decides which progress updates become events.
type throttle struct {
	total       int64
	lastBytes   int64
	lastPercent float64
	emit        progressFunc
}

func (t *throttle) update(downloaded int64, final bool) {
	var pct float64
	if t.total > 0 {
		pct = float64(downloaded) / float64(t.total) * 100
	}
	if !final &&
		downloaded-t.lastBytes < reportEveryBytes &&
		pct-t.lastPercent < reportEveryPercent &&
		downloaded != t.total {
		return
	}
	t.lastBytes, t.lastPercent = downloaded, pct
	t.emit(downloaded, t.total, pct)
}

// countingWriter feeds byte counts into a throttle.
type countingWriter struct {
	n int64
	t *throttle
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	w.t.update(w.n, false)
	return len(p), nil
}

// limitedReader blocks reads to stay under a bandwidth limit.
type limitedReader struct {
	ctx context.Context
	r   io.Reader
	lim *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if b := l.lim.Burst(); len(p) > b {
		p = p[:b]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.lim.WaitN(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// newLimiter returns a limiter for bytesPerSec, or nil for no limit.
func newLimiter(bytesPerSec int64) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := int(bytesPerSec)
	if burst < copyBufferSize {
		burst = copyBufferSize
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// fetched describes a completed download.
type fetched struct {
	path   string
	header http.Header
	size   int64
}

// download streams url into a new file in dir named after pattern.
func (in *Installer) download(ctx context.Context, url, dir, pattern string, progress progressFunc) (*fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", in.source.UserAgent())

	resp, err := in.source.HTTP().Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("creating download file: %w", err)
	}
	path := f.Name()
	fail := func(err error) (*fetched, error) {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	var body io.Reader = resp.Body
	if in.limiter != nil {
		body = &limitedReader{ctx: ctx, r: body, lim: in.limiter}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	t := &throttle{total: total, emit: progress}
	counter := &countingWriter{t: t}

	buf := make([]byte, copyBufferSize)
	n, err := io.CopyBuffer(io.MultiWriter(f, counter), body, buf)
	if err != nil {
		return fail(fmt.Errorf("reading download stream: %w", err))
	}
	if total > 0 && n != total {
		return fail(fmt.Errorf("incomplete download: got %d of %d bytes", n, total))
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing download file: %w", err)
	}
	if n != t.lastBytes {
		t.update(n, true)
	}

	return &fetched{path: path, header: resp.Header, size: n}, nil
}
