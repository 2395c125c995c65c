// Package ratelimit throttles preview downloads to a configured bandwidth.
package ratelimit

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// minBurst keeps small limits from degenerating into tiny reads
const minBurst = 64 * 1024

// Limiter shares a bandwidth budget across all readers it wraps
type Limiter struct {
	bytesPerSecond int64
	limiter        *rate.Limiter
}

// NewLimiter creates a limiter allowing bytesPerSecond with a burst of one second of data
// (at least 64KB). A non-positive limit disables limiting and returns nil.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		limiter:        rate.NewLimiter(rate.Limit(bytesPerSecond), int(burst)),
	}
}

// BytesPerSecond returns the configured limit
func (l *Limiter) BytesPerSecond() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Burst returns the largest single read allowed without waiting
func (l *Limiter) Burst() int {
	return l.limiter.Burst()
}

// Reader wraps an io.Reader with bandwidth limiting
type Reader struct {
	reader  io.Reader
	limiter *Limiter
	ctx     context.Context
}

// NewReader wraps reader; a nil limiter returns reader unchanged
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{
		reader:  reader,
		limiter: limiter,
		ctx:     ctx,
	}
}

// Read reads at most one burst and then waits until the bytes fit the budget
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := r.reader.Read(p)
	if n > 0 {
		if waitErr := r.limiter.limiter.WaitN(r.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}

// ReadCloser wraps an io.ReadCloser with bandwidth limiting
type ReadCloser struct {
	Reader
	closer io.Closer
}

// NewReadCloser wraps rc; a nil limiter returns rc unchanged
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &ReadCloser{
		Reader: Reader{
			reader:  rc,
			limiter: limiter,
			ctx:     ctx,
		},
		closer: rc,
	}
}

// Close closes the underlying reader
func (rc *ReadCloser) Close() error {
	return rc.closer.Close()
}
