package resource

import (
	"context"
	"io"
)

// NewRateLimitedWriter returns w with every write charged to rc's IO budget
// before it is passed on. With a nil rc, w is returned unchanged.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) io.Writer {
	if rc == nil {
		return w
	}
	return &meteredWriter{ctx: ctx, w: w, rc: rc}
}

// NewRateLimitedReader returns r with the bytes it yields charged to rc's
// IO budget after each read. With a nil rc, r is returned unchanged.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) io.Reader {
	if rc == nil {
		return r
	}
	return &meteredReader{ctx: ctx, r: r, rc: rc}
}

type meteredWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

func (m *meteredWriter) Write(p []byte) (int, error) {
	if err := m.rc.AcquireIO(m.ctx, len(p)); err != nil {
		return 0, err
	}
	return m.w.Write(p)
}

type meteredReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

func (m *meteredReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if n > 0 {
		if aerr := m.rc.AcquireIO(m.ctx, n); aerr != nil && err == nil {
			err = aerr
		}
	}
	return n, err
}
