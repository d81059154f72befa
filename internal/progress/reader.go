// Package progress provides utilities for tracking upload I/O progress.
package progress

import "io"

// Callback is called to report progress during I/O operations.
type Callback func(bytesTransferred, totalBytes int64)

// Reader wraps an io.Reader to count bytes consumed and report progress.
// The pipeline wraps content sources with it before upload so consumers can
// drive progress indicators without touching the storage client.
type Reader struct {
	src      io.Reader
	callback Callback
	total    int64
	consumed int64
}

// NewReader creates a progress-tracking reader.
// The total parameter is the expected size (-1 if unknown).
// The callback fires after each Read with cumulative bytes and total.
func NewReader(src io.Reader, total int64, callback Callback) *Reader {
	return &Reader{
		src:      src,
		callback: callback,
		total:    total,
	}
}

// Read implements io.Reader and reports progress after each read.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.consumed += int64(n)
		if r.callback != nil {
			r.callback(r.consumed, r.total)
		}
	}
	return n, err
}

// Close closes the underlying reader if it implements io.Closer.
func (r *Reader) Close() error {
	if closer, ok := r.src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
