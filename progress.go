package veilstream

// ProgressEvent represents a progress update during upload operations.
type ProgressEvent struct {
	// Operation identifies the operation type ("upload").
	Operation string
	// BytesTransferred is the cumulative bytes transferred so far.
	BytesTransferred int64
	// TotalBytes is the total expected size, or -1 when unknown.
	TotalBytes int64
}

// ProgressCallback is called during upload operations to report progress.
// Implementations should be efficient as this may be called frequently.
type ProgressCallback func(event ProgressEvent)
