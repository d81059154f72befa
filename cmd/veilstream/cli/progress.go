package cli

import (
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/veilstream/veilstream"
)

// shouldShowProgress returns true if progress bars should be displayed.
func shouldShowProgress() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// newProgressBar creates a progress bar for byte-based operations.
func newProgressBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionUseANSICodes(true),
	)
}

// newUploadProgress creates a progress callback for publish operations.
// Returns the callback and a finish function to call when done.
// Returns nil callback if progress should not be shown.
func newUploadProgress(total int64) (callback veilstream.ProgressCallback, finish func()) {
	if !shouldShowProgress() {
		return nil, func() {}
	}

	var bar *progressbar.ProgressBar
	var once sync.Once

	callback = func(event veilstream.ProgressEvent) {
		once.Do(func() {
			bar = newProgressBar(total, "Uploading")
		})
		if bar != nil {
			//nolint:errcheck // progress bar errors are not critical
			bar.Set64(event.BytesTransferred)
		}
	}

	finish = func() {
		if bar != nil {
			//nolint:errcheck // progress bar errors are not critical
			bar.Finish()
		}
	}

	return callback, finish
}
