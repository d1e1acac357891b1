package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/oshokin/cuda-installer/internal/logger"
)

// errBadHTTPStatus is returned for any final status other than 200.
var errBadHTTPStatus = errors.New("unexpected http status")

const (
	// progressThrottle limits how often the bar is redrawn.
	progressThrottle = 100 * time.Millisecond
	// progressWidth is the bar width in cells.
	progressWidth = 30
	// defaultFileMode is applied to downloaded files.
	defaultFileMode os.FileMode = 0o644
)

// Fetcher downloads a URL into a destination file.
type Fetcher struct {
	// client performs the requests.
	client *http.Client
	// timeout bounds a whole transfer; zero means unbounded.
	timeout time.Duration
	// progress receives the progress bar; nil disables it.
	progress io.Writer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout bounds each transfer.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithProgress draws a progress bar into w.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// WithTerminalProgress draws a progress bar into file only when it is a terminal.
func WithTerminalProgress(file *os.File) Option {
	return func(f *Fetcher) {
		if file != nil && term.IsTerminal(int(file.Fd())) { //nolint:gosec // Descriptors fit in int.
			f.progress = file
		}
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{client: http.DefaultClient}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch downloads url into dest and returns the number of bytes written.
// The destination is removed when the transfer does not complete.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (written int64, err error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, err
	}

	response, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	output, err := os.OpenFile(filepath.Clean(dest), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return 0, err
	}

	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}

		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	var sink io.Writer = output

	if f.progress != nil {
		bar := f.newBar(response.ContentLength, filepath.Base(dest))
		defer func() {
			_ = bar.Exit()
		}()

		sink = io.MultiWriter(output, bar)
	}

	written, err = io.Copy(sink, response.Body)
	if err != nil {
		return written, err
	}

	logger.DebugKV(ctx, "Downloaded file", "url", url, "path", dest, "bytes", written)

	return written, nil
}

func (f *Fetcher) newBar(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(progressWidth),
		progressbar.OptionThrottle(progressThrottle),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(f.progress)
		}),
	)
}
