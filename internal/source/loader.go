package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/observability"
	"github.com/spherical/figure-extractor/internal/pdf"
)

// Loader downloads remote documents. It never retries.
type Loader struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	rasterizer *pdf.Rasterizer
	logger     *observability.Logger
}

// LoaderConfig bounds downloads.
type LoaderConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// NewLoader creates a loader. A nil client uses a fresh http.Client.
func NewLoader(cfg LoaderConfig, client *http.Client, logger *observability.Logger) *Loader {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Loader{
		httpClient: client,
		timeout:    cfg.Timeout,
		maxBytes:   cfg.MaxBytes,
		rasterizer: pdf.NewRasterizer(),
		logger:     logger.WithOperation("fetch"),
	}
}

// Fetch downloads url and returns the body.
func (l *Loader) Fetch(ctx context.Context, url string) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.ValidationError("invalid document URL", err)
	}

	start := time.Now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NetworkError(
			fmt.Sprintf("document download returned HTTP %d", resp.StatusCode), resp.StatusCode, nil)
	}

	body := io.Reader(resp.Body)
	if l.maxBytes > 0 {
		body = io.LimitReader(resp.Body, l.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, domain.ValidationError(fmt.Sprintf("document exceeds %d bytes", l.maxBytes), nil)
	}

	l.logger.Debug().
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("document downloaded")
	return data, nil
}

// OpenRemotePDF downloads url and opens it as an in-memory PDF. The caller
// owns the returned handle.
func (l *Loader) OpenRemotePDF(ctx context.Context, url string) (*fitz.Document, error) {
	data, err := l.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return l.rasterizer.OpenMemory(data)
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.TimeoutError("document download timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.TimeoutError("document download timed out", err)
	}
	return domain.NetworkError("document download failed", 0, err)
}
