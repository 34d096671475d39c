package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/observability"
)

const defaultAPIVersion = "2024-11-30"

// Analyzer runs a Document Intelligence model over a document URL.
type Analyzer interface {
	Analyze(ctx context.Context, model, documentURL string) (*Result, error)
}

// ClientConfig holds endpoint credentials and polling settings.
type ClientConfig struct {
	Endpoint     string
	Key          string
	APIVersion   string
	PollInterval time.Duration
	// Timeout bounds submit plus polling. Zero means no bound.
	Timeout time.Duration
	Retry   *RetryConfig
}

// Client handles communication with the Document Intelligence REST API.
type Client struct {
	endpoint     string
	key          string
	apiVersion   string
	pollInterval time.Duration
	timeout      time.Duration
	retry        *RetryConfig
	httpClient   *http.Client
	logger       *observability.Logger
}

var _ Analyzer = (*Client)(nil)

// NewClient creates a new Document Intelligence client
func NewClient(cfg ClientConfig, httpClient *http.Client, logger *observability.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Retry == nil {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		key:          cfg.Key,
		apiVersion:   cfg.APIVersion,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		retry:        cfg.Retry,
		httpClient:   httpClient,
		logger:       logger.WithOperation("analyze"),
	}
}

// Analyze submits documentURL to model and waits for the result. Output
// content is requested as markdown.
func (c *Client) Analyze(ctx context.Context, model, documentURL string) (*Result, error) {
	if model == "" {
		return nil, domain.ValidationError("model is required", nil)
	}
	if documentURL == "" {
		return nil, domain.ValidationError("document URL is required", nil)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	opURL, err := c.submit(ctx, model, documentURL)
	if err != nil {
		return nil, c.wrapContextErr(ctx, err)
	}

	result, err := c.poll(ctx, opURL)
	if err != nil {
		return nil, c.wrapContextErr(ctx, err)
	}

	c.logger.Info().
		Str("model", model).
		Int("pages", len(result.Pages)).
		Int("figures", len(result.Figures)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")
	return result, nil
}

// submit starts the analyze operation and returns its Operation-Location.
func (c *Client) submit(ctx context.Context, model, documentURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"urlSource": documentURL})
	if err != nil {
		return "", domain.APIError("failed to marshal request", 0, err)
	}

	q := url.Values{}
	q.Set("api-version", c.apiVersion)
	q.Set("outputContentFormat", "markdown")
	analyzeURL := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?%s",
		c.endpoint, url.PathEscape(model), q.Encode())

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", responseError("analyze request rejected", resp)
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", domain.APIError("analyze response has no Operation-Location", resp.StatusCode, nil)
	}
	return opURL, nil
}

// poll waits for the operation at opURL to finish.
func (c *Client) poll(ctx context.Context, opURL string) (*Result, error) {
	for {
		resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
			return c.httpClient.Do(req)
		})
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			err := responseError("poll analyze operation", resp)
			resp.Body.Close()
			return nil, err
		}

		var op operation
		err = json.NewDecoder(resp.Body).Decode(&op)
		resp.Body.Close()
		if err != nil {
			return nil, domain.APIError("failed to decode operation", resp.StatusCode, err)
		}

		switch op.Status {
		case StatusSucceeded:
			if op.AnalyzeResult == nil {
				return nil, domain.APIError("operation succeeded without a result", 0, nil)
			}
			return op.AnalyzeResult, nil
		case StatusFailed, StatusCanceled:
			msg := "analysis " + op.Status
			if op.Error != nil {
				msg = fmt.Sprintf("%s: %s: %s", msg, op.Error.Code, op.Error.Message)
			}
			return nil, domain.APIError(msg, 0, nil)
		case StatusNotStarted, StatusRunning:
			c.logger.Debug().Str("status", op.Status).Msg("analysis in progress")
		default:
			c.logger.Warn().Str("status", op.Status).Msg("unknown analysis status, polling again")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) wrapContextErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.TimeoutError("analysis timed out", err)
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return domain.APIError("analysis canceled", 0, err)
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.APIError("analysis request failed", 0, err)
}

// responseError turns a non-success response into an api error carrying the
// service's error message when there is one.
func responseError(msg string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env errorEnvelope
	if json.Unmarshal(data, &env) == nil && env.Error != nil {
		msg = fmt.Sprintf("%s: %s: %s", msg, env.Error.Code, env.Error.Message)
	} else if len(data) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(data)))
	}
	return domain.APIError(fmt.Sprintf("%s (HTTP %d)", msg, resp.StatusCode), resp.StatusCode, nil)
}
