// Package fetch performs the JSON requests made to statistics providers and
// maps unsuccessful responses onto cpi.HTTPError.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"go.uber.org/zap"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 8 << 20

// ErrResponseTooLarge is returned when a provider response exceeds the body limit.
var ErrResponseTooLarge = errors.New("response body too large")

// Client issues requests on behalf of the source adapters.
type Client struct {
	http      *http.Client
	userAgent string
	logger    *zap.Logger
	maxBody   int64
}

// NewClient wraps an http.Client. A nil client uses http.DefaultClient and a
// nil logger discards output.
func NewClient(httpClient *http.Client, userAgent string, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: httpClient, userAgent: userAgent, logger: logger, maxBody: maxBodyBytes}
}

// GetJSON issues a GET request and returns the raw body of a 2xx response.
func (c *Client) GetJSON(ctx context.Context, op, rawURL string, query url.Values) ([]byte, error) {
	target := rawURL
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		target = rawURL + sep + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	return c.do(req, op)
}

// PostJSON encodes payload as the request body and returns the raw body of a
// 2xx response.
func (c *Client) PostJSON(ctx context.Context, op, rawURL string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op)
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("op", op),
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Host, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	c.logger.Debug("upstream response",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &cpi.HTTPError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL.Host, err)
	}
	if int64(len(data)) > c.maxBody {
		c.logger.Warn("upstream response exceeds body limit",
			zap.String("op", op),
			zap.String("url", req.URL.String()),
			zap.Int64("limit", c.maxBody),
		)
		return nil, fmt.Errorf("%w: %s sent more than %d bytes", ErrResponseTooLarge, req.URL.Host, c.maxBody)
	}
	return data, nil
}

// Number converts a decoded JSON value holding a number, or a string holding
// a number, to float64.
func Number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	}
	return 0, false
}

// Text converts a decoded JSON scalar to its string form. Numbers are printed
// without a trailing ".0".
func Text(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		trimmed := strings.TrimSpace(s)
		return trimmed, trimmed != ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case json.Number:
		return s.String(), true
	}
	return "", false
}
