package statshttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/stats"
)

// Client talks to a stats service for one named dataset and satisfies
// stats.Provider. Transport failures and server errors wrap
// stats.ErrUnavailable; request rejections wrap stats.ErrBadQuery.
type Client struct {
	base    string
	dataset string
	crit    string
	hc      *http.Client
	logger  *slog.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default 10s-timeout client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithCriterion sends an impurity criterion with every request. Without
// it the server applies its default.
func WithCriterion(crit mltree.Criterion) ClientOption {
	return func(c *Client) { c.crit = crit.String() }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client for the service at base (no trailing
// slash), querying the named dataset.
func NewClient(base, dataset string, opts ...ClientOption) *Client {
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		dataset: dataset,
		hc:      &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Client) FetchHistogram(ctx context.Context, q stats.Query) (*mltree.Histogram, error) {
	req := statsRequest{Dataset: c.dataset, Rules: q.Rules, Feature: q.Feature, Threshold: q.Threshold, Criterion: c.crit}
	var out mltree.Histogram
	if err := c.post(ctx, "/api/tree/histogram", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FeatureStats(ctx context.Context, q stats.Query) (*stats.FeatureStats, error) {
	req := statsRequest{Dataset: c.dataset, Rules: q.Rules, Feature: q.Feature, Criterion: c.crit}
	var out stats.FeatureStats
	if err := c.post(ctx, "/api/tree/feature-stats", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("statshttp: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("statshttp: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", stats.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		c.logger.Warn("stats request rejected",
			"path", path, "status", resp.StatusCode, "duration", time.Since(start))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("%w: status %d: %s", stats.ErrBadQuery, resp.StatusCode, detail)
		}
		return fmt.Errorf("%w: status %d: %s", stats.ErrUnavailable, resp.StatusCode, detail)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", stats.ErrUnavailable, err)
	}
	c.logger.Debug("stats request served", "path", path, "duration", time.Since(start))
	return nil
}
