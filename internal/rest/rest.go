// Package rest is a thin wrapper around the node REST API.
package rest

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

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/metrics"
	"github.com/rs/zerolog/log"
)

const apiPrefix = "/g1"

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type Options struct {
	UserAgent string
	// Timeout bounds every request; zero disables it.
	Timeout time.Duration
	// SessionID returns the node session the player endpoints are scoped to.
	SessionID  func() string
	HTTPClient Doer
}

type Client struct {
	node string
	url  string
	auth string
	opts Options
}

func New(node domain.NodeOption, opts Options) *Client {
	scheme := "http"
	if node.Secure {
		scheme = "https"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.SessionID == nil {
		opts.SessionID = func() string { return "" }
	}
	return &Client{
		node: node.Name,
		url:  fmt.Sprintf("%s://%s%s", scheme, node.URL, apiPrefix),
		auth: node.Auth,
		opts: opts,
	}
}

// Request is a single REST command.
type Request struct {
	Endpoint string
	Method   string
	Headers  map[string]string
	Params   map[string]string
	Body     any
}

func (c *Client) sessionPath() string {
	return "/sessions/" + c.opts.SessionID()
}

func (c *Client) playerPath(guildID string) string {
	return c.sessionPath() + "/players/" + guildID
}

// Fetch performs req and decodes a JSON answer into out when out is not nil.
// A non-2xx answer is returned as *Error.
func (c *Client) Fetch(ctx context.Context, req Request, out any) error {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(c.url + req.Endpoint)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for k, v := range req.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead && req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.auth)
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(httpReq)
	if err != nil {
		metrics.RestRequestDuration.WithLabelValues(c.node, method, "error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s %s: %w", method, req.Endpoint, domain.ErrRequestTimeout)
		}
		return fmt.Errorf("%s %s: %w", method, req.Endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RestRequestDuration.WithLabelValues(c.node, method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, req.Endpoint, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Debug().Err(err).Str("module", "rest").Str("node", c.node).Str("endpoint", req.Endpoint).Msg("undecodable response")
		return fmt.Errorf("decode %s: %w", req.Endpoint, err)
	}
	return nil
}
