package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dkeye/lvgo/internal/domain"
)

func (c *Client) Resolve(ctx context.Context, identifier string) (domain.LoadResult, error) {
	var out domain.LoadResult
	err := c.Fetch(ctx, Request{
		Endpoint: "/tracks/resolve",
		Params:   map[string]string{"identifier": identifier},
	}, &out)
	return out, err
}

func (c *Client) Decode(ctx context.Context, encoded string) (domain.Track, error) {
	var out domain.Track
	err := c.Fetch(ctx, Request{
		Endpoint: "/tracks/decode",
		Params:   map[string]string{"encoded": encoded},
	}, &out)
	return out, err
}

func (c *Client) InvalidateCache(ctx context.Context, identifier string, scope domain.CacheScope) error {
	return c.Fetch(ctx, Request{
		Endpoint: "/cache/" + url.PathEscape(identifier),
		Method:   http.MethodDelete,
		Params:   map[string]string{"scope": string(scope)},
	}, nil)
}
