package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dkeye/lvgo/internal/domain"
)

func (c *Client) Players(ctx context.Context) ([]domain.RemotePlayer, error) {
	var out []domain.RemotePlayer
	if err := c.Fetch(ctx, Request{Endpoint: c.sessionPath() + "/players"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Player returns nil without error when the node does not know the guild.
func (c *Client) Player(ctx context.Context, guildID string) (*domain.RemotePlayer, error) {
	var out domain.RemotePlayer
	err := c.Fetch(ctx, Request{Endpoint: c.playerPath(guildID)}, &out)
	var restErr *Error
	if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlayer patches the remote player and returns the state the node settled on.
func (c *Client) UpdatePlayer(ctx context.Context, guildID string, opts domain.UpdatePlayerOptions, noReplace bool) (domain.RemotePlayer, error) {
	var out domain.RemotePlayer
	err := c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID),
		Method:   http.MethodPatch,
		Params:   map[string]string{"noReplace": strconv.FormatBool(noReplace)},
		Body:     opts,
	}, &out)
	return out, err
}

func (c *Client) DestroyPlayer(ctx context.Context, guildID string) error {
	return c.Fetch(ctx, Request{Endpoint: c.playerPath(guildID), Method: http.MethodDelete}, nil)
}

type sessionUpdate struct {
	Resuming bool `json:"resuming"`
	Timeout  int  `json:"timeout"`
}

// UpdateSession configures server-side resume. timeout is in seconds.
func (c *Client) UpdateSession(ctx context.Context, resuming bool, timeout int) (domain.SessionInfo, error) {
	var out domain.SessionInfo
	err := c.Fetch(ctx, Request{
		Endpoint: c.sessionPath(),
		Method:   http.MethodPatch,
		Body:     sessionUpdate{Resuming: resuming, Timeout: timeout},
	}, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	err := c.Fetch(ctx, Request{Endpoint: "/stats"}, &out)
	return out, err
}

func (c *Client) Info(ctx context.Context) (domain.NodeInfo, error) {
	var out domain.NodeInfo
	err := c.Fetch(ctx, Request{Endpoint: "/info"}, &out)
	return out, err
}

func (c *Client) RoutePlannerStatus(ctx context.Context) (domain.RoutePlanner, error) {
	var out domain.RoutePlanner
	err := c.Fetch(ctx, Request{Endpoint: "/routeplanner/status"}, &out)
	return out, err
}

func (c *Client) UnmarkFailedAddress(ctx context.Context, address string) error {
	return c.Fetch(ctx, Request{
		Endpoint: "/routeplanner/free/address",
		Method:   http.MethodPost,
		Body:     map[string]string{"address": address},
	}, nil)
}
