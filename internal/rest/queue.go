package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dkeye/lvgo/internal/domain"
)

func pageParams(page, limit int) map[string]string {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return map[string]string{"page": strconv.Itoa(page), "limit": strconv.Itoa(limit)}
}

func (c *Client) Queue(ctx context.Context, guildID string, page, limit int) (domain.Queue, error) {
	var out domain.Queue
	err := c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/queue",
		Params:   pageParams(page, limit),
	}, &out)
	return out, err
}

func (c *Client) AddQueue(ctx context.Context, guildID string, tracks []domain.Track) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/queue",
		Method:   http.MethodPost,
		Body:     map[string][]domain.Track{"tracks": tracks},
	}, nil)
}

func (c *Client) PrependQueue(ctx context.Context, guildID string, tracks []domain.Track) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/queue/prepend",
		Method:   http.MethodPost,
		Body:     map[string][]domain.Track{"tracks": tracks},
	}, nil)
}

func (c *Client) MoveQueue(ctx context.Context, guildID string, from, to int) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/queue/move",
		Method:   http.MethodPost,
		Body:     map[string]int{"from": from, "to": to},
	}, nil)
}

func (c *Client) SwapQueue(ctx context.Context, guildID string, indexA, indexB int) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/queue/swap",
		Method:   http.MethodPost,
		Body:     map[string]int{"indexA": indexA, "indexB": indexB},
	}, nil)
}

func (c *Client) SkipQueue(ctx context.Context, guildID string) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/queue/skip",
		Method:   http.MethodPost,
	}, nil)
}

// RemoveQueue removes the [start, end] range.
func (c *Client) RemoveQueue(ctx context.Context, guildID string, start, end int) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/queue",
		Method:   http.MethodDelete,
		Body:     map[string]int{"start": start, "end": end},
	}, nil)
}

func (c *Client) RemoveQueueItem(ctx context.Context, guildID string, index int) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/queue/" + strconv.Itoa(index),
		Method:   http.MethodDelete,
	}, nil)
}

func (c *Client) History(ctx context.Context, guildID string, page, limit int) (domain.History, error) {
	var out domain.History
	err := c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/history",
		Params:   pageParams(page, limit),
	}, &out)
	return out, err
}

type replayRequest struct {
	Index int               `json:"index"`
	Mode  domain.ReplayMode `json:"mode"`
}

func (c *Client) ReplayHistory(ctx context.Context, guildID string, index int, mode domain.ReplayMode) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/history/replay",
		Method:   http.MethodPost,
		Body:     replayRequest{Index: index, Mode: mode},
	}, nil)
}

func (c *Client) ClearHistory(ctx context.Context, guildID string) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/history",
		Method:   http.MethodDelete,
	}, nil)
}

func (c *Client) SetRepeatMode(ctx context.Context, guildID string, mode domain.RepeatMode) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/repeat",
		Method:   http.MethodPost,
		Body:     map[string]domain.RepeatMode{"mode": mode},
	}, nil)
}
