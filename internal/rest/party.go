package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkeye/lvgo/internal/domain"
)

// Party returns nil without error when the guild is not in a party.
func (c *Client) Party(ctx context.Context, guildID string) (*domain.PartyInfo, error) {
	var out domain.PartyInfo
	err := c.Fetch(ctx, Request{Endpoint: c.playerPath(guildID) + "/party"}, &out)
	var restErr *Error
	if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) CreateParty(ctx context.Context, guildID string, syncEnabled bool) (domain.PartyInfo, error) {
	var out domain.PartyInfo
	err := c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/party",
		Method:   http.MethodPost,
		Body:     map[string]bool{"syncEnabled": syncEnabled},
	}, &out)
	return out, err
}

func (c *Client) JoinParty(ctx context.Context, guildID, partyID string) (domain.PartyInfo, error) {
	var out domain.PartyInfo
	err := c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/party/join",
		Method:   http.MethodPost,
		Body:     map[string]string{"partyId": partyID},
	}, &out)
	return out, err
}

// LeaveParty leaves the guild's party. A host leaving disbands it.
func (c *Client) LeaveParty(ctx context.Context, guildID string) error {
	return c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/party",
		Method:   http.MethodDelete,
	}, nil)
}

func (c *Client) SetPartySync(ctx context.Context, guildID string, enabled bool) (domain.PartyInfo, error) {
	var out domain.PartyInfo
	err := c.Fetch(ctx, Request{
		Endpoint: c.playerPath(guildID) + "/party",
		Method:   http.MethodPatch,
		Body:     map[string]bool{"syncEnabled": enabled},
	}, &out)
	return out, err
}
