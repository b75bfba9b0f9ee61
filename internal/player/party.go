package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/lvgo/internal/domain"
)

// Party is a Listen Together group seen from one member guild.
type Party struct {
	ID            string
	HostGuildID   string
	HostSessionID string

	owner   *Player
	guildID string

	mu          sync.RWMutex
	syncEnabled bool
	members     []domain.PartyMember
}

func newParty(owner *Player, info domain.PartyInfo) *Party {
	return &Party{
		ID:            info.ID,
		HostGuildID:   info.HostGuildID,
		HostSessionID: info.HostSessionID,
		owner:         owner,
		guildID:       owner.guildID,
		syncEnabled:   info.SyncEnabled,
		members:       info.Members,
	}
}

func (pt *Party) IsHost() bool { return pt.guildID == pt.HostGuildID }

// Size counts the host too.
func (pt *Party) Size() int {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return len(pt.members) + 1
}

func (pt *Party) SyncEnabled() bool {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.syncEnabled
}

func (pt *Party) Members() []domain.PartyMember {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return append([]domain.PartyMember(nil), pt.members...)
}

func (pt *Party) set(info domain.PartyInfo) {
	pt.mu.Lock()
	pt.syncEnabled = info.SyncEnabled
	pt.members = info.Members
	pt.mu.Unlock()
}

// Refresh reloads the party. It reports false once the guild is no longer in it.
// Requests go to the node the owning player is bound to now.
func (pt *Party) Refresh(ctx context.Context) (bool, error) {
	n, err := pt.owner.connectedNode()
	if err != nil {
		return false, err
	}
	info, err := n.Rest().Party(ctx, pt.guildID)
	if err != nil {
		return false, fmt.Errorf("refresh party %s: %w", pt.ID, err)
	}
	if info == nil {
		return false, nil
	}
	pt.set(*info)
	return true, nil
}

// Leave leaves the party. A host leaving disbands it.
func (pt *Party) Leave(ctx context.Context) error {
	n, err := pt.owner.connectedNode()
	if err != nil {
		return err
	}
	return n.Rest().LeaveParty(ctx, pt.guildID)
}

func (pt *Party) SetSync(ctx context.Context, enabled bool) error {
	n, err := pt.owner.connectedNode()
	if err != nil {
		return err
	}
	info, err := n.Rest().SetPartySync(ctx, pt.guildID, enabled)
	if err != nil {
		return fmt.Errorf("party sync %s: %w", pt.ID, err)
	}
	pt.set(info)
	return nil
}

// Party returns the party the player is in, nil when none.
func (p *Player) Party() *Party {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.party
}

// PartyID is nil when the player is not in a party.
func (p *Player) PartyID() *string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.party == nil {
		return nil
	}
	id := p.party.ID
	return &id
}

func (p *Player) CreateParty(ctx context.Context, syncEnabled bool) (*Party, error) {
	n, err := p.connectedNode()
	if err != nil {
		return nil, err
	}
	info, err := n.Rest().CreateParty(ctx, p.guildID, syncEnabled)
	if err != nil {
		return nil, fmt.Errorf("create party: %w", err)
	}
	return p.setParty(newParty(p, info)), nil
}

func (p *Player) JoinParty(ctx context.Context, partyID string) (*Party, error) {
	n, err := p.connectedNode()
	if err != nil {
		return nil, err
	}
	info, err := n.Rest().JoinParty(ctx, p.guildID, partyID)
	if err != nil {
		return nil, fmt.Errorf("join party %s: %w", partyID, err)
	}
	return p.setParty(newParty(p, info)), nil
}

func (p *Player) LeaveParty(ctx context.Context) error {
	pt := p.Party()
	if pt == nil {
		return nil
	}
	if err := pt.Leave(ctx); err != nil {
		return fmt.Errorf("leave party %s: %w", pt.ID, err)
	}
	p.setParty(nil)
	return nil
}

func (p *Player) setParty(pt *Party) *Party {
	p.mu.Lock()
	p.party = pt
	p.mu.Unlock()
	return pt
}
