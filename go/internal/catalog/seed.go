package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

// RoomParams describes a room about to be created.
type RoomParams struct {
	RoomID              string
	Name                string
	HostID              string
	HostName            string
	Visibility          models.Visibility
	BidTimeLimitSeconds int
	CreatedAt           time.Time
}

// SeedRoom builds the initial lobby state of a room: every franchise with its
// retained squad and reduced purse, and every catalog lot PENDING.
func (c *Catalog) SeedRoom(p RoomParams) *models.Room {
	r := &models.Room{
		ID:         p.RoomID,
		Name:       p.Name,
		HostID:     p.HostID,
		Visibility: p.Visibility,
		Status:     models.RoomStatusLobby,
		Players: map[string]models.Seat{
			p.HostID: {
				Name:        p.HostName,
				IsAdmin:     true,
				IsSpectator: true,
				Connected:   false,
			},
		},
		Teams:   make(map[string]models.TeamState, len(c.franchises)),
		LotPool: make(map[string]models.PoolEntry, len(c.lots)),
		Auction: models.AuctionState{
			Status:              models.AuctionStatusIdle,
			CurrentBid:          decimal.Zero,
			BidTimeLimitSeconds: p.BidTimeLimitSeconds,
		},
		Chat:      []models.ChatMessage{},
		CreatedAt: p.CreatedAt,
	}

	for _, f := range c.franchises {
		spent := decimal.Zero
		squad := make([]models.SquadMember, 0, len(f.Retained))
		for _, ret := range f.Retained {
			spent = spent.Add(ret.Price)
			squad = append(squad, models.SquadMember{
				Lot:         ret.Lot,
				BoughtPrice: ret.Price,
				IsRetained:  true,
			})
		}
		purse := c.maxPurse.Sub(spent)
		if purse.IsNegative() {
			purse = decimal.Zero
		}
		r.Teams[f.ID] = models.TeamState{
			ID:                f.ID,
			Name:              f.Name,
			ShortName:         f.ShortName,
			PurseRemaining:    purse,
			Squad:             squad,
			RTMCardsRemaining: f.RTMCards,
			RetainedCount:     len(squad),
			Color:             f.Color,
			LogoURL:           f.LogoURL,
		}
	}

	for id := range c.lots {
		r.LotPool[id] = models.PoolEntry{Status: models.LotStatusPending}
	}

	return r
}
