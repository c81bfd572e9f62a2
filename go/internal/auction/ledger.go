package auction

import (
	"github.com/shopspring/decimal"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

// Sale is a finalized transfer of a lot to a team.
type Sale struct {
	LotID  string
	TeamID string
	Price  decimal.Decimal
	ViaRTM bool
}

// ApplySale debits the winning team, adds the lot to its squad and closes the pool
// entry. It mutates room in place and must run inside a transition on a cloned room.
func ApplySale(room *models.Room, lot models.Lot, sale Sale) error {
	team, ok := room.Teams[sale.TeamID]
	if !ok {
		return ErrInvariant.Withf("sale of %s to unknown team %s", lot.ID, sale.TeamID)
	}
	entry, ok := room.LotPool[lot.ID]
	if !ok {
		return ErrInvariant.Withf("sale of %s outside the lot pool", lot.ID)
	}
	if entry.Status.Terminal() {
		return ErrInvariant.Withf("lot %s already %s", lot.ID, entry.Status)
	}
	if !canAbsorb(team, lot, sale.Price) {
		return ErrInvariant.Withf("team %s cannot absorb %s at %s", team.ID, lot.ID, sale.Price)
	}
	if sale.ViaRTM {
		if team.RTMCardsRemaining <= 0 {
			return ErrInvariant.Withf("team %s has no rtm cards", team.ID)
		}
		team.RTMCardsRemaining--
	}

	team.PurseRemaining = team.PurseRemaining.Sub(sale.Price)
	team.Squad = append(team.Squad, models.SquadMember{
		Lot:         lot,
		BoughtPrice: sale.Price,
		IsRetained:  false,
	})
	room.Teams[team.ID] = team

	price := sale.Price
	room.LotPool[lot.ID] = models.PoolEntry{
		Status:        models.LotStatusSold,
		WinningTeamID: team.ID,
		FinalPrice:    &price,
	}
	return nil
}
