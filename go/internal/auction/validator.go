package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

const (
	MaxSquadSize = 25
	MaxOverseas  = 8
)

// Bid is a candidate bid from one seat.
type Bid struct {
	SeatID string
	Amount decimal.Decimal
}

// ValidateBid checks a bid against the room without touching it. The rules run in a
// fixed order so the same state always produces the same rejection.
func ValidateBid(room *models.Room, lot models.Lot, bid Bid, now time.Time) (decimal.Decimal, error) {
	a := room.Auction
	if room.Status != models.RoomStatusLive || a.Status != models.AuctionStatusBidding {
		return decimal.Zero, ErrNotBidding
	}

	seat, ok := room.Players[bid.SeatID]
	if !ok {
		return decimal.Zero, ErrSeatNotFound
	}
	if !seat.Manager() {
		return decimal.Zero, ErrSpectator
	}
	team, ok := room.Teams[seat.TeamID]
	if !ok {
		return decimal.Zero, ErrTeamNotFound
	}

	if a.BiddingDeadline == nil || !now.Before(*a.BiddingDeadline) {
		return decimal.Zero, ErrDeadlinePassed
	}

	required := RequiredBid(a.CurrentBid, a.HasBidder())
	if !bid.Amount.Equal(required) {
		return decimal.Zero, ErrWrongAmount.Withf("bid must be exactly %s", required.StringFixed(2))
	}

	if team.PurseRemaining.LessThan(bid.Amount) {
		return decimal.Zero, ErrInsufficientPurse
	}
	if len(team.Squad) >= MaxSquadSize {
		return decimal.Zero, ErrSquadFull
	}
	if lot.IsOverseas && team.OverseasCount() >= MaxOverseas {
		return decimal.Zero, ErrOverseasFull
	}

	return required, nil
}

// canAbsorb reports whether team could take lot at price without breaking a cap.
func canAbsorb(team models.TeamState, lot models.Lot, price decimal.Decimal) bool {
	if team.PurseRemaining.LessThan(price) {
		return false
	}
	if len(team.Squad) >= MaxSquadSize {
		return false
	}
	if lot.IsOverseas && team.OverseasCount() >= MaxOverseas {
		return false
	}
	return true
}
