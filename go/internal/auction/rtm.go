package auction

import (
	"strings"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

// Decision is a former team's answer to a right-to-match offer.
type Decision string

const (
	DecisionYes Decision = "YES"
	DecisionNo  Decision = "NO"
)

// ParseDecision accepts YES or NO in any case.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToUpper(strings.TrimSpace(s))) {
	case DecisionYes:
		return DecisionYes, nil
	case DecisionNo:
		return DecisionNo, nil
	}
	return "", ErrBadDecision
}

// RTMOutcome is how a right-to-match window closed.
type RTMOutcome string

const (
	RTMAccepted RTMOutcome = "accepted"
	RTMDeclined RTMOutcome = "declined"
	RTMTimedOut RTMOutcome = "timed_out"
)

// RTMCandidate returns the former team entitled to match the current highest bid on lot.
// The team must have a card left, an owner in the room, must not already hold the
// highest bid, and must be able to take the lot at the current price.
func RTMCandidate(room *models.Room, lot models.Lot) (string, bool) {
	a := room.Auction
	if lot.FormerTeamID == "" || !a.HasBidder() {
		return "", false
	}
	team, ok := room.Teams[lot.FormerTeamID]
	if !ok {
		return "", false
	}
	if team.RTMCardsRemaining <= 0 || team.OwnerID == "" {
		return "", false
	}
	if team.ID == a.HighestBidderTeamID {
		return "", false
	}
	if !canAbsorb(team, lot, a.CurrentBid) {
		return "", false
	}
	return team.ID, true
}

// AuthorizeRTM checks that userID may answer the pending offer: the owner of the
// matching team, or the host.
func AuthorizeRTM(room *models.Room, userID string) error {
	if room.Auction.Status != models.AuctionStatusRTMPending || room.Auction.RTMTeamID == "" {
		return ErrNoRTMPending
	}
	if userID == room.HostID {
		return nil
	}
	seat, ok := room.Players[userID]
	if !ok {
		return ErrSeatNotFound
	}
	if seat.TeamID != room.Auction.RTMTeamID {
		return ErrNotRTMOwner
	}
	return nil
}

// resolveRTM turns an outcome into the sale it implies. Acceptance goes to the
// matching team, anything else to the highest bidder, always at the current bid.
func resolveRTM(a models.AuctionState, outcome RTMOutcome) Sale {
	if outcome == RTMAccepted {
		return Sale{LotID: a.CurrentLotID, TeamID: a.RTMTeamID, Price: a.CurrentBid, ViaRTM: true}
	}
	return Sale{LotID: a.CurrentLotID, TeamID: a.HighestBidderTeamID, Price: a.CurrentBid}
}
