package auction

import "github.com/mcdev12/auctionroom/go/internal/models"

// CheckInvariants verifies next against the consistency rules every committed room
// state obeys. prev is the state next was derived from.
func CheckInvariants(prev, next *models.Room, lots Catalog) error {
	a := next.Auction

	live := ""
	for id, entry := range next.LotPool {
		if entry.Status == models.LotStatusLive {
			if live != "" {
				return ErrInvariant.Withf("lots %s and %s are both live", live, id)
			}
			live = id
		}
		sold := entry.Status == models.LotStatusSold
		if sold != (entry.WinningTeamID != "" && entry.FinalPrice != nil) {
			return ErrInvariant.Withf("lot %s is %s with winner %q", id, entry.Status, entry.WinningTeamID)
		}
		if before, ok := prev.LotPool[id]; ok && before.Status.Terminal() && before.Status != entry.Status {
			return ErrInvariant.Withf("lot %s left terminal status %s", id, before.Status)
		}
	}

	onBlock := a.Status == models.AuctionStatusBidding || a.Status == models.AuctionStatusRTMPending
	if onBlock && live != a.CurrentLotID {
		return ErrInvariant.Withf("auction %s on %q but live lot is %q", a.Status, a.CurrentLotID, live)
	}
	if !onBlock && live != "" {
		return ErrInvariant.Withf("lot %s live while auction %s", live, a.Status)
	}

	if (a.HighestBidderSeatID == "") != (a.HighestBidderTeamID == "") {
		return ErrInvariant.Withf("highest bidder partially set")
	}
	if (a.BiddingDeadline != nil) != (a.Status == models.AuctionStatusBidding) {
		return ErrInvariant.Withf("bidding deadline present=%t while %s", a.BiddingDeadline != nil, a.Status)
	}
	rtm := a.Status == models.AuctionStatusRTMPending
	if (a.RTMDeadline != nil) != rtm || (a.RTMTeamID != "") != rtm {
		return ErrInvariant.Withf("rtm fields inconsistent while %s", a.Status)
	}
	if a.CurrentBid.IsNegative() {
		return ErrInvariant.Withf("negative current bid")
	}

	p := prev.Auction
	if a.Status == models.AuctionStatusBidding && p.Status == models.AuctionStatusBidding &&
		a.CurrentLotID == p.CurrentLotID && a.CurrentBid.LessThan(p.CurrentBid) {
		return ErrInvariant.Withf("bid went down from %s to %s", p.CurrentBid, a.CurrentBid)
	}

	if rtm && p.Status != models.AuctionStatusRTMPending {
		lot, ok := lots.Lot(a.CurrentLotID)
		if !ok || lot.FormerTeamID != a.RTMTeamID {
			return ErrInvariant.Withf("rtm offered to %s which is not the former team", a.RTMTeamID)
		}
		if team := next.Teams[a.RTMTeamID]; team.RTMCardsRemaining <= 0 {
			return ErrInvariant.Withf("rtm offered to %s without cards", a.RTMTeamID)
		}
		if a.RTMTeamID == a.HighestBidderTeamID {
			return ErrInvariant.Withf("rtm offered to the highest bidder")
		}
	}

	for id, team := range next.Teams {
		if team.PurseRemaining.IsNegative() {
			return ErrInvariant.Withf("team %s purse negative", id)
		}
		if len(team.Squad) > MaxSquadSize {
			return ErrInvariant.Withf("team %s squad over %d", id, MaxSquadSize)
		}
		if team.OverseasCount() > MaxOverseas {
			return ErrInvariant.Withf("team %s overseas over %d", id, MaxOverseas)
		}
		if team.RTMCardsRemaining < 0 {
			return ErrInvariant.Withf("team %s rtm cards negative", id)
		}
		if team.OwnerID != "" {
			if seat, ok := next.Players[team.OwnerID]; !ok || seat.TeamID != id {
				return ErrInvariant.Withf("team %s owner %s does not hold it", id, team.OwnerID)
			}
		}
	}

	if next.Status == models.RoomStatusLive && prev.Status != models.RoomStatusLive {
		if err := readyToStart(next); err != nil {
			return ErrInvariant.Withf("room went live while not ready: %s", err)
		}
	}
	return nil
}
