package auction

import (
	"fmt"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

func (tx *txn) host(cmd Command) error {
	if cmd.UserID != tx.room.HostID {
		return ErrNotHost
	}
	if tx.room.Status == models.RoomStatusFinished {
		return ErrRoomFinished
	}

	switch cmd.Action {
	case HostStartAuction:
		return tx.startAuction()
	case HostSetTimeLimit:
		return tx.setTimeLimit(cmd.Seconds)
	case HostEndRoom:
		tx.finish("🏆 The auction has concluded! Check the final summary for results.")
		return nil
	case HostStartLot, HostMarkUnsold, HostFinalize, HostAdvance, HostSkipSet:
	default:
		return ErrUnknownCommand.Withf("unknown host command %q", cmd.Action)
	}

	if tx.room.Status != models.RoomStatusLive {
		return ErrRoomNotLive
	}

	switch cmd.Action {
	case HostStartLot:
		return tx.hostStartLot(cmd.LotID)
	case HostMarkUnsold:
		return tx.hostMarkUnsold()
	case HostFinalize:
		return tx.hostFinalize()
	case HostAdvance:
		return tx.hostAdvance()
	default:
		return tx.skipSet(cmd.SetNumber)
	}
}

// startAuction moves the room live once every manager holds a team and at least two
// distinct teams are claimed. The first lot is parked on the block.
func (tx *txn) startAuction() error {
	if tx.room.Status != models.RoomStatusLobby {
		return ErrRoomNotLobby
	}
	if err := readyToStart(tx.room); err != nil {
		return err
	}

	tx.room.Status = models.RoomStatusLive
	tx.systemChat("The auction is live!")
	tx.emit(Event{Type: EvtAuctionStarted})
	return tx.advance()
}

func readyToStart(room *models.Room) error {
	claimed := make(map[string]bool)
	for _, seat := range room.Players {
		if seat.IsSpectator {
			continue
		}
		if seat.TeamID == "" {
			return ErrTeamsNotReady
		}
		claimed[seat.TeamID] = true
	}
	if len(claimed) < 2 {
		return ErrNotEnoughManagers
	}
	return nil
}

func (tx *txn) hostStartLot(lotID string) error {
	switch s := tx.room.Auction.Status; s {
	case models.AuctionStatusBidding, models.AuctionStatusRTMPending:
		return ErrBadStatus.Withf("cannot start a lot while %s", s)
	case models.AuctionStatusSold, models.AuctionStatusUnsold:
		if lotID == "" {
			if err := tx.advance(); err != nil {
				return err
			}
		}
	default:
		if lotID == "" && tx.room.Auction.CurrentLotID == "" {
			if err := tx.advance(); err != nil {
				return err
			}
		}
	}
	if tx.room.Status != models.RoomStatusLive {
		return nil
	}

	if lotID == "" {
		lotID = tx.room.Auction.CurrentLotID
	}
	return tx.startLot(lotID)
}

func (tx *txn) hostMarkUnsold() error {
	a := tx.room.Auction
	if a.Status != models.AuctionStatusBidding {
		return ErrBadStatus.Withf("cannot mark unsold while %s", a.Status)
	}
	if a.HasBidder() {
		return ErrHasBidder
	}
	lot, err := tx.currentLot()
	if err != nil {
		return err
	}
	tx.markUnsold(lot)
	return nil
}

// hostFinalize closes bidding early, exactly as if the deadline had passed.
func (tx *txn) hostFinalize() error {
	a := tx.room.Auction
	if a.Status != models.AuctionStatusBidding {
		return ErrBadStatus.Withf("cannot finalize while %s", a.Status)
	}
	if !a.HasBidder() {
		return ErrNoBidder
	}
	tx.deadlines.Clear()
	return tx.closeBidding()
}

func (tx *txn) hostAdvance() error {
	s := tx.room.Auction.Status
	if s != models.AuctionStatusSold && s != models.AuctionStatusUnsold {
		return ErrBadStatus.Withf("cannot advance while %s", s)
	}
	return tx.advance()
}

// skipSet marks every PENDING lot of a set unsold and parks the next lot.
func (tx *txn) skipSet(set int) error {
	a := tx.room.Auction
	if a.Status == models.AuctionStatusBidding || a.Status == models.AuctionStatusRTMPending {
		return ErrBadStatus.Withf("cannot skip a set while %s", a.Status)
	}
	if set == 0 {
		set = a.CurrentSetNumber
	}
	if set == 0 {
		return ErrNoCurrentSet
	}

	skipped := 0
	for id, entry := range tx.room.LotPool {
		if entry.Status != models.LotStatusPending {
			continue
		}
		lot, ok := tx.m.lots.Lot(id)
		if !ok || lot.SetNumber != set {
			continue
		}
		tx.room.LotPool[id] = models.PoolEntry{Status: models.LotStatusUnsold}
		skipped++
	}

	tx.systemChat(fmt.Sprintf("Host skipped Set %d (%d lots).", set, skipped))
	tx.emit(Event{Type: EvtSetSkipped, SetNumber: set})
	return tx.advance()
}

func (tx *txn) setTimeLimit(seconds int) error {
	if seconds < MinTimeLimitSeconds || seconds > MaxTimeLimitSeconds {
		return ErrBadTimeLimit
	}
	a := &tx.room.Auction
	a.BidTimeLimitSeconds = seconds
	if a.Status == models.AuctionStatusBidding {
		tx.armBidding()
	}

	tx.systemChat(fmt.Sprintf("⏱️ Host changed bid timer to %ds.", seconds))
	tx.emit(Event{Type: EvtTimeLimitChanged, Seconds: seconds})
	return nil
}
