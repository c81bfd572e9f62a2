package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/models"
)

func TestStartLotOpensBidding(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()

	res := f.apply(startLot("iyer"))
	assert.True(t, hasEvent(res.Events, EvtLotStarted))

	r := f.room()
	a := r.Auction
	assert.Equal(t, models.AuctionStatusBidding, a.Status)
	assert.Equal(t, "iyer", a.CurrentLotID)
	assertDec(t, "2.00", a.CurrentBid)
	assert.False(t, a.HasBidder())
	assert.Equal(t, 1, a.CurrentSetNumber)
	require.NotNil(t, a.BiddingDeadline)
	assert.Equal(t, testStart.Add(15*time.Second), *a.BiddingDeadline)
	assert.Equal(t, models.LotStatusLive, r.LotPool["iyer"].Status)

	dl, ok := f.m.Deadline()
	require.True(t, ok)
	assert.Equal(t, DeadlineBidding, dl.Kind)
	assert.Equal(t, *a.BiddingDeadline, dl.At)
}

func TestStartLotGuards(t *testing.T) {
	f := newFixture(t, Config{})
	f.reject(startLot("iyer"), ErrRoomNotLive)

	f.live()
	f.reject(Command{Type: CmdHost, UserID: "ua", Action: HostStartLot, LotID: "iyer"}, ErrNotHost)
	f.reject(startLot("nobody"), ErrLotNotFound)

	f.apply(startLot("iyer"))
	f.reject(startLot("buttler"), ErrBadStatus)
}

func TestBidSequenceFollowsIncrement(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("rookie"))

	bidders := []string{"ua", "ub"}
	prev := d("0")
	for i := 0; i < 40; i++ {
		a := f.room().Auction
		amount := RequiredBid(a.CurrentBid, a.HasBidder())
		res := f.apply(Command{Type: CmdPlaceBid, UserID: bidders[i%2], Amount: amount})
		require.True(t, hasEvent(res.Events, EvtBidAccepted))

		got := f.room().Auction
		if i == 0 {
			assertDec(t, "0.30", got.CurrentBid)
		} else {
			assert.True(t, got.CurrentBid.Equal(prev.Add(Increment(prev))), "bid %d: %s after %s", i, got.CurrentBid, prev)
		}
		assert.False(t, got.CurrentBid.LessThan(prev))
		assert.Equal(t, bidders[i%2], got.HighestBidderSeatID)
		prev = got.CurrentBid

		// keep the clock moving inside the window
		f.clock.Advance(3 * time.Second)
	}
	// 14 steps of 0.05 to 1.00, 10 of 0.10 to 2.00, 15 of 0.20 to 5.00
	assertDec(t, "5.00", prev)
}

func TestBidResetsDeadline(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))
	first, _ := f.m.Deadline()

	f.clock.Advance(10 * time.Second)
	f.apply(bid("ua", "2.00"))

	second, ok := f.m.Deadline()
	require.True(t, ok)
	assert.Greater(t, second.Token, first.Token)
	assert.Equal(t, testStart.Add(25*time.Second), second.At)
	assert.Equal(t, second.At, *f.room().Auction.BiddingDeadline)
}

func TestDeadlineWithoutBidsGoesUnsold(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))

	_, res := f.expire()
	assert.True(t, hasEvent(res.Events, EvtLotUnsold))

	r := f.room()
	assert.Equal(t, models.AuctionStatusUnsold, r.Auction.Status)
	assert.Nil(t, r.Auction.BiddingDeadline)
	assert.Equal(t, models.LotStatusUnsold, r.LotPool["iyer"].Status)
	_, armed := f.m.Deadline()
	assert.False(t, armed)
	assert.Equal(t, "Shreyas Iyer remains UNSOLD.", r.Chat[len(r.Chat)-1].Text)
}

func TestExpiryBeforeDeadlineIsIgnored(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))

	dl, _ := f.m.Deadline()
	f.clock.Advance(14 * time.Second)
	f.reject(Command{Type: CmdExpire, Token: dl.Token}, ErrStaleTimer)
	assert.Equal(t, models.AuctionStatusBidding, f.room().Auction.Status)
}

// Base price 2.0, A opens, B raises to 2.2, the deadline passes and B buys.
func TestScenarioSaleAfterRaise(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))

	f.apply(bid("ua", "2.00"))
	assertDec(t, "2.00", f.room().Auction.CurrentBid)
	f.apply(bid("ub", "2.20"))
	assertDec(t, "2.20", f.room().Auction.CurrentBid)

	_, res := f.expire()
	assert.True(t, hasEvent(res.Events, EvtLotSold))
	assert.False(t, hasEvent(res.Events, EvtRTMOpened))

	r := f.room()
	assert.Equal(t, models.AuctionStatusSold, r.Auction.Status)
	csk := r.Teams["csk"]
	assertDec(t, "52.80", csk.PurseRemaining)
	require.Len(t, csk.Squad, 1)
	assert.Equal(t, "iyer", csk.Squad[0].ID)
	assert.False(t, csk.Squad[0].IsRetained)
	assertDec(t, "2.20", csk.Squad[0].BoughtPrice)
	assert.Equal(t, "csk", r.LotPool["iyer"].WinningTeamID)
	assertDec(t, "41", r.Teams["rr"].PurseRemaining)
}

func TestSaleSkipsRTMWhenFormerTeamIsHighest(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("buttler"))
	f.apply(bid("ub", "2.00"))
	f.apply(bid("ua", "2.20"))

	f.expire()
	r := f.room()
	assert.Equal(t, models.AuctionStatusSold, r.Auction.Status)
	assert.Equal(t, "rr", r.LotPool["buttler"].WinningTeamID)
	assert.Equal(t, 1, r.Teams["rr"].RTMCardsRemaining)
}

func rtmPending(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := newFixture(t, cfg)
	f.live()
	f.apply(startLot("buttler"))
	f.apply(bid("ub", "2.00"))
	f.apply(bid("uc", "2.20"))
	f.apply(bid("ub", "2.40"))

	_, res := f.expire()
	require.True(t, hasEvent(res.Events, EvtRTMOpened))

	a := f.room().Auction
	require.Equal(t, models.AuctionStatusRTMPending, a.Status)
	require.Equal(t, "rr", a.RTMTeamID)
	return f
}

func TestRTMOpensOnEligibleSale(t *testing.T) {
	f := rtmPending(t, Config{})
	r := f.room()
	a := r.Auction

	assert.Nil(t, a.BiddingDeadline)
	require.NotNil(t, a.RTMDeadline)
	assert.Equal(t, f.clock.Now().Add(DefaultRTMWindow), *a.RTMDeadline)
	assert.Equal(t, models.LotStatusLive, r.LotPool["buttler"].Status)

	dl, ok := f.m.Deadline()
	require.True(t, ok)
	assert.Equal(t, DeadlineRTM, dl.Kind)

	f.reject(bid("uc", "2.60"), ErrNotBidding)
}

// Former team declines: the lot goes to the highest bidder and the card is kept.
func TestScenarioRTMDecline(t *testing.T) {
	f := rtmPending(t, Config{})

	res := f.apply(decide("ua", DecisionNo))
	assert.True(t, hasEvent(res.Events, EvtLotSold))

	r := f.room()
	assert.Equal(t, models.AuctionStatusSold, r.Auction.Status)
	assert.Equal(t, "csk", r.LotPool["buttler"].WinningTeamID)
	assertDec(t, "2.40", *r.LotPool["buttler"].FinalPrice)
	assertDec(t, "52.60", r.Teams["csk"].PurseRemaining)
	assert.Equal(t, 1, r.Teams["rr"].RTMCardsRemaining)
	assert.Empty(t, r.Teams["rr"].Squad)
	assert.Empty(t, r.Auction.RTMTeamID)
	assert.Nil(t, r.Auction.RTMDeadline)
}

func TestRTMAcceptSellsAtCurrentBid(t *testing.T) {
	f := rtmPending(t, Config{})

	res := f.apply(decide("ua", DecisionYes))
	var sold Event
	for _, e := range res.Events {
		if e.Type == EvtLotSold {
			sold = e
		}
	}
	assert.True(t, sold.ViaRTM)

	r := f.room()
	rr := r.Teams["rr"]
	assert.Equal(t, "rr", r.LotPool["buttler"].WinningTeamID)
	assertDec(t, "2.40", *r.LotPool["buttler"].FinalPrice)
	assertDec(t, "38.60", rr.PurseRemaining)
	assert.Equal(t, 0, rr.RTMCardsRemaining)
	require.Len(t, rr.Squad, 1)
	assertDec(t, "2.40", rr.Squad[0].BoughtPrice)
	assertDec(t, "55", r.Teams["csk"].PurseRemaining)
	assert.Equal(t, "Rajasthan Royals used RTM for Jos Buttler!", r.Chat[len(r.Chat)-1].Text)
}

func TestRTMTimeoutSellsToHighestBidder(t *testing.T) {
	f := rtmPending(t, Config{})

	_, res := f.expire()
	var resolved Event
	for _, e := range res.Events {
		if e.Type == EvtRTMResolved {
			resolved = e
		}
	}
	assert.Equal(t, RTMTimedOut, resolved.Outcome)

	r := f.room()
	assert.Equal(t, "csk", r.LotPool["buttler"].WinningTeamID)
	assert.Equal(t, 1, r.Teams["rr"].RTMCardsRemaining)
}

func TestRTMDecisionAuthorization(t *testing.T) {
	f := rtmPending(t, Config{})

	f.reject(decide("uc", DecisionYes), ErrNotRTMOwner)
	f.reject(decide("ub", DecisionNo), ErrNotRTMOwner)
	f.reject(decide("ghost", DecisionNo), ErrSeatNotFound)
	f.reject(decide("ua", Decision("MAYBE")), ErrBadDecision)

	f.apply(decide("host", DecisionYes))
	assert.Equal(t, "rr", f.room().LotPool["buttler"].WinningTeamID)

	f.reject(decide("ua", DecisionNo), ErrNoRTMPending)
}

func TestRTMLateDecisionIsRejected(t *testing.T) {
	f := rtmPending(t, Config{})
	dl, _ := f.m.Deadline()

	f.clock.Advance(DefaultRTMWindow)
	f.reject(decide("ua", DecisionYes), ErrRTMWindowClosed)

	f.apply(Command{Type: CmdExpire, Token: dl.Token})
	r := f.room()
	assert.Equal(t, "csk", r.LotPool["buttler"].WinningTeamID)
	assert.Equal(t, 1, r.Teams["rr"].RTMCardsRemaining)
}

func TestDuplicateExpiryIsNoop(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))
	f.apply(bid("ua", "2.00"))

	dl, _ := f.expire()
	require.Equal(t, models.AuctionStatusSold, f.room().Auction.Status)

	f.clock.Advance(time.Minute)
	f.reject(Command{Type: CmdExpire, Token: dl.Token}, ErrStaleTimer)
	assert.Len(t, f.room().Teams["rr"].Squad, 1)
}

func TestStaleTokenAfterBidIsNoop(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))
	stale, _ := f.m.Deadline()

	f.clock.Advance(14 * time.Second)
	f.apply(bid("ua", "2.00"))
	f.clock.Advance(2 * time.Second)

	f.reject(Command{Type: CmdExpire, Token: stale.Token}, ErrStaleTimer)
	assert.Equal(t, models.AuctionStatusBidding, f.room().Auction.Status)
}

func TestHostFinalizeAndMarkUnsold(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))

	f.reject(hostCmd(HostFinalize), ErrNoBidder)
	f.apply(hostCmd(HostMarkUnsold))
	assert.Equal(t, models.LotStatusUnsold, f.room().LotPool["iyer"].Status)

	f.apply(startLot("rookie"))
	f.apply(bid("uc", "0.30"))
	f.reject(hostCmd(HostMarkUnsold), ErrHasBidder)
	f.apply(hostCmd(HostFinalize))

	r := f.room()
	assert.Equal(t, models.AuctionStatusSold, r.Auction.Status)
	assert.Equal(t, "mi", r.LotPool["rookie"].WinningTeamID)
	_, armed := f.m.Deadline()
	assert.False(t, armed)
}

func TestAdvancePicksLowestSetThenFinishes(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()

	first := f.room().Auction.CurrentLotID
	assert.Contains(t, []string{"buttler", "iyer"}, first)
	assert.Equal(t, models.AuctionStatusIdle, f.room().Auction.Status)

	order := []string{}
	for i := 0; i < len(testLots); i++ {
		f.apply(hostCmd(HostStartLot))
		a := f.room().Auction
		order = append(order, a.CurrentLotID)
		f.expire()
		if i < len(testLots)-1 {
			f.apply(hostCmd(HostAdvance))
		}
	}

	assert.ElementsMatch(t, []string{"buttler", "iyer"}, order[:2])
	assert.Equal(t, []string{"chahal", "rookie"}, order[2:])

	res := f.apply(hostCmd(HostAdvance))
	assert.True(t, res.Finished)
	r := f.room()
	assert.Equal(t, models.RoomStatusFinished, r.Status)
	assert.Empty(t, r.Auction.CurrentLotID)

	f.reject(hostCmd(HostAdvance), ErrRoomFinished)
}

func TestAdvanceIsDeterministicForSeed(t *testing.T) {
	picks := func() string {
		f := newFixture(t, Config{})
		f.live()
		return f.room().Auction.CurrentLotID
	}
	assert.Equal(t, picks(), picks())
}

func TestAutoAdvanceStartsNextLot(t *testing.T) {
	f := newFixture(t, Config{AutoAdvance: 5 * time.Second})
	f.live()
	f.apply(startLot("iyer"))
	f.expire()

	dl, ok := f.m.Deadline()
	require.True(t, ok)
	assert.Equal(t, DeadlineAdvance, dl.Kind)

	f.expire()
	a := f.room().Auction
	assert.Equal(t, models.AuctionStatusBidding, a.Status)
	assert.Equal(t, "buttler", a.CurrentLotID)
}

func TestSkipSet(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))

	skip := hostCmd(HostSkipSet)
	f.reject(skip, ErrBadStatus)

	f.expire()
	res := f.apply(skip)
	assert.True(t, hasEvent(res.Events, EvtSetSkipped))

	r := f.room()
	assert.Equal(t, models.LotStatusUnsold, r.LotPool["buttler"].Status)
	assert.Equal(t, models.LotStatusUnsold, r.LotPool["iyer"].Status)
	assert.Equal(t, models.LotStatusPending, r.LotPool["chahal"].Status)
	assert.Equal(t, "chahal", r.Auction.CurrentLotID)
	assert.Equal(t, models.AuctionStatusIdle, r.Auction.Status)
}

func TestSetTimeLimit(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))
	f.clock.Advance(10 * time.Second)

	for _, secs := range []int{0, 4, 121} {
		c := hostCmd(HostSetTimeLimit)
		c.Seconds = secs
		f.reject(c, ErrBadTimeLimit)
	}

	c := hostCmd(HostSetTimeLimit)
	c.Seconds = 30
	f.apply(c)

	r := f.room()
	assert.Equal(t, 30, r.Auction.BidTimeLimitSeconds)
	assert.Equal(t, testStart.Add(40*time.Second), *r.Auction.BiddingDeadline)
	dl, _ := f.m.Deadline()
	assert.Equal(t, testStart.Add(40*time.Second), dl.At)
}

func TestEndRoomReturnsLiveLotUnsold(t *testing.T) {
	f := newFixture(t, Config{})
	f.live()
	f.apply(startLot("iyer"))
	f.apply(bid("ua", "2.00"))

	res := f.apply(hostCmd(HostEndRoom))
	assert.True(t, res.Finished)

	r := f.room()
	assert.Equal(t, models.RoomStatusFinished, r.Status)
	assert.Equal(t, models.AuctionStatusIdle, r.Auction.Status)
	assert.False(t, r.Auction.HasBidder())
	assert.Equal(t, models.LotStatusUnsold, r.LotPool["iyer"].Status)
	_, armed := f.m.Deadline()
	assert.False(t, armed)

	f.reject(bid("ub", "2.20"), ErrNotBidding)
}

func TestUnknownHostCommand(t *testing.T) {
	f := newFixture(t, Config{})
	f.reject(hostCmd("SHUFFLE"), ErrUnknownCommand)
}

// Ten franchises but only one manager: the auction cannot start.
func TestScenarioStartNeedsTwoManagers(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	room := cat.SeedRoom(catalog.RoomParams{
		RoomID:              "MEGA01",
		HostID:              "host",
		HostName:            "Host",
		Visibility:          models.VisibilityPublic,
		BidTimeLimitSeconds: 15,
		CreatedAt:           testStart,
	})
	require.Len(t, room.Teams, 10)

	m := NewMachine(room, cat, Config{})
	_, err = m.Apply(Command{Type: CmdJoin, UserID: "u1", Name: "Asha"})
	require.NoError(t, err)
	_, err = m.Apply(Command{Type: CmdSelectTeam, UserID: "u1", TeamID: "mi"})
	require.NoError(t, err)

	version := m.Version()
	_, err = m.Apply(hostCmd(HostStartAuction))
	require.ErrorIs(t, err, ErrNotEnoughManagers)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, version, m.Version())

	snap, _ := m.Snapshot()
	assert.Equal(t, models.RoomStatusLobby, snap.Status)
}

func TestStartAuctionGuards(t *testing.T) {
	f := newFixture(t, Config{})
	f.apply(Command{Type: CmdJoin, UserID: "ua", Name: "ua"})
	f.apply(Command{Type: CmdSelectTeam, UserID: "ua", TeamID: "rr"})
	f.apply(Command{Type: CmdJoin, UserID: "ub", Name: "ub"})
	f.apply(Command{Type: CmdSelectTeam, UserID: "ub", TeamID: "csk"})

	f.reject(Command{Type: CmdHost, UserID: "ua", Action: HostStartAuction}, ErrNotHost)

	res := f.apply(hostCmd(HostStartAuction))
	assert.True(t, hasEvent(res.Events, EvtAuctionStarted))
	assert.True(t, hasEvent(res.Events, EvtLotQueued))
	assert.Equal(t, models.RoomStatusLive, f.room().Status)

	f.reject(hostCmd(HostStartAuction), ErrRoomNotLobby)
}
