package auction

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

var testStart = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

type lotTable map[string]models.Lot

func (t lotTable) Lot(id string) (models.Lot, bool) {
	l, ok := t[id]
	return l, ok
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "want %s, got %s", want, got)
}

var testLots = lotTable{
	"buttler": {ID: "buttler", Name: "Jos Buttler", Role: models.RoleWicketKeeper, IsOverseas: true, BasePrice: d("2.00"), SetNumber: 1, FormerTeamID: "rr"},
	"iyer":    {ID: "iyer", Name: "Shreyas Iyer", Role: models.RoleBatter, BasePrice: d("2.00"), SetNumber: 1},
	"chahal":  {ID: "chahal", Name: "Yuzvendra Chahal", Role: models.RoleBowler, BasePrice: d("1.00"), SetNumber: 2, FormerTeamID: "rr"},
	"rookie":  {ID: "rookie", Name: "Uncapped Rookie", Role: models.RoleAllRounder, BasePrice: d("0.30"), SetNumber: 3},
}

func newTestRoom() *models.Room {
	r := &models.Room{
		ID:         "ROOM01",
		Name:       "Test room",
		HostID:     "host",
		Visibility: models.VisibilityPrivate,
		Status:     models.RoomStatusLobby,
		Players: map[string]models.Seat{
			"host": {Name: "Host", IsAdmin: true, IsSpectator: true},
		},
		Teams: map[string]models.TeamState{
			"rr":  {ID: "rr", Name: "Rajasthan Royals", PurseRemaining: d("41"), RTMCardsRemaining: 1},
			"csk": {ID: "csk", Name: "Chennai Super Kings", PurseRemaining: d("55"), RTMCardsRemaining: 1},
			"mi":  {ID: "mi", Name: "Mumbai Indians", PurseRemaining: d("45")},
		},
		LotPool: map[string]models.PoolEntry{},
		Auction: models.AuctionState{
			Status:              models.AuctionStatusIdle,
			BidTimeLimitSeconds: 15,
		},
		Chat:      []models.ChatMessage{},
		CreatedAt: testStart,
	}
	for id := range testLots {
		r.LotPool[id] = models.PoolEntry{Status: models.LotStatusPending}
	}
	return r
}

type fixture struct {
	t     *testing.T
	clock *clockwork.FakeClock
	m     *Machine
}

func newFixture(t *testing.T, cfg Config, tweaks ...func(*models.Room)) *fixture {
	t.Helper()
	room := newTestRoom()
	for _, fn := range tweaks {
		fn(room)
	}
	clock := clockwork.NewFakeClockAt(testStart)
	cfg.Clock = clock
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(1, 2))
	}
	n := 0
	cfg.NewID = func() string {
		n++
		return fmt.Sprintf("msg-%d", n)
	}
	return &fixture{t: t, clock: clock, m: NewMachine(room, testLots, cfg)}
}

func (f *fixture) apply(cmd Command) Result {
	f.t.Helper()
	res, err := f.m.Apply(cmd)
	require.NoError(f.t, err)
	return res
}

// reject applies cmd, expects want and checks that nothing changed.
func (f *fixture) reject(cmd Command, want error) {
	f.t.Helper()
	before, version := f.m.Snapshot()
	dl, armed := f.m.Deadline()

	_, err := f.m.Apply(cmd)
	require.ErrorIs(f.t, err, want)

	after, _ := f.m.Snapshot()
	assert.Equal(f.t, before, after)
	assert.Equal(f.t, version, f.m.Version())
	dl2, armed2 := f.m.Deadline()
	assert.Equal(f.t, dl, dl2)
	assert.Equal(f.t, armed, armed2)
}

func (f *fixture) room() *models.Room {
	r, _ := f.m.Snapshot()
	return r
}

// live seats ua, ub and uc on rr, csk and mi and starts the auction.
func (f *fixture) live() {
	f.t.Helper()
	for _, s := range []struct{ user, team string }{{"ua", "rr"}, {"ub", "csk"}, {"uc", "mi"}} {
		f.apply(Command{Type: CmdJoin, UserID: s.user, Name: s.user})
		f.apply(Command{Type: CmdSelectTeam, UserID: s.user, TeamID: s.team})
	}
	f.apply(hostCmd(HostStartAuction))
}

// expire moves the clock to the armed deadline and delivers its expiry.
func (f *fixture) expire() (Deadline, Result) {
	f.t.Helper()
	dl, ok := f.m.Deadline()
	require.True(f.t, ok, "no deadline armed")
	f.clock.Advance(dl.At.Sub(f.clock.Now()))
	return dl, f.apply(Command{Type: CmdExpire, Token: dl.Token})
}

func hostCmd(action HostAction) Command {
	return Command{Type: CmdHost, UserID: "host", Action: action}
}

func startLot(lotID string) Command {
	c := hostCmd(HostStartLot)
	c.LotID = lotID
	return c
}

func bid(user, amount string) Command {
	return Command{Type: CmdPlaceBid, UserID: user, Amount: d(amount)}
}

func decide(user string, decision Decision) Command {
	return Command{Type: CmdRTMDecision, UserID: user, Decision: decision}
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}
