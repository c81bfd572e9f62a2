package auction

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

const (
	DefaultBidTimeLimit = 15 * time.Second
	DefaultRTMWindow    = 10 * time.Second
	DefaultChatHistory  = 50
	MinTimeLimitSeconds = 5
	MaxTimeLimitSeconds = 120
	maxChatLength       = 500
	systemSender        = "System"
)

type CommandType string

const (
	CmdPlaceBid    CommandType = "PlaceBid"
	CmdRTMDecision CommandType = "RTMDecision"
	CmdHost        CommandType = "Host"
	CmdJoin        CommandType = "Join"
	CmdSelectTeam  CommandType = "SelectTeam"
	CmdLeave       CommandType = "Leave"
	CmdDisconnect  CommandType = "Disconnect"
	CmdChat        CommandType = "Chat"
	CmdExpire      CommandType = "Expire"
)

// HostAction is a host-only command.
type HostAction string

const (
	HostStartAuction HostAction = "START_AUCTION"
	HostStartLot     HostAction = "START_LOT"
	HostMarkUnsold   HostAction = "MARK_UNSOLD"
	HostFinalize     HostAction = "FINALIZE"
	HostAdvance      HostAction = "ADVANCE"
	HostSkipSet      HostAction = "SKIP_SET"
	HostSetTimeLimit HostAction = "SET_TIME_LIMIT"
	HostEndRoom      HostAction = "END_ROOM"
)

// Command is one inbound event for a room. Only the fields relevant to Type are read.
type Command struct {
	Type   CommandType
	UserID string

	Amount   decimal.Decimal
	Decision Decision

	Action    HostAction
	LotID     string
	SetNumber int
	Seconds   int

	Name   string
	TeamID string
	Text   string

	Token uint64
}

type EventType string

const (
	EvtPlayerJoined     EventType = "PlayerJoined"
	EvtPlayerLeft       EventType = "PlayerLeft"
	EvtTeamSelected     EventType = "TeamSelected"
	EvtChatPosted       EventType = "ChatPosted"
	EvtAuctionStarted   EventType = "AuctionStarted"
	EvtLotQueued        EventType = "LotQueued"
	EvtLotStarted       EventType = "LotStarted"
	EvtBidAccepted      EventType = "BidAccepted"
	EvtRTMOpened        EventType = "RTMOpened"
	EvtRTMResolved      EventType = "RTMResolved"
	EvtLotSold          EventType = "LotSold"
	EvtLotUnsold        EventType = "LotUnsold"
	EvtSetSkipped       EventType = "SetSkipped"
	EvtTimeLimitChanged EventType = "TimeLimitChanged"
	EvtRoomFinished     EventType = "RoomFinished"
	EvtRoomDisbanded    EventType = "RoomDisbanded"
)

// Event records something a transition did.
type Event struct {
	Type      EventType       `json:"type"`
	LotID     string          `json:"lot_id,omitempty"`
	TeamID    string          `json:"team_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	SetNumber int             `json:"set_number,omitempty"`
	Seconds   int             `json:"seconds,omitempty"`
	Outcome   RTMOutcome      `json:"outcome,omitempty"`
	ViaRTM    bool            `json:"via_rtm,omitempty"`
	At        time.Time       `json:"at"`
}

// Result describes an applied command.
type Result struct {
	Events []Event
	// Disbanded means the room must be destroyed right away.
	Disbanded bool
	// Finished is set on the transition that moved the room to finished.
	Finished bool
}

// Config tunes a Machine. Zero fields take defaults.
type Config struct {
	Clock       clockwork.Clock
	Rand        *rand.Rand
	RTMWindow   time.Duration
	AutoAdvance time.Duration
	ChatHistory int
	NewID       func() string
}

// Machine is the authoritative auction state of one room. It is not safe for
// concurrent use; the room actor owns it.
type Machine struct {
	room      *models.Room
	lots      Catalog
	clock     clockwork.Clock
	rng       *rand.Rand
	cfg       Config
	deadlines Deadlines
	version   uint64
}

func NewMachine(room *models.Room, lots Catalog, cfg Config) *Machine {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if cfg.RTMWindow <= 0 {
		cfg.RTMWindow = DefaultRTMWindow
	}
	if cfg.ChatHistory <= 0 {
		cfg.ChatHistory = DefaultChatHistory
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if room.Auction.BidTimeLimitSeconds <= 0 {
		room.Auction.BidTimeLimitSeconds = int(DefaultBidTimeLimit / time.Second)
	}
	return &Machine{
		room:  room,
		lots:  lots,
		clock: cfg.Clock,
		rng:   cfg.Rand,
		cfg:   cfg,
	}
}

// Snapshot returns a deep copy of the room and the version it was taken at.
func (m *Machine) Snapshot() (*models.Room, uint64) {
	return m.room.Clone(), m.version
}

// Version increases by one on every applied command.
func (m *Machine) Version() uint64 {
	return m.version
}

// Deadline returns the currently armed deadline.
func (m *Machine) Deadline() (Deadline, bool) {
	return m.deadlines.Current()
}

func (m *Machine) RoomID() string {
	return m.room.ID
}

// Apply runs cmd against a copy of the room. The copy replaces the room only when
// the command is accepted and every invariant holds; otherwise the room is untouched.
func (m *Machine) Apply(cmd Command) (Result, error) {
	tx := &txn{
		m:         m,
		prev:      m.room,
		room:      m.room.Clone(),
		deadlines: m.deadlines,
		now:       m.clock.Now(),
	}

	if err := tx.apply(cmd); err != nil {
		return Result{}, err
	}

	if !tx.result.Disbanded {
		if err := CheckInvariants(tx.prev, tx.room, m.lots); err != nil {
			log.Error().
				Err(err).
				Str("room_id", m.room.ID).
				Str("command", string(cmd.Type)).
				Str("action", string(cmd.Action)).
				Msg("transition aborted")
			return Result{}, err
		}
	}

	m.room = tx.room
	m.deadlines = tx.deadlines
	m.version++
	return tx.result, nil
}

// txn is one in-flight transition over a cloned room.
type txn struct {
	m         *Machine
	prev      *models.Room
	room      *models.Room
	deadlines Deadlines
	now       time.Time
	result    Result
}

func (tx *txn) apply(cmd Command) error {
	switch cmd.Type {
	case CmdPlaceBid:
		return tx.placeBid(cmd)
	case CmdRTMDecision:
		return tx.decideRTM(cmd)
	case CmdExpire:
		return tx.expire(cmd.Token)
	case CmdHost:
		return tx.host(cmd)
	case CmdJoin:
		return tx.join(cmd)
	case CmdSelectTeam:
		return tx.selectTeam(cmd)
	case CmdLeave:
		return tx.leave(cmd)
	case CmdDisconnect:
		return tx.disconnect(cmd)
	case CmdChat:
		return tx.chat(cmd)
	}
	return ErrUnknownCommand.Withf("unknown command %q", cmd.Type)
}

func (tx *txn) emit(e Event) {
	e.At = tx.now
	tx.result.Events = append(tx.result.Events, e)
}

func (tx *txn) currentLot() (models.Lot, error) {
	lot, ok := tx.m.lots.Lot(tx.room.Auction.CurrentLotID)
	if !ok {
		return models.Lot{}, ErrLotNotFound.Withf("lot %q not in catalog", tx.room.Auction.CurrentLotID)
	}
	return lot, nil
}

func (tx *txn) placeBid(cmd Command) error {
	lot, err := tx.currentLot()
	if tx.room.Auction.Status == models.AuctionStatusBidding && err != nil {
		return err
	}
	amount, err := ValidateBid(tx.room, lot, Bid{SeatID: cmd.UserID, Amount: cmd.Amount}, tx.now)
	if err != nil {
		return err
	}

	seat := tx.room.Players[cmd.UserID]
	a := &tx.room.Auction
	a.CurrentBid = amount
	a.HighestBidderSeatID = cmd.UserID
	a.HighestBidderTeamID = seat.TeamID
	tx.armBidding()

	tx.emit(Event{Type: EvtBidAccepted, LotID: lot.ID, TeamID: seat.TeamID, UserID: cmd.UserID, Amount: amount})
	return nil
}

func (tx *txn) decideRTM(cmd Command) error {
	if err := AuthorizeRTM(tx.room, cmd.UserID); err != nil {
		return err
	}
	if cmd.Decision != DecisionYes && cmd.Decision != DecisionNo {
		return ErrBadDecision
	}
	a := tx.room.Auction
	if a.RTMDeadline == nil || !tx.now.Before(*a.RTMDeadline) {
		return ErrRTMWindowClosed
	}

	outcome := RTMDeclined
	if cmd.Decision == DecisionYes {
		outcome = RTMAccepted
	}
	return tx.closeRTM(outcome, cmd.UserID)
}

func (tx *txn) expire(token uint64) error {
	dl, ok := tx.deadlines.Consume(token, tx.now)
	if !ok {
		return ErrStaleTimer
	}

	switch dl.Kind {
	case DeadlineBidding:
		if tx.room.Auction.Status != models.AuctionStatusBidding {
			return ErrStaleTimer
		}
		return tx.closeBidding()
	case DeadlineRTM:
		if tx.room.Auction.Status != models.AuctionStatusRTMPending {
			return ErrStaleTimer
		}
		return tx.closeRTM(RTMTimedOut, "")
	case DeadlineAdvance:
		if s := tx.room.Auction.Status; s != models.AuctionStatusSold && s != models.AuctionStatusUnsold {
			return ErrStaleTimer
		}
		if err := tx.advance(); err != nil {
			return err
		}
		if tx.room.Status == models.RoomStatusLive {
			return tx.startLot(tx.room.Auction.CurrentLotID)
		}
		return nil
	}
	return ErrInvariant.Withf("unknown deadline kind %q", dl.Kind)
}

// closeBidding ends the bidding phase of the current lot: unsold without a bidder,
// otherwise an RTM window when a former team can match, otherwise a sale.
func (tx *txn) closeBidding() error {
	lot, err := tx.currentLot()
	if err != nil {
		return err
	}
	a := &tx.room.Auction
	a.BiddingDeadline = nil

	if !a.HasBidder() {
		tx.markUnsold(lot)
		return nil
	}

	if teamID, ok := RTMCandidate(tx.room, lot); ok {
		at := tx.now.Add(tx.m.cfg.RTMWindow)
		a.Status = models.AuctionStatusRTMPending
		a.RTMTeamID = teamID
		a.RTMDeadline = &at
		tx.deadlines.Arm(DeadlineRTM, at)
		tx.emit(Event{Type: EvtRTMOpened, LotID: lot.ID, TeamID: teamID, Amount: a.CurrentBid})
		return nil
	}

	return tx.sell(lot, Sale{LotID: lot.ID, TeamID: a.HighestBidderTeamID, Price: a.CurrentBid})
}

func (tx *txn) closeRTM(outcome RTMOutcome, userID string) error {
	lot, err := tx.currentLot()
	if err != nil {
		return err
	}
	a := &tx.room.Auction
	sale := resolveRTM(*a, outcome)
	rtmTeam := a.RTMTeamID
	a.RTMTeamID = ""
	a.RTMDeadline = nil

	tx.emit(Event{Type: EvtRTMResolved, LotID: lot.ID, TeamID: rtmTeam, UserID: userID, Outcome: outcome, Amount: a.CurrentBid})
	if err := tx.sell(lot, sale); err != nil {
		return err
	}
	if sale.ViaRTM {
		tx.systemChat(tx.room.Teams[sale.TeamID].Name + " used RTM for " + lot.Name + "!")
	}
	return nil
}

func (tx *txn) sell(lot models.Lot, sale Sale) error {
	if err := ApplySale(tx.room, lot, sale); err != nil {
		return err
	}
	a := &tx.room.Auction
	a.Status = models.AuctionStatusSold
	a.BiddingDeadline = nil
	a.RTMTeamID = ""
	a.RTMDeadline = nil
	tx.armAdvance()

	team := tx.room.Teams[sale.TeamID]
	tx.systemChat(lot.Name + " SOLD to " + team.Name + " for ₹" + sale.Price.StringFixed(2) + " Cr!")
	tx.emit(Event{Type: EvtLotSold, LotID: lot.ID, TeamID: sale.TeamID, Amount: sale.Price, ViaRTM: sale.ViaRTM})
	return nil
}

func (tx *txn) markUnsold(lot models.Lot) {
	tx.room.LotPool[lot.ID] = models.PoolEntry{Status: models.LotStatusUnsold}
	a := &tx.room.Auction
	a.Status = models.AuctionStatusUnsold
	a.BiddingDeadline = nil
	tx.armAdvance()

	tx.systemChat(lot.Name + " remains UNSOLD.")
	tx.emit(Event{Type: EvtLotUnsold, LotID: lot.ID})
}

// startLot opens bidding on a PENDING lot at its base price.
func (tx *txn) startLot(lotID string) error {
	lot, ok := tx.m.lots.Lot(lotID)
	if !ok {
		return ErrLotNotFound.Withf("lot %q not in catalog", lotID)
	}
	entry, ok := tx.room.LotPool[lotID]
	if !ok {
		return ErrLotNotFound.Withf("lot %q not in this room", lotID)
	}
	if entry.Status != models.LotStatusPending {
		return ErrLotNotPending.Withf("lot %s is %s", lotID, entry.Status)
	}

	tx.room.LotPool[lotID] = models.PoolEntry{Status: models.LotStatusLive}
	a := &tx.room.Auction
	a.Status = models.AuctionStatusBidding
	a.CurrentLotID = lotID
	a.CurrentBid = lot.BasePrice
	a.HighestBidderSeatID = ""
	a.HighestBidderTeamID = ""
	a.RTMTeamID = ""
	a.RTMDeadline = nil
	a.CurrentSetNumber = lot.SetNumber
	tx.armBidding()

	tx.emit(Event{Type: EvtLotStarted, LotID: lotID, Amount: lot.BasePrice, SetNumber: lot.SetNumber})
	return nil
}

// advance parks the next lot on the block, or finishes the room when none are left.
func (tx *txn) advance() error {
	tx.deadlines.Clear()
	a := &tx.room.Auction
	a.BiddingDeadline = nil
	a.RTMTeamID = ""
	a.RTMDeadline = nil
	a.HighestBidderSeatID = ""
	a.HighestBidderTeamID = ""

	next, ok := NextLot(tx.room.LotPool, tx.m.lots, tx.m.rng)
	if !ok {
		tx.finish("🏆 The auction has concluded! Check the final summary for results.")
		return nil
	}
	lot, _ := tx.m.lots.Lot(next)
	a.Status = models.AuctionStatusIdle
	a.CurrentLotID = next
	a.CurrentBid = lot.BasePrice
	a.CurrentSetNumber = lot.SetNumber
	tx.emit(Event{Type: EvtLotQueued, LotID: next, Amount: lot.BasePrice, SetNumber: lot.SetNumber})
	return nil
}

// finish ends the room. A lot still on the block goes back as unsold.
func (tx *txn) finish(notice string) {
	tx.deadlines.Clear()
	a := &tx.room.Auction
	if a.CurrentLotID != "" {
		if e, ok := tx.room.LotPool[a.CurrentLotID]; ok && e.Status == models.LotStatusLive {
			tx.room.LotPool[a.CurrentLotID] = models.PoolEntry{Status: models.LotStatusUnsold}
		}
	}
	tx.room.Status = models.RoomStatusFinished
	*a = models.AuctionState{
		Status:              models.AuctionStatusIdle,
		CurrentBid:          decimal.Zero,
		BidTimeLimitSeconds: a.BidTimeLimitSeconds,
		CurrentSetNumber:    a.CurrentSetNumber,
	}
	tx.systemChat(notice)
	tx.result.Finished = true
	tx.emit(Event{Type: EvtRoomFinished})
}

func (tx *txn) armBidding() {
	at := tx.now.Add(time.Duration(tx.room.Auction.BidTimeLimitSeconds) * time.Second)
	tx.room.Auction.BiddingDeadline = &at
	tx.deadlines.Arm(DeadlineBidding, at)
}

func (tx *txn) armAdvance() {
	if tx.m.cfg.AutoAdvance <= 0 {
		tx.deadlines.Clear()
		return
	}
	tx.deadlines.Arm(DeadlineAdvance, tx.now.Add(tx.m.cfg.AutoAdvance))
}

func (tx *txn) systemChat(text string) {
	tx.appendChat(models.ChatMessage{
		SenderName: systemSender,
		Text:       text,
		Type:       models.ChatTypeSystem,
	})
}

func (tx *txn) appendChat(msg models.ChatMessage) {
	msg.ID = tx.m.cfg.NewID()
	msg.Timestamp = tx.now
	tx.room.Chat = append(tx.room.Chat, msg)
	if n := len(tx.room.Chat) - tx.m.cfg.ChatHistory; n > 0 {
		tx.room.Chat = append([]models.ChatMessage(nil), tx.room.Chat[n:]...)
	}
}
