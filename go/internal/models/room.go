package models

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// RoomStatus defines the lifecycle status of a room.
type RoomStatus string

const (
	RoomStatusLobby    RoomStatus = "lobby"
	RoomStatusLive     RoomStatus = "live"
	RoomStatusFinished RoomStatus = "finished"
)

// Visibility controls whether a room shows up in the public listing.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// AuctionStatus defines the status of the lot currently on the block.
type AuctionStatus string

const (
	AuctionStatusIdle       AuctionStatus = "idle"
	AuctionStatusBidding    AuctionStatus = "bidding"
	AuctionStatusRTMPending AuctionStatus = "rtm_pending"
	AuctionStatusSold       AuctionStatus = "sold"
	AuctionStatusUnsold     AuctionStatus = "unsold"
)

// Seat is a participant's role within a room. A seat without a team is a spectator.
type Seat struct {
	Name        string `json:"name"`
	TeamID      string `json:"team_id,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	IsSpectator bool   `json:"is_spectator"`
	Connected   bool   `json:"connected"`
}

// Manager reports whether the seat can take part in bidding.
func (s Seat) Manager() bool {
	return !s.IsSpectator && s.TeamID != ""
}

// SquadMember is a lot that ended up on a team, either retained or bought.
type SquadMember struct {
	Lot
	BoughtPrice decimal.Decimal `json:"bought_price"`
	IsRetained  bool            `json:"is_retained"`
}

// TeamState is a franchise's mutable state inside one room.
type TeamState struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	ShortName         string          `json:"short_name"`
	PurseRemaining    decimal.Decimal `json:"purse_remaining"`
	Squad             []SquadMember   `json:"squad"`
	RTMCardsRemaining int             `json:"rtm_cards_remaining"`
	OwnerID           string          `json:"owner_id,omitempty"`
	RetainedCount     int             `json:"retained_count"`
	Color             string          `json:"color,omitempty"`
	LogoURL           string          `json:"logo_url,omitempty"`
}

// OverseasCount returns how many squad members are overseas.
func (t TeamState) OverseasCount() int {
	n := 0
	for _, m := range t.Squad {
		if m.IsOverseas {
			n++
		}
	}
	return n
}

// AuctionState is the state of the auction block.
type AuctionState struct {
	Status              AuctionStatus   `json:"status"`
	CurrentLotID        string          `json:"current_lot_id,omitempty"`
	CurrentBid          decimal.Decimal `json:"current_bid"`
	HighestBidderSeatID string          `json:"highest_bidder_seat_id,omitempty"`
	HighestBidderTeamID string          `json:"highest_bidder_team_id,omitempty"`
	BidTimeLimitSeconds int             `json:"bid_time_limit_seconds"`
	BiddingDeadline     *time.Time      `json:"bidding_deadline,omitempty"`
	RTMTeamID           string          `json:"rtm_team_id,omitempty"`
	RTMDeadline         *time.Time      `json:"rtm_deadline,omitempty"`
	CurrentSetNumber    int             `json:"current_set_number"`
}

// HasBidder reports whether a highest bidder is recorded.
func (a AuctionState) HasBidder() bool {
	return a.HighestBidderSeatID != "" && a.HighestBidderTeamID != ""
}

// ChatType distinguishes user messages from system notices.
type ChatType string

const (
	ChatTypeUser   ChatType = "user"
	ChatTypeSystem ChatType = "system"
)

// ChatMessage is one entry of the room chat log.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	Type       ChatType  `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}

// Room is the complete state of one auction room.
type Room struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	HostID     string               `json:"host_id"`
	Visibility Visibility           `json:"visibility"`
	Status     RoomStatus           `json:"status"`
	Players    map[string]Seat      `json:"players"`
	Teams      map[string]TeamState `json:"teams"`
	LotPool    map[string]PoolEntry `json:"lot_pool"`
	Auction    AuctionState         `json:"auction"`
	Chat       []ChatMessage        `json:"chat"`
	CreatedAt  time.Time            `json:"created_at"`
}

// Clone returns a deep copy of the room that shares no mutable state with r.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = maps.Clone(r.Players)
	c.LotPool = make(map[string]PoolEntry, len(r.LotPool))
	for id, e := range r.LotPool {
		if e.FinalPrice != nil {
			p := *e.FinalPrice
			e.FinalPrice = &p
		}
		c.LotPool[id] = e
	}
	c.Teams = make(map[string]TeamState, len(r.Teams))
	for id, t := range r.Teams {
		t.Squad = slices.Clone(t.Squad)
		c.Teams[id] = t
	}
	c.Chat = slices.Clone(r.Chat)
	c.Auction = r.Auction.clone()
	return &c
}

func (a AuctionState) clone() AuctionState {
	if a.BiddingDeadline != nil {
		d := *a.BiddingDeadline
		a.BiddingDeadline = &d
	}
	if a.RTMDeadline != nil {
		d := *a.RTMDeadline
		a.RTMDeadline = &d
	}
	return a
}

// TeamOwnedBy returns the team claimed by userID, if any.
func (r *Room) TeamOwnedBy(userID string) (TeamState, bool) {
	seat, ok := r.Players[userID]
	if !ok || seat.TeamID == "" {
		return TeamState{}, false
	}
	t, ok := r.Teams[seat.TeamID]
	return t, ok
}

// RoomSummary is the public listing entry of a room.
type RoomSummary struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	HostName     string     `json:"host_name"`
	Status       RoomStatus `json:"status"`
	PlayersCount int        `json:"players_count"`
	CreatedAt    time.Time  `json:"created_at"`
}
