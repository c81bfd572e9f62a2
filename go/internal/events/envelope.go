package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/auctionroom/go/internal/auction"
)

// SubjectPrefix is the root subject of every auction event.
const SubjectPrefix = "auction.events"

// Envelope wraps one domain event for the stream.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      string          `json:"type"`
	Version   uint64          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Subject is where the envelope is published, e.g. auction.events.ABC123.LotSold.
func (e Envelope) Subject() string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, e.RoomID, e.Type)
}

// NewEnvelope encodes a machine event for roomID.
func NewEnvelope(roomID string, version uint64, evt auction.Event) (Envelope, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", evt.Type, err)
	}
	return Envelope{
		ID:        uuid.New(),
		RoomID:    roomID,
		Type:      string(evt.Type),
		Version:   version,
		Timestamp: evt.At,
		Data:      data,
	}, nil
}

// Published reports whether an event type leaves the process. Chat and presence
// churn stay local.
func Published(t auction.EventType) bool {
	switch t {
	case auction.EvtChatPosted, auction.EvtPlayerJoined, auction.EvtPlayerLeft:
		return false
	}
	return true
}
