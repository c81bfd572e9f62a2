package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionroom/go/internal/auction"
)

type recordingPublisher struct {
	mu    sync.Mutex
	got   []Envelope
	fails int
}

func (p *recordingPublisher) Publish(ctx context.Context, env Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails > 0 {
		p.fails--
		return errors.New("broker unavailable")
	}
	p.got = append(p.got, env)
	return nil
}

func (p *recordingPublisher) envelopes() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Envelope(nil), p.got...)
}

var at = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func TestDispatcherPublishesDomainEvents(t *testing.T) {
	pub := &recordingPublisher{fails: 1}
	d := NewDispatcher(pub, DispatcherConfig{QueueSize: 8, PublishTimeout: time.Second, MaxRetries: 2, RetryDelay: time.Millisecond})
	d.Start(context.Background())

	d.Dispatch("ABC123", 7, []auction.Event{
		{Type: auction.EvtChatPosted, UserID: "u1", At: at},
		{Type: auction.EvtLotSold, LotID: "p1", TeamID: "csk", Amount: decimal.RequireFromString("2.20"), At: at},
	})
	d.Close()

	got := pub.envelopes()
	require.Len(t, got, 1)
	env := got[0]
	assert.Equal(t, "ABC123", env.RoomID)
	assert.Equal(t, "LotSold", env.Type)
	assert.Equal(t, uint64(7), env.Version)
	assert.Equal(t, at, env.Timestamp)
	assert.Equal(t, "auction.events.ABC123.LotSold", env.Subject())

	var evt auction.Event
	require.NoError(t, json.Unmarshal(env.Data, &evt))
	assert.Equal(t, "csk", evt.TeamID)
	assert.True(t, evt.Amount.Equal(decimal.RequireFromString("2.20")))
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, DispatcherConfig{QueueSize: 1, PublishTimeout: time.Second})

	d.Dispatch("ABC123", 1, []auction.Event{
		{Type: auction.EvtLotStarted, LotID: "p1"},
		{Type: auction.EvtBidAccepted, LotID: "p1"},
		{Type: auction.EvtBidAccepted, LotID: "p1"},
	})
	assert.Equal(t, uint64(2), d.Dropped())

	d.Start(context.Background())
	d.Close()
	assert.Len(t, pub.envelopes(), 1)

	// closed dispatchers ignore new events
	d.Dispatch("ABC123", 2, []auction.Event{{Type: auction.EvtLotSold}})
	assert.Len(t, pub.envelopes(), 1)
}

func TestPublished(t *testing.T) {
	assert.False(t, Published(auction.EvtChatPosted))
	assert.False(t, Published(auction.EvtPlayerJoined))
	assert.True(t, Published(auction.EvtRTMOpened))
	assert.True(t, Published(auction.EvtRoomDisbanded))
}
