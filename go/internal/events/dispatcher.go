package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction"
)

// DispatcherConfig tunes the async publish worker.
type DispatcherConfig struct {
	QueueSize      int
	PublishTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:      1024,
		PublishTimeout: 5 * time.Second,
		MaxRetries:     2,
		RetryDelay:     200 * time.Millisecond,
	}
}

// Dispatcher hands events to a Publisher on a background goroutine so room actors
// never wait on the broker. When the queue is full new events are dropped.
type Dispatcher struct {
	publisher Publisher
	cfg       DispatcherConfig
	queue     chan Envelope

	mu      sync.Mutex
	closed  bool
	dropped uint64
	wg      sync.WaitGroup
}

func NewDispatcher(publisher Publisher, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	return &Dispatcher{
		publisher: publisher,
		cfg:       cfg,
		queue:     make(chan Envelope, cfg.QueueSize),
	}
}

// Start runs the publish loop until ctx is done or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.run(ctx)
}

// Dispatch queues the published subset of evts for roomID.
func (d *Dispatcher) Dispatch(roomID string, version uint64, evts []auction.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	for _, evt := range evts {
		if !Published(evt.Type) {
			continue
		}
		env, err := NewEnvelope(roomID, version, evt)
		if err != nil {
			log.Error().Err(err).Str("room_id", roomID).Msg("failed to encode event")
			continue
		}
		select {
		case d.queue <- env:
		default:
			d.dropped++
			log.Warn().
				Str("room_id", roomID).
				Str("event_type", env.Type).
				Uint64("dropped", d.dropped).
				Msg("event queue full, dropping event")
		}
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-d.queue:
			if !ok {
				return
			}
			d.publish(ctx, env)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, env Envelope) {
	var lastErr error
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		pctx, cancel := context.WithTimeout(ctx, d.cfg.PublishTimeout)
		err := d.publisher.Publish(pctx, env)
		cancel()
		if err == nil {
			return
		}
		lastErr = err
		log.Warn().
			Err(err).
			Str("event_id", env.ID.String()).
			Int("attempt", attempt+1).
			Msg("failed to publish event, retrying")
	}

	log.Error().
		Err(lastErr).
		Str("room_id", env.RoomID).
		Str("event_type", env.Type).
		Msg("giving up on event")
}
