package room

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
)

// Snapshot is the full room state at one version.
type Snapshot struct {
	Version    uint64       `json:"version"`
	ServerTime time.Time    `json:"server_time"`
	Room       *models.Room `json:"room"`
}

// Rejection tells one user why their command was not applied.
type Rejection struct {
	Code   string       `json:"code"`
	Reason string       `json:"reason"`
	Kind   auction.Kind `json:"kind"`
}

// RejectionOf describes err for the user who caused it.
func RejectionOf(err error) Rejection {
	rej := Rejection{Code: "rejected", Reason: err.Error(), Kind: auction.KindOf(err)}
	var e *auction.Error
	if errors.As(err, &e) {
		rej.Code = e.Code
		rej.Reason = e.Reason
	}
	return rej
}

// Emitter fans room output out to subscribers.
type Emitter interface {
	Broadcast(roomID string, snap Snapshot)
	Reject(roomID, userID string, rej Rejection)
	Disband(roomID, reason string)
}

// EventSink receives the domain events of every applied command.
type EventSink interface {
	Dispatch(roomID string, version uint64, evts []auction.Event)
}

type message interface{ isActorMessage() }

type submitMsg struct {
	cmd   auction.Command
	reply chan error
}

func (submitMsg) isActorMessage() {}

type expireMsg struct{ token uint64 }

func (expireMsg) isActorMessage() {}

type snapshotMsg struct{ reply chan Snapshot }

func (snapshotMsg) isActorMessage() {}

type closeMsg struct{ reason string }

func (closeMsg) isActorMessage() {}

const (
	inboxSize       = 64
	disbandedReason = "The host has closed this room."
	closedReason    = "The room has closed."
)

// Actor owns one room. Every command, timer expiry and read goes through its inbox
// and is handled on a single goroutine, one at a time.
type Actor struct {
	id      string
	public  bool
	machine *auction.Machine
	clock   clockwork.Clock
	emitter Emitter
	sink    EventSink
	grace   time.Duration
	onClose func(id string, a *Actor)

	inbox  chan message
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	timer      clockwork.Timer
	timerToken uint64
	cleanup    clockwork.Timer

	summary atomic.Pointer[models.RoomSummary]
}

type actorDeps struct {
	clock   clockwork.Clock
	emitter Emitter
	sink    EventSink
	grace   time.Duration
	onClose func(id string, a *Actor)
}

func newActor(parent context.Context, machine *auction.Machine, public bool, deps actorDeps) *Actor {
	ctx, cancel := context.WithCancel(parent)
	a := &Actor{
		id:      machine.RoomID(),
		public:  public,
		machine: machine,
		clock:   deps.clock,
		emitter: deps.emitter,
		sink:    deps.sink,
		grace:   deps.grace,
		onClose: deps.onClose,
		inbox:   make(chan message, inboxSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	snap, _ := machine.Snapshot()
	a.summary.Store(summarize(snap))

	go a.loop()
	return a
}

func (a *Actor) ID() string { return a.id }

// Done is closed once the actor has stopped.
func (a *Actor) Done() <-chan struct{} { return a.done }

// Summary is the latest listing entry, safe to read from any goroutine.
func (a *Actor) Summary() models.RoomSummary {
	return *a.summary.Load()
}

// Submit runs cmd on the room and waits for the outcome. Rejections are also sent to
// the originating user through the Emitter.
func (a *Actor) Submit(ctx context.Context, cmd auction.Command) error {
	reply := make(chan error, 1)
	select {
	case a.inbox <- submitMsg{cmd: cmd, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return auction.ErrRoomNotFound
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		// the command that stopped the actor still gets its answer
		select {
		case err := <-reply:
			return err
		default:
			return auction.ErrRoomNotFound
		}
	}
}

// Snapshot returns the current state.
func (a *Actor) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case a.inbox <- snapshotMsg{reply: reply}:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-a.done:
		return Snapshot{}, auction.ErrRoomNotFound
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-a.done:
		select {
		case snap := <-reply:
			return snap, nil
		default:
			return Snapshot{}, auction.ErrRoomNotFound
		}
	}
}

// Close tears the room down and tells subscribers why.
func (a *Actor) Close(reason string) {
	a.post(closeMsg{reason: reason})
}

func (a *Actor) post(m message) {
	select {
	case a.inbox <- m:
	case <-a.ctx.Done():
	}
}

func (a *Actor) loop() {
	defer close(a.done)
	defer a.stopTimers()

	for {
		select {
		case <-a.ctx.Done():
			return
		case m := <-a.inbox:
			switch m := m.(type) {
			case submitMsg:
				m.reply <- a.handle(m.cmd)
			case expireMsg:
				if m.token == a.timerToken {
					a.timer = nil
					a.timerToken = 0
				}
				_ = a.handle(auction.Command{Type: auction.CmdExpire, Token: m.token})
			case snapshotMsg:
				m.reply <- a.snapshot()
			case closeMsg:
				a.shutdown(m.reason)
			}
			if a.ctx.Err() != nil {
				return
			}
		}
	}
}

func (a *Actor) handle(cmd auction.Command) error {
	res, err := a.machine.Apply(cmd)
	if err != nil {
		a.reject(cmd, err)
		a.syncTimer()
		return err
	}

	a.sink.Dispatch(a.id, a.machine.Version(), res.Events)

	if res.Disbanded {
		log.Info().Str("room_id", a.id).Str("user_id", cmd.UserID).Msg("room disbanded")
		a.shutdown(disbandedReason)
		return nil
	}

	a.broadcast()
	a.syncTimer()

	if res.Finished {
		log.Info().Str("room_id", a.id).Dur("grace", a.grace).Msg("room finished")
		a.scheduleCleanup()
	}
	return nil
}

func (a *Actor) reject(cmd auction.Command, err error) {
	kind := auction.KindOf(err)
	switch kind {
	case auction.KindValidation, auction.KindAuthorization:
		log.Debug().
			Err(err).
			Str("room_id", a.id).
			Str("user_id", cmd.UserID).
			Str("command", string(cmd.Type)).
			Msg("command rejected")
		if cmd.UserID == "" {
			return
		}
		a.emitter.Reject(a.id, cmd.UserID, RejectionOf(err))
	case auction.KindNotFound:
		log.Debug().Err(err).Str("room_id", a.id).Str("command", string(cmd.Type)).Msg("ignored")
	}
}

func (a *Actor) snapshot() Snapshot {
	room, version := a.machine.Snapshot()
	return Snapshot{Version: version, ServerTime: a.clock.Now(), Room: room}
}

func (a *Actor) broadcast() {
	snap := a.snapshot()
	a.summary.Store(summarize(snap.Room))
	a.emitter.Broadcast(a.id, snap)
}

// syncTimer keeps exactly one wake-up armed for the machine's current deadline.
// The wake-up only carries the token; the machine decides whether it still applies.
func (a *Actor) syncTimer() {
	dl, ok := a.machine.Deadline()
	if !ok {
		a.stopTimer()
		return
	}
	if a.timer != nil && a.timerToken == dl.Token {
		return
	}
	a.stopTimer()

	token := dl.Token
	a.timerToken = token
	a.timer = a.clock.AfterFunc(max(dl.At.Sub(a.clock.Now()), 0), func() {
		a.post(expireMsg{token: token})
	})
	log.Debug().
		Str("room_id", a.id).
		Str("kind", string(dl.Kind)).
		Time("deadline", dl.At).
		Uint64("token", token).
		Msg("deadline armed")
}

func (a *Actor) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.timerToken = 0
}

func (a *Actor) scheduleCleanup() {
	if a.cleanup != nil {
		return
	}
	a.cleanup = a.clock.AfterFunc(a.grace, func() {
		a.post(closeMsg{reason: closedReason})
	})
}

func (a *Actor) stopTimers() {
	a.stopTimer()
	if a.cleanup != nil {
		a.cleanup.Stop()
		a.cleanup = nil
	}
}

func (a *Actor) shutdown(reason string) {
	a.stopTimers()
	if a.onClose != nil {
		a.onClose(a.id, a)
	}
	a.emitter.Disband(a.id, reason)
	a.cancel()
}

func summarize(r *models.Room) *models.RoomSummary {
	host := r.Players[r.HostID].Name
	return &models.RoomSummary{
		ID:           r.ID,
		Name:         r.Name,
		HostName:     host,
		Status:       r.Status,
		PlayersCount: len(r.Players),
		CreatedAt:    r.CreatedAt,
	}
}
