package room

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/models"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeAttempts = 8

	DefaultCleanupGrace = 60 * time.Second
	maxRoomNameLength   = 60
)

var errNoFreeCode = errors.New("could not allocate a room code")

// Settings apply to every room the store creates.
type Settings struct {
	BidTimeLimit time.Duration
	RTMWindow    time.Duration
	AutoAdvance  time.Duration
	CleanupGrace time.Duration
	ChatHistory  int
	// Seed makes lot selection reproducible per room when non-zero.
	Seed uint64
}

// CreateRequest is what a host sends to open a room.
type CreateRequest struct {
	HostID   string
	HostName string
	Name     string
	Public   bool
}

// Store is the registry of live rooms.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Actor

	catalog  *catalog.Catalog
	clock    clockwork.Clock
	emitter  Emitter
	sink     EventSink
	settings Settings

	ctx    context.Context
	cancel context.CancelFunc

	newCode func() (string, error)
}

func NewStore(cat *catalog.Catalog, emitter Emitter, sink EventSink, clock clockwork.Clock, settings Settings) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if settings.BidTimeLimit <= 0 {
		settings.BidTimeLimit = auction.DefaultBidTimeLimit
	}
	if settings.CleanupGrace <= 0 {
		settings.CleanupGrace = DefaultCleanupGrace
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		rooms:    make(map[string]*Actor),
		catalog:  cat,
		clock:    clock,
		emitter:  emitter,
		sink:     sink,
		settings: settings,
		ctx:      ctx,
		cancel:   cancel,
		newCode: func() (string, error) {
			return gonanoid.Generate(codeAlphabet, codeLength)
		},
	}
}

// Create seeds a new lobby and starts its actor. A missing host id is generated.
func (s *Store) Create(req CreateRequest) (*Actor, models.Seat, error) {
	hostName := strings.TrimSpace(req.HostName)
	if hostName == "" {
		hostName = "Host"
	}
	hostID := req.HostID
	if hostID == "" {
		hostID = uuid.NewString()
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("%s's Room", hostName)
	}
	if r := []rune(name); len(r) > maxRoomNameLength {
		name = string(r[:maxRoomNameLength])
	}
	visibility := models.VisibilityPrivate
	if req.Public {
		visibility = models.VisibilityPublic
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return nil, models.Seat{}, errors.New("room store is closed")
	}

	code, err := s.allocateCode()
	if err != nil {
		return nil, models.Seat{}, err
	}

	room := s.catalog.SeedRoom(catalog.RoomParams{
		RoomID:              code,
		Name:                name,
		HostID:              hostID,
		HostName:            hostName,
		Visibility:          visibility,
		BidTimeLimitSeconds: int(s.settings.BidTimeLimit / time.Second),
		CreatedAt:           s.clock.Now(),
	})

	machine := auction.NewMachine(room, s.catalog, auction.Config{
		Clock:       s.clock,
		Rand:        s.rngFor(code),
		RTMWindow:   s.settings.RTMWindow,
		AutoAdvance: s.settings.AutoAdvance,
		ChatHistory: s.settings.ChatHistory,
	})

	actor := newActor(s.ctx, machine, req.Public, actorDeps{
		clock:   s.clock,
		emitter: s.emitter,
		sink:    s.sink,
		grace:   s.settings.CleanupGrace,
		onClose: s.remove,
	})
	s.rooms[code] = actor

	log.Info().
		Str("room_id", code).
		Str("host_id", hostID).
		Str("visibility", string(visibility)).
		Msg("room created")

	return actor, room.Players[hostID], nil
}

func (s *Store) allocateCode() (string, error) {
	for range codeAttempts {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		if _, taken := s.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", errNoFreeCode
}

func (s *Store) rngFor(roomID string) *rand.Rand {
	if s.settings.Seed == 0 {
		return nil
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(roomID))
	return rand.New(rand.NewPCG(s.settings.Seed, h.Sum64()))
}

// Get returns the actor for a room code. Codes are matched case-insensitively.
func (s *Store) Get(roomID string) (*Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.rooms[strings.ToUpper(roomID)]
	if !ok {
		return nil, auction.ErrRoomNotFound.Withf("room %q not found", roomID)
	}
	return a, nil
}

// List returns the public rooms that have not finished, newest first.
func (s *Store) List() []models.RoomSummary {
	s.mu.RLock()
	out := make([]models.RoomSummary, 0, len(s.rooms))
	for _, a := range s.rooms {
		if !a.public {
			continue
		}
		sum := a.Summary()
		if sum.Status == models.RoomStatusFinished {
			continue
		}
		out = append(out, sum)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.RoomSummary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len is the number of open rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *Store) remove(id string, a *Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.rooms[id]; ok && cur == a {
		delete(s.rooms, id)
		log.Info().Str("room_id", id).Int("open_rooms", len(s.rooms)).Msg("room removed")
	}
}

// Close stops every actor and waits for them to exit or ctx to expire.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	actors := make([]*Actor, 0, len(s.rooms))
	for _, a := range s.rooms {
		actors = append(actors, a)
	}
	s.rooms = make(map[string]*Actor)
	s.mu.Unlock()

	s.cancel()
	for _, a := range actors {
		select {
		case <-a.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
