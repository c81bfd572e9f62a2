package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/room"
)

const defaultSubmitTimeout = 5 * time.Second

// Rooms is the registry the gateway routes commands through.
type Rooms interface {
	Get(roomID string) (*room.Actor, error)
	Create(req room.CreateRequest) (*room.Actor, models.Seat, error)
	List() []models.RoomSummary
}

// WebSocketHandler upgrades room connections and feeds client messages to room actors.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	rooms             Rooms
	submitTimeout     time.Duration
}

func NewWebSocketHandler(cm *ConnectionManager, rooms Rooms) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		rooms:             rooms,
		submitTimeout:     defaultSubmitTimeout,
	}
}

// HandleRoomConnection handles GET /ws/room?room_id=&user_id=&name=
func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roomID := strings.ToUpper(strings.TrimSpace(q.Get("room_id")))
	if roomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	actor, err := h.rooms.Get(roomID)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	userID := strings.TrimSpace(q.Get("user_id"))
	if userID == "" {
		userID = uuid.NewString()
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, userID, actor.ID(), h)
	if err != nil {
		log.Error().
			Err(err).
			Str("room_id", roomID).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
		return
	}
	conn.sendDirect(Outbound{Type: MsgConnected, Data: ConnectedData{RoomID: actor.ID(), UserID: userID}})

	// joining broadcasts a full snapshot, which is how a reconnecting client resyncs
	join := auction.Command{Type: auction.CmdJoin, UserID: userID, Name: q.Get("name")}
	if err := h.submit(actor, join); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Str("user_id", userID).Msg("join failed")
		h.connectionManager.unregisterConnection(conn)
	}
}

// HandleMessage decodes one client message and submits it to the room.
func (h *WebSocketHandler) HandleMessage(c *Connection, message []byte) {
	cmd, err := DecodeCommand(c.UserID, message)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("bad client message")
		c.sendDirect(rejectedMessage(room.RejectionOf(err)))
		return
	}

	actor, err := h.rooms.Get(c.RoomID)
	if err != nil {
		h.connectionManager.unregisterConnection(c)
		return
	}

	// rejections reach the client through the room's emitter
	if err := h.submit(actor, cmd); err != nil {
		return
	}
	if cmd.Type == auction.CmdLeave {
		h.connectionManager.unregisterConnection(c)
	}
}

// HandleClose marks the user disconnected once their last connection is gone.
func (h *WebSocketHandler) HandleClose(c *Connection) {
	if h.connectionManager.UserConnected(c.RoomID, c.UserID) {
		return
	}
	actor, err := h.rooms.Get(c.RoomID)
	if err != nil {
		return
	}
	_ = h.submit(actor, auction.Command{Type: auction.CmdDisconnect, UserID: c.UserID})
}

func (h *WebSocketHandler) submit(actor *room.Actor, cmd auction.Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.submitTimeout)
	defer cancel()

	err := actor.Submit(ctx, cmd)
	if errors.Is(err, context.DeadlineExceeded) {
		log.Error().
			Str("room_id", actor.ID()).
			Str("user_id", cmd.UserID).
			Str("command", string(cmd.Type)).
			Msg("room did not answer in time")
	}
	return err
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/room", h.HandleRoomConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
