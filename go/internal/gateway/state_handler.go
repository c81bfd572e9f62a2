package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/room"
)

const maxCreateBody = 4096

// CreateRoomRequest is the body of POST /api/rooms
type CreateRoomRequest struct {
	HostName   string `json:"host_name"`
	HostUserID string `json:"host_user_id,omitempty"`
	Name       string `json:"name,omitempty"`
	IsPublic   bool   `json:"is_public"`
}

// CreateRoomResponse returns the room code, the host's user id and the initial state.
type CreateRoomResponse struct {
	RoomID string        `json:"room_id"`
	UserID string        `json:"user_id"`
	Room   room.Snapshot `json:"room"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StateHandler serves room creation, listing and read-only state.
type StateHandler struct {
	rooms Rooms
}

func NewStateHandler(rooms Rooms) *StateHandler {
	return &StateHandler{rooms: rooms}
}

// HandleCreateRoom handles POST /api/rooms
func (h *StateHandler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	actor, _, err := h.rooms.Create(room.CreateRequest{
		HostID:   req.HostUserID,
		HostName: req.HostName,
		Name:     req.Name,
		Public:   req.IsPublic,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create room")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to create room"})
		return
	}

	snap, err := actor.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Str("room_id", actor.ID()).Msg("failed to read new room")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to create room"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateRoomResponse{
		RoomID: actor.ID(),
		UserID: snap.Room.HostID,
		Room:   snap,
	})
}

// HandleListRooms handles GET /api/rooms
func (h *StateHandler) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rooms.List())
}

// HandleGetRoom handles GET /api/rooms/{id} and GET /api/rooms/{id}/summary
func (h *StateHandler) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	actor, err := h.rooms.Get(roomID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Room not found"})
		return
	}

	snap, err := actor.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, auction.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Room not found"})
			return
		}
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to get room state")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to get room state"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// RegisterStateRoutes registers room REST routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rooms", h.HandleCreateRoom)
	mux.HandleFunc("GET /api/rooms", h.HandleListRooms)
	mux.HandleFunc("GET /api/rooms/{id}", h.HandleGetRoom)
	mux.HandleFunc("GET /api/rooms/{id}/summary", h.HandleGetRoom)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
