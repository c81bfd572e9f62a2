package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service bundles the websocket and REST surfaces of the auction server.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// NewService wires handlers around an existing connection manager. The manager is
// created first so its Emitter can be handed to the room store.
func NewService(cm *ConnectionManager, rooms Rooms) *Service {
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, rooms),
		stateHandler:      NewStateHandler(rooms),
	}
}

// Start runs the connection manager until ctx is done.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting auction gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("auction gateway stopped")
}

// RegisterRoutes registers the WebSocket and REST routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
