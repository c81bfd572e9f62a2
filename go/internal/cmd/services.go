package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/config"
	"github.com/mcdev12/auctionroom/go/internal/events"
	"github.com/mcdev12/auctionroom/go/internal/gateway"
	"github.com/mcdev12/auctionroom/go/internal/room"
)

type Services struct {
	Rooms      *room.Store
	Gateway    *gateway.Service
	Dispatcher *events.Dispatcher

	natsPublisher *events.NATSPublisher
}

func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	// Catalog → event dispatcher → connection manager → room store → gateway
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.LogPublisher{}
	var natsPublisher *events.NATSPublisher
	if cfg.EventsEnabled() {
		natsCfg := events.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		natsCfg.StreamName = cfg.NATSStream

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsPublisher, err = events.NewNATSPublisher(connectCtx, natsCfg)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("set up event publisher: %w", err)
		}
		publisher = natsPublisher
	}

	dispatcher := events.NewDispatcher(publisher, events.DefaultDispatcherConfig())
	dispatcher.Start(ctx)

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	rooms := room.NewStore(cat, gateway.NewEmitter(cm), dispatcher, nil, room.Settings{
		BidTimeLimit: cfg.BidTimeLimit,
		RTMWindow:    cfg.RTMWindow,
		AutoAdvance:  cfg.AutoAdvance,
		CleanupGrace: cfg.CleanupGrace,
		ChatHistory:  cfg.ChatHistory,
		Seed:         cfg.RandomSeed,
	})

	log.Info().
		Int("franchises", len(cat.Franchises())).
		Int("lots", len(cat.LotIDs())).
		Bool("events_enabled", cfg.EventsEnabled()).
		Msg("services ready")

	return &Services{
		Rooms:         rooms,
		Gateway:       gateway.NewService(cm, rooms),
		Dispatcher:    dispatcher,
		natsPublisher: natsPublisher,
	}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load embedded catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return cat, nil
}

// Close flushes queued events and drops the broker connection.
func (s *Services) Close() {
	s.Dispatcher.Close()
	if s.natsPublisher != nil {
		if err := s.natsPublisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to drain NATS connection")
		}
	}
}
