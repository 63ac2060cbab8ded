package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"parques-server/internal/database"
)

const sweepInterval = time.Minute

type Server struct {
	cfg               Config
	db                database.Service
	hub               *Hub
	connectionManager *ConnectionManager
	sessionManager    *SessionManager
	rateLimiter       *RateLimiter
	stop              chan struct{}
}

// NewServer wires the hub, the optional archive and the HTTP routes. A
// database that cannot be reached disables the archive instead of failing
// startup.
func NewServer(cfg Config, hubOpts ...HubOption) (*Server, *http.Server) {
	var db database.Service = database.Disabled{}
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		dbService, err := database.New(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("Results archive unavailable")
		} else {
			db = dbService
		}
	}

	s := newServer(cfg, db, hubOpts...)

	// Start background tasks
	go s.sweepTask()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, httpServer
}

func newServer(cfg Config, db database.Service, hubOpts ...HubOption) *Server {
	connections := NewConnectionManager()
	sessions := NewSessionManager()

	opts := append([]HubOption{
		WithBoardSize(cfg.BoardWidth, cfg.BoardHeight),
		WithBoardRotation(cfg.BoardRotation),
		WithIdleTimeout(cfg.SessionIdleTimeout),
	}, hubOpts...)

	return &Server{
		cfg:               cfg,
		db:                db,
		hub:               NewHub(sessions, connections, db, opts...),
		connectionManager: connections,
		sessionManager:    sessions,
		rateLimiter:       NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		stop:              make(chan struct{}),
	}
}

// sweepTask runs every minute and logs out sessions that stayed
// disconnected past the idle timeout.
func (s *Server) sweepTask() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			s.hub.SweepIdle(ctx)
			cancel()
		case <-s.stop:
			return
		}
	}
}

// Shutdown stops background work, tells connected players to reload and
// closes the archive.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)

	n := s.hub.Restart()
	log.Info().Int("connections", n).Msg("Players notified of shutdown")

	err := s.hub.Shutdown(ctx)
	s.db.Close()
	return err
}
