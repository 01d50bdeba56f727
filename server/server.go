package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"pongo_server/config"
	"pongo_server/controllers"
	"pongo_server/routes"
	"pongo_server/services"
	"pongo_server/socket"
	"pongo_server/utils"
)

// Server wires the room registry, socket.io namespaces and HTTP routes into
// one listener.
type Server struct {
	Rooms   *services.RoomRegistry
	Metrics *services.Metrics

	cfg     config.Config
	io      *socketio.Server
	handler http.Handler

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
	errc     chan error
}

// New builds a server from cfg. Nothing listens until Start.
func New(cfg config.Config) *Server {
	metrics := services.NewMetrics()
	rooms := services.NewRoomRegistry(services.RoomOptions{
		Assist: services.AssistPolicy{
			Enabled:      cfg.AssistEnabled,
			Probability:  cfg.AssistProb,
			MaxOvershoot: cfg.AssistMaxOvershoot,
		},
		ClientAuth:       cfg.ClientAuthBall,
		ClientAuthWindow: cfg.ClientAuthWindow,
		Rand:             rand.New(rand.NewSource(time.Now().UnixNano())),
		Metrics:          metrics,
	})

	io := socket.NewSocketServer(socket.Handlers{
		Game:    socket.NewGameHandler(rooms, metrics, cfg),
		Relay:   socket.NewRelayHandler(services.NewRelayHub()),
		Signals: socket.NewSignalHandler(services.NewSignalHub(time.Now)),
		Metrics: metrics,
	}, cfg.CORSOrigin)

	r := mux.NewRouter()
	routes.RegisterRoutes(r)
	routes.RegisterGameRoutes(r, controllers.NewGameController(rooms), controllers.NewStreamController(rooms, cfg.CORSOrigin))
	routes.RegisterMetricsRoutes(r, metrics.Handler())
	routes.RegisterSocketRoutes(r, io)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   utils.AllowedOrigins(cfg.CORSOrigin),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	return &Server{
		Rooms:   rooms,
		Metrics: metrics,
		cfg:     cfg,
		io:      io,
		handler: corsHandler,
		errc:    make(chan error, 2),
	}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds port (0 picks a free one) and serves in the background. It
// returns the bound port, or the bind error.
func (s *Server) Start(ctx context.Context, port int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return 0, errors.New("server already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to bind port %d: %w", port, err)
	}
	s.listener = ln
	s.http = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.io.Serve(); err != nil {
			log.Errorf("❌ Socket.IO server stopped: %v", err)
		}
	}()
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	bound := ln.Addr().(*net.TCPAddr).Port
	log.Infof("🚀 Pongo realtime server listening on :%d", bound)
	return bound, nil
}

// Err reports fatal serve errors after Start.
func (s *Server) Err() <-chan error {
	return s.errc
}

// Stop closes the listener, the socket.io server and every room, waiting for
// in-flight HTTP requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.http
	s.http, s.listener = nil, nil
	s.mu.Unlock()

	var errs []error
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := s.io.Close(); err != nil {
			errs = append(errs, fmt.Errorf("socket.io close: %w", err))
		}
	}
	s.Rooms.Close()
	log.Info("🛑 Server stopped")
	return errors.Join(errs...)
}
