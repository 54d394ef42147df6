// Package main implements the Road Rush game server.
//
// Architecture Overview:
// - Uses WebSocket for real-time bidirectional communication with clients
// - Each connection owns one single-player session driven at 60Hz
// - Stats and scene frames are streamed to the client at 20Hz
// - High scores persist through the configured storage driver
//
// Connection Flow:
// 1. Client connects via WebSocket to /ws endpoint
// 2. Server creates a session and sends SessionInfo with the session ID
// 3. Client sends Command messages (start, pause, restart, ...) and Input
// 4. Server streams Stats, Frame, StateChange and GameOver messages
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/game"
	"github.com/race/roadrush/internal/logging"
	"github.com/race/roadrush/internal/network"
	"github.com/race/roadrush/internal/sessions"
	"github.com/race/roadrush/internal/storage"
)

const (
	sendBufferSize = 256
	readLimit      = 512
	pingPeriod     = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
)

// GameServer manages all connections and their sessions
type GameServer struct {
	config   *config.ServerConfig
	log      zerolog.Logger
	sessions *sessions.Manager
	protocol *network.Protocol
	upgrader websocket.Upgrader

	mu          sync.Mutex
	connections map[*ClientConnection]bool
}

// ClientConnection is a single connected client. Each client has its own
// goroutines for reading and writing messages.
type ClientConnection struct {
	ws       *websocket.Conn
	server   *GameServer
	entry    *sessions.Entry
	log      zerolog.Logger
	sendChan chan []byte
	done     chan struct{}
	once     sync.Once
}

func main() {
	configPath := flag.String("config", os.Getenv("ROADRUSH_CONFIG"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Server.LogLevel,
		Graylog: cfg.Server.Graylog,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	log := logger.Logger

	metrics, err := game.NewMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("Metrics disabled")
	}

	store, err := storage.Open(storage.Options{
		Driver: cfg.Server.DBDriver,
		DSN:    cfg.Server.DBDSN,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open high score store")
	}
	defer store.Close()

	manager := sessions.NewManager(log, store, cfg.Settings, metrics, config.MaxSessionsPerServer)
	defer manager.Close()

	server := NewGameServer(&cfg.Server, log, manager)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Int("tickRate", config.TargetFrameRate).
		Int("broadcastRate", config.BroadcastRate).
		Int("maxSessions", config.MaxSessionsPerServer).
		Str("storage", cfg.Server.DBDriver).
		Msg("Road Rush server starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server error")
	}
}

// NewGameServer creates a game server
func NewGameServer(cfg *config.ServerConfig, log zerolog.Logger, manager *sessions.Manager) *GameServer {
	return &GameServer{
		config:   cfg,
		log:      log,
		sessions: manager,
		protocol: network.NewProtocol(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.EnableCORS
			},
		},
		connections: make(map[*ClientConnection]bool),
	}
}

// Run serves until ctx is cancelled, then shuts the listener down
func (s *GameServer) Run(ctx context.Context) error {
	go s.background(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.closeAll()
	return nil
}

// background reaps idle sessions and logs activity
func (s *GameServer) background(ctx context.Context) {
	cleanup := time.NewTicker(config.CleanupInterval)
	defer cleanup.Stop()
	statsLog := time.NewTicker(config.StatsLogInterval)
	defer statsLog.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-cleanup.C:
			if removed := s.sessions.CleanupIdle(config.SessionIdleTimeout); removed > 0 {
				s.log.Info().Int("removed", removed).Msg("Cleaned up idle sessions")
			}

		case <-statsLog.C:
			stats := s.sessions.GetStats()
			if stats.TotalSessions > 0 {
				s.log.Info().
					Int("sessions", stats.TotalSessions).
					Int("playing", stats.Playing).
					Msg("Stats")
			}
		}
	}
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *GameServer) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.sessions.GetStats()); err != nil {
		s.log.Error().Err(err).Msg("Failed to write stats")
	}
}

// handleWebSocket upgrades the connection and creates its session
func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	conn := &ClientConnection{
		ws:       ws,
		server:   s,
		log:      s.log.With().Str("remote", ws.RemoteAddr().String()).Logger(),
		sendChan: make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}

	// The session greeting is buffered in sendChan until the write pump runs
	entry, err := s.sessions.Create(conn)
	if err != nil {
		code := network.ErrorCodeServerError
		if errors.Is(err, sessions.ErrServerFull) {
			code = network.ErrorCodeServerFull
		}
		conn.Send(s.protocol.EncodeError(code, err.Error()))
		conn.log.Warn().Err(err).Msg("Rejected connection")
		go conn.writePump()
		conn.closeAfterFlush()
		return
	}
	conn.entry = entry
	conn.log = conn.log.With().Str("session", entry.ID).Logger()

	s.mu.Lock()
	s.connections[conn] = true
	s.mu.Unlock()

	conn.log.Info().Msg("New connection")
	go conn.writePump()
	go conn.readPump()
}

func (s *GameServer) closeAll() {
	s.mu.Lock()
	conns := make([]*ClientConnection, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.cleanup()
	}
}

// Send queues data for the client. Drops the message if the buffer is
// full so a slow client never blocks its session loop.
func (c *ClientConnection) Send(data []byte) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}

	select {
	case c.sendChan <- data:
		return nil
	case <-c.done:
		return errors.New("connection closed")
	default:
		return nil
	}
}

// Close shuts the connection down. Safe to call multiple times.
func (c *ClientConnection) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// closeAfterFlush gives the write pump a moment to deliver queued
// messages before closing
func (c *ClientConnection) closeAfterFlush() {
	time.AfterFunc(writeWait/10, func() { c.Close() })
}

func (c *ClientConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.cleanup()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.sendChan:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *ClientConnection) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("Read error")
			}
			return
		}

		if err := c.entry.HandleMessage(message); err != nil {
			c.log.Debug().Err(err).Msg("Invalid message")
			c.Send(c.server.protocol.EncodeError(network.ErrorCodeInvalidMessage, err.Error()))
		}
	}
}

// cleanup drops the session and closes the socket. Called by both pumps.
func (c *ClientConnection) cleanup() {
	c.server.mu.Lock()
	_, tracked := c.server.connections[c]
	delete(c.server.connections, c)
	c.server.mu.Unlock()

	if tracked && c.entry != nil {
		c.server.sessions.Remove(c.entry.ID)
		c.log.Info().Msg("Connection closed")
	}
	c.Close()
}
