package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"image/png"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"imagepack-viewer/internal/config"
	"imagepack-viewer/internal/logger"
	"imagepack-viewer/internal/processing"
	"imagepack-viewer/internal/types"
)

//go:embed web/*
var webFS embed.FS

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10

	keyQueue      = 16
	outboundQueue = 4
)

type outbound struct {
	messageType int
	payload     []byte
}

type client struct {
	id      string
	writeMu sync.Mutex
}

// Server is the browser presentation surface: it pushes composite frames as
// PNG over a websocket and queues key presses sent back by the page.
type Server struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]*client
	mu       sync.Mutex
	cfg      config.AppConfig
	log      *logger.Logger
	statusFn func() map[string]any
	configFn func() types.UIConfig

	encoder  png.Encoder
	frameMu  sync.RWMutex
	latest   []byte
	outbound chan outbound
	keys     chan string
}

func New(cfg config.AppConfig, log *logger.Logger, statusFn func() map[string]any, configFn func() types.UIConfig) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]*client),
		cfg:      cfg,
		log:      log,
		statusFn: statusFn,
		configFn: configFn,
		encoder:  png.Encoder{CompressionLevel: png.BestSpeed},
		outbound: make(chan outbound, outboundQueue),
		keys:     make(chan string, keyQueue),
	}
}

func (s *Server) Handler() (http.Handler, error) {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, err
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", s.handleHealth)
	r.Get("/config", s.handleConfig)
	r.Get("/status", s.handleStatus)
	r.Get("/frame.png", s.handleFrame)
	r.Handle("/*", http.FileServer(http.FS(sub)))
	return r, nil
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go s.broadcast(ctx)

	s.log.Info().Str("addr", httpServer.Addr).Msg("viewer listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Show encodes frame, keeps it as the latest frame and queues it for the
// connected clients. A client that is still busy with the previous frame
// misses this one.
func (s *Server) Show(frame *processing.Frame) error {
	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, frame.Image); err != nil {
		return err
	}
	payload := buf.Bytes()

	s.frameMu.Lock()
	s.latest = payload
	s.frameMu.Unlock()

	select {
	case s.outbound <- outbound{messageType: websocket.BinaryMessage, payload: payload}:
	default:
	}
	return nil
}

// Publish queues a JSON message for every client, dropping it when the
// queue is full.
func (s *Server) Publish(message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case s.outbound <- outbound{messageType: websocket.TextMessage, payload: payload}:
	default:
	}
}

// PollKey returns a pending key press without blocking.
func (s *Server) PollKey() (string, bool) {
	select {
	case key := <-s.keys:
		return key, true
	default:
		return "", false
	}
}

func (s *Server) latestFrame() []byte {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.latest
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &client{id: uuid.NewString()}
	s.mu.Lock()
	s.clients[conn] = c
	s.mu.Unlock()
	s.log.Debug().Str("client", c.id).Str("remote", r.RemoteAddr).Msg("viewer client connected")

	_ = s.writeJSON(conn, c, s.uiConfig())
	if frame := s.latestFrame(); frame != nil {
		_ = s.writeMessage(conn, c, websocket.BinaryMessage, frame)
	}

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := s.writeMessage(conn, c, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer s.removeClient(conn)
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			var request struct {
				Type string `json:"type"`
				Key  string `json:"key"`
			}
			if err := json.Unmarshal(payload, &request); err != nil {
				continue
			}
			switch request.Type {
			case "key":
				s.pushKey(request.Key)
			case "snapshot_request":
				s.pushKey("k")
			}
		}
	}()
}

func (s *Server) pushKey(key string) {
	if key == "" {
		return
	}
	select {
	case s.keys <- key:
	default:
		s.log.Warn().Str("key", key).Msg("key queue full, dropping key")
	}
}

func (s *Server) uiConfig() types.UIConfig {
	if s.configFn != nil {
		return s.configFn()
	}
	return types.UIConfig{
		Type:         "config",
		TargetHeight: s.cfg.TargetHeight,
		Endpoint:     s.cfg.Endpoint,
		Delay:        s.cfg.Delay.String(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{
		"endpoint":      s.cfg.Endpoint,
		"target_height": s.cfg.TargetHeight,
		"delay":         s.cfg.Delay.String(),
		"recv_timeout":  s.cfg.RecvTimeout.String(),
		"on_error":      s.cfg.OnError,
		"port":          s.cfg.Port,
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{}
	if s.statusFn != nil {
		payload = s.statusFn()
	}
	if metrics, ok := payload["metrics"].(map[string]any); ok {
		metrics["ws_clients"] = s.clientCount()
	} else {
		payload["ws_clients"] = s.clientCount()
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	frame := s.latestFrame()
	if frame == nil {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(frame)
}

func (s *Server) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-s.outbound:
			for conn, c := range s.snapshotClients() {
				if err := s.writeMessage(conn, c, message.messageType, message.payload); err != nil {
					s.removeClient(conn)
				}
			}
		}
	}
}

// snapshotClients copies the client set so writes happen without s.mu held.
func (s *Server) snapshotClients() map[*websocket.Conn]*client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[*websocket.Conn]*client, len(s.clients))
	for conn, c := range s.clients {
		out[conn] = c
	}
	return out
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	c, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		s.log.Debug().Str("client", c.id).Msg("viewer client disconnected")
	}
	conn.Close()
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) writeJSON(conn *websocket.Conn, c *client, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}

func (s *Server) writeMessage(conn *websocket.Conn, c *client, messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}
