// Package server hosts live preview of record fields: it renders partials on
// request, pushes setting changes to connected editors, and reloads the content
// file when it changes on disk.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/conneroisu/livefield/internal/authz"
	"github.com/conneroisu/livefield/internal/config"
	"github.com/conneroisu/livefield/internal/content"
	"github.com/conneroisu/livefield/internal/errors"
	"github.com/conneroisu/livefield/internal/logging"
	"github.com/conneroisu/livefield/internal/partial"
	"github.com/conneroisu/livefield/internal/transform"
	"github.com/conneroisu/livefield/internal/watcher"
)

// Client represents a WebSocket client
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer serves partial renders with live setting notifications
type PreviewServer struct {
	config      *config.Config
	logger      logging.Logger
	errHandler  *errors.ErrorHandler
	httpServer  *http.Server
	serverMutex sync.RWMutex

	types      *content.TypeRegistry
	store      *content.Store
	pipeline   *transform.Pipeline
	authorizer *authz.Authorizer
	watcher    *watcher.FileWatcher

	partials      map[string]*partial.FieldPartial
	partialsGen   uint64
	partialsMutex sync.RWMutex

	clients      map[string]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan string
	hubDone      chan struct{}

	shutdownOnce sync.Once
}

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Settings  []string  `json:"settings,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a new preview server. The content file is not read until Start
// or Reload is called.
func New(cfg *config.Config, logger logging.Logger) (*PreviewServer, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	mode, err := authz.ParseMode(cfg.Auth.Mode)
	if err != nil {
		return nil, err
	}
	authorizer, err := authz.NewAuthorizer(cfg.Auth.Roles, mode)
	if err != nil {
		return nil, err
	}

	pipeline := transform.NewPipeline(cfg.Preview.ExcerptWords)
	pipeline.Autop = cfg.Preview.Autop

	types := content.NewTypeRegistry(content.DefaultTypes()...)
	logger = logger.WithComponent("server")

	return &PreviewServer{
		config:     cfg,
		logger:     logger,
		errHandler: errors.NewErrorHandler(logger),
		types:      types,
		store:      content.NewStore(types),
		pipeline:   pipeline,
		authorizer: authorizer,
		partials:   make(map[string]*partial.FieldPartial),
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan string),
		hubDone:    make(chan struct{}),
	}, nil
}

// Types returns the content type registry.
func (s *PreviewServer) Types() *content.TypeRegistry { return s.types }

// Store returns the record store.
func (s *PreviewServer) Store() *content.Store { return s.store }

// Handler returns the HTTP handler with middleware applied.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/partials/render", s.handleRender)
	mux.HandleFunc("/api/partials/export", s.handleExport)

	return s.addMiddleware(mux)
}

// Run starts the background workers: the WebSocket hub, the store watcher and,
// when enabled, the content file watcher. They stop when ctx is cancelled.
func (s *PreviewServer) Run(ctx context.Context) {
	go s.runWebSocketHub(ctx)
	go s.watchStore(ctx)

	if s.config.Preview.Watch {
		s.setupFileWatcher(ctx)
	}
}

// Start loads content, runs background workers, and serves HTTP until the
// server is shut down.
func (s *PreviewServer) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		// An absent file is fine, it may be created later
		s.errHandler.Handle(ctx, err)
	}

	s.Run(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Preview server listening", "addr", addr, "records", s.store.Count())

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Reload reads the configured content file into the registry and store.
func (s *PreviewServer) Reload(ctx context.Context) error {
	file, err := content.LoadFile(s.config.Content.File)
	if err != nil {
		return err
	}

	file.Apply(s.types, s.store)

	// type visibility may have changed
	s.partialsMutex.Lock()
	s.partials = make(map[string]*partial.FieldPartial)
	s.partialsGen++
	s.partialsMutex.Unlock()

	s.logger.Info(ctx, "Content loaded", "file", s.config.Content.File, "records", s.store.Count())
	return nil
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) {
	fw, err := watcher.NewFileWatcher(s.config.Preview.Debounce, s.logger)
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to create file watcher")
		return
	}

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, event := range events {
			s.logger.Debug(ctx, "Content file changed", "path", event.Path, "event", event.Type)
		}
		return s.Reload(ctx)
	})

	if err := fw.WatchFile(s.config.Content.File); err != nil {
		s.logger.Warn(ctx, err, "Failed to watch content file", "file", s.config.Content.File)
		_ = fw.Stop()
		return
	}

	if err := fw.Start(ctx); err != nil {
		s.logger.Warn(ctx, err, "Failed to start file watcher")
		_ = fw.Stop()
		return
	}

	s.serverMutex.Lock()
	s.watcher = fw
	s.serverMutex.Unlock()
}

// watchStore turns record events into setting-changed messages. Events that
// arrive together are sent as one message.
func (s *PreviewServer) watchStore(ctx context.Context) {
	events := s.store.Watch()
	defer s.store.UnWatch(events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			settings := map[string]struct{}{event.SettingID(): {}}
		drain:
			for {
				select {
				case more, ok := <-events:
					if !ok {
						break drain
					}
					settings[more.SettingID()] = struct{}{}
				default:
					break drain
				}
			}
			s.broadcastMessage(ctx, UpdateMessage{
				Type:      "setting-changed",
				Settings:  sortedKeys(settings),
				Timestamp: time.Now(),
			})
		}
	}
}

func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+s.roleHeader())

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
			"duration", time.Since(start))
	})
}

// isAllowedOrigin checks if the origin is in the allowed origins list
func (s *PreviewServer) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

func (s *PreviewServer) broadcastMessage(ctx context.Context, msg UpdateMessage) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to marshal message")
		return
	}

	select {
	case s.broadcast <- jsonData:
	case <-s.hubDone:
	case <-ctx.Done():
	}
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.serverMutex.RLock()
		fw := s.watcher
		server := s.httpServer
		s.serverMutex.RUnlock()

		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.logger.Warn(ctx, err, "Failed to stop file watcher")
			}
		}

		// the hub drops clients as their read pumps exit
		s.clientsMutex.RLock()
		for _, client := range s.clients {
			client.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		s.clientsMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
