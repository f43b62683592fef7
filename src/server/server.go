package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/metrics"
	"satoshi-drop/src/models"
	"satoshi-drop/src/state"
)

const (
	defaultClientBuffer = 256
	readHeaderTimeout   = 5 * time.Second
)

// FetchHealth reports the price poller's recent outcomes.
type FetchHealth interface {
	ConsecutiveFailures() int
	TotalFailures() int
	LastSuccess() int64
}

// Dependencies are the collaborators a DisplayServer reads from.
// Database, Health and Metrics are optional.
type Dependencies struct {
	Store    *state.Store
	Database interfaces.IDatabase
	Health   FetchHealth
	Metrics  *metrics.Metrics
}

// -----------------------------------------------------------------------------
// DisplayServer
// -----------------------------------------------------------------------------

type DisplayServer struct {
	Config *models.MConfig
	Logger *logger.Logger

	store   *state.Store
	db      interfaces.IDatabase
	health  FetchHealth
	metrics *metrics.Metrics

	engine     *gin.Engine
	handler    http.Handler
	upgrader   *websocket.Upgrader
	httpServer *http.Server

	// WebSocket hub, owned by run()
	clients    map[*Client]struct{}
	broadcast  chan models.MDisplayData
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	hubOnce    sync.Once
	hubStarted atomic.Bool
	stopOnce   sync.Once
	hubDone    chan struct{}

	clientBuffer int
	clientCount  atomic.Int64
}

var _ interfaces.IDataExchanger = (*DisplayServer)(nil)

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDisplayServer(cfg *models.MConfig, deps Dependencies, log *logger.Logger) *DisplayServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewLogger(cfg, "DisplayServer")
	}

	buffer := cfg.Server.ClientBuffer
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}

	s := &DisplayServer{
		Config:       cfg,
		Logger:       log,
		store:        deps.Store,
		db:           deps.Database,
		health:       deps.Health,
		metrics:      deps.Metrics,
		engine:       gin.New(),
		clients:      make(map[*Client]struct{}),
		broadcast:    make(chan models.MDisplayData, buffer),
		direct:       make(chan directMessage, buffer),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		quit:         make(chan struct{}),
		hubDone:      make(chan struct{}),
		clientBuffer: buffer,
	}

	origins := allowedOrigins(cfg.Server.AllowedOrigins)
	s.upgrader = newUpgrader(origins)

	s.engine.Use(gin.Recovery(), s.instrument())
	s.setupRoutes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Accept", "Origin", "X-Requested-With"},
	}).Handler(s.engine)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DisplayServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/state", s.getState)
	api.GET("/countdown", s.getCountdown)
	api.GET("/price", s.getPrice)
	api.GET("/price/history", s.getPriceHistory)
	api.GET("/price/stats", s.getPriceStats)
	api.GET("/price/candles", s.getPriceCandles)
	api.GET("/products", s.getProducts)
	api.POST("/newsletter", s.postNewsletter)
	api.GET("/health", s.getHealth)
	api.GET("/config", s.getConfig)

	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

// Handler returns the CORS-wrapped router, for embedding and tests.
func (s *DisplayServer) Handler() http.Handler {
	return s.handler
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// StartHub starts the websocket hub without listening. Start calls it.
func (s *DisplayServer) StartHub() {
	s.hubOnce.Do(func() {
		s.hubStarted.Store(true)
		go s.run()
	})
}

// -----------------------------------------------------------------------------

// Start serves until Stop is called.
func (s *DisplayServer) Start() error {
	s.StartHub()
	s.Logger.Info("Starting server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop drains HTTP requests, then closes every websocket client.
func (s *DisplayServer) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.stopOnce.Do(func() {
		close(s.quit)
	})

	if s.hubStarted.Load() {
		select {
		case <-s.hubDone:
		case <-ctx.Done():
		}
	}
	return err
}
