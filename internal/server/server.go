package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"StockTracker/internal/config"
	"StockTracker/internal/display"
	"StockTracker/internal/httpapi"
	"StockTracker/internal/model"
	"StockTracker/internal/window"
)

// Tracker is the view of the tracker the API serves.
type Tracker interface {
	Followed() []string
	Summaries() []display.Summary
	State(symbol string) (*model.SymbolState, bool)
	Follow(ctx context.Context, symbol string) (bool, error)
	Unfollow(ctx context.Context, symbol string) error
	Clear(ctx context.Context)
	Project(kind model.ChartKind, timeframe int) window.View
	Search(ctx context.Context, query string) *model.SearchResponse
	LastTick() time.Time
	OnUpdate(fn func())
}

// Server exposes the tracker over HTTP and pushes views over WebSocket.
type Server struct {
	tr      Tracker
	trigger func()
	hub     *Hub
	engine  *gin.Engine
	http    *http.Server
	origins []string
	log     *zap.Logger
}

// New builds the API server. trigger requests an immediate tick and may be nil.
func New(cfg config.ServerConfig, tr Tracker, trigger func(), log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if trigger == nil {
		trigger = func() {}
	}

	s := &Server{
		tr:      tr,
		trigger: trigger,
		hub:     NewHub(tr, log),
		engine:  gin.New(),
		origins: cfg.AllowedOrigins,
		log:     log,
	}
	s.engine.Use(gin.Recovery(), httpapi.RequestLog(log), httpapi.CORS(cfg.AllowedOrigins))
	s.setupRoutes()
	tr.OnUpdate(s.hub.Notify)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/symbols", s.listSymbols)
	api.GET("/symbols/:symbol", s.getSymbol)
	api.POST("/symbols/:symbol", s.followSymbol)
	api.DELETE("/symbols/:symbol", s.unfollowSymbol)
	api.POST("/clear", s.clearHistory)
	api.GET("/series", s.getSeries)
	api.GET("/search/:query", s.search)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts the hub and serves until Shutdown is called or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)
	s.log.Info("api server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) originAllowed(origin string) bool {
	return httpapi.OriginAllowed(s.origins, origin)
}
