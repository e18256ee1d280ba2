package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"StockTracker/internal/httpapi"
	"StockTracker/internal/model"
	"StockTracker/internal/tracker"
)

func (s *Server) getHealth(c *gin.Context) {
	resp := gin.H{
		"status":      "healthy",
		"time":        time.Now().Format(time.RFC3339),
		"connections": s.hub.Connections(),
		"lastTick":    nil,
	}
	if lt := s.tr.LastTick(); !lt.IsZero() {
		resp["lastTick"] = lt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"followed":  s.tr.Followed(),
		"summaries": s.tr.Summaries(),
	})
}

func (s *Server) getSymbol(c *gin.Context) {
	state, ok := s.tr.State(c.Param("symbol"))
	if !ok {
		httpapi.Abort(c, http.StatusNotFound, "no data for symbol")
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) followSymbol(c *gin.Context) {
	added, err := s.tr.Follow(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.symbolError(c, err)
		return
	}
	code := http.StatusOK
	if added {
		code = http.StatusCreated
		s.trigger()
	}
	c.JSON(code, gin.H{"followed": s.tr.Followed()})
}

func (s *Server) unfollowSymbol(c *gin.Context) {
	if err := s.tr.Unfollow(c.Request.Context(), c.Param("symbol")); err != nil {
		s.symbolError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followed": s.tr.Followed()})
}

func (s *Server) symbolError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracker.ErrInvalidSymbol):
		httpapi.Abort(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrNotFollowed):
		httpapi.Abort(c, http.StatusNotFound, err.Error())
	default:
		httpapi.Abort(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) clearHistory(c *gin.Context) {
	s.tr.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) getSeries(c *gin.Context) {
	tf, err := strconv.Atoi(c.DefaultQuery("timeframe", strconv.Itoa(defaultTimeframe)))
	if err != nil || tf <= 0 {
		httpapi.Abort(c, http.StatusBadRequest, "timeframe must be a positive number of minutes")
		return
	}
	kind := model.ParseChartKind(c.Query("kind"))
	c.JSON(http.StatusOK, buildView(s.tr, viewPref{Kind: kind, Timeframe: tf}))
}

func (s *Server) search(c *gin.Context) {
	c.JSON(http.StatusOK, s.tr.Search(c.Request.Context(), c.Param("query")))
}
