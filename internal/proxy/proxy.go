package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"StockTracker/internal/collector"
	"StockTracker/internal/config"
	"StockTracker/internal/httpapi"
	"StockTracker/internal/model"
)

// mockBasePrice anchors the synthetic candles served when the upstream denies history.
const mockBasePrice = 150.0

// Quote is the upstream quote with the requested symbol echoed back.
type Quote struct {
	Symbol string `json:"symbol"`
	model.Quote
}

// Proxy serves the quote API in front of Finnhub.
type Proxy struct {
	baseURL string
	apiKey  string
	days    int
	client  *http.Client
	engine  *gin.Engine
	http    *http.Server
	now     func() time.Time
	log     *zap.Logger
}

// New builds the proxy. httpsProxy optionally routes upstream calls through a proxy.
func New(cfg config.ProxyConfig, httpsProxy string, log *zap.Logger) *Proxy {
	gin.SetMode(gin.ReleaseMode)

	transport := &http.Transport{}
	if httpsProxy != "" {
		if u, err := url.Parse(httpsProxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	p := &Proxy{
		baseURL: strings.TrimRight(cfg.FinnhubBaseURL, "/"),
		apiKey:  cfg.FinnhubAPIKey,
		days:    cfg.HistoryDays,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
		engine:  gin.New(),
		now:     time.Now,
		log:     log,
	}
	p.engine.Use(gin.Recovery(), httpapi.RequestLog(log), httpapi.CORS(cfg.AllowedOrigins))

	api := p.engine.Group("/api")
	api.GET("/health", p.health)
	api.GET("/quote/:symbol", p.quote)
	api.GET("/candles/:symbol", p.candles)
	api.GET("/search/:query", p.search)

	p.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           p.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return p
}

// Handler returns the HTTP handler.
func (p *Proxy) Handler() http.Handler { return p.engine }

// Run serves until Shutdown is called.
func (p *Proxy) Run() error {
	p.log.Info("quote proxy listening", zap.String("addr", p.http.Addr))
	if err := p.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (p *Proxy) Shutdown(ctx context.Context) error {
	return p.http.Shutdown(ctx)
}

func (p *Proxy) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   p.now().Format(time.RFC3339),
	})
}

// get calls an upstream endpoint and returns the status and body.
func (p *Proxy) get(ctx context.Context, path string, params url.Values) (int, []byte, error) {
	params.Set("token", p.apiKey)
	u := p.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

func (p *Proxy) quote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	log := p.log.With(zap.String("symbol", symbol))

	status, body, err := p.get(c.Request.Context(), "/quote", url.Values{"symbol": {symbol}})
	if err != nil {
		log.Error("fetch quote failed", zap.Error(err))
		httpapi.Abort(c, http.StatusInternalServerError, "Failed to fetch data")
		return
	}

	switch status {
	case http.StatusOK:
		q := Quote{Symbol: symbol}
		if err := json.Unmarshal(body, &q.Quote); err != nil {
			log.Error("parse quote failed", zap.Error(err))
			httpapi.Abort(c, http.StatusInternalServerError, "Failed to parse data")
			return
		}
		c.JSON(http.StatusOK, q)
	case http.StatusForbidden:
		log.Warn("quote forbidden, check plan limits")
		httpapi.Abort(c, http.StatusForbidden, "API access forbidden - check your plan limits")
	default:
		p.upstreamError(c, log, status)
	}
}

func (p *Proxy) candles(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	log := p.log.With(zap.String("symbol", symbol))

	to := p.now().Unix()
	from := to - int64(p.days)*24*60*60
	status, body, err := p.get(c.Request.Context(), "/stock/candle", url.Values{
		"symbol":     {symbol},
		"resolution": {"D"},
		"from":       {fmt.Sprint(from)},
		"to":         {fmt.Sprint(to)},
	})
	if err != nil {
		log.Error("fetch candles failed", zap.Error(err))
		httpapi.Abort(c, http.StatusInternalServerError, "Failed to fetch data")
		return
	}

	switch status {
	case http.StatusOK:
		c.Data(http.StatusOK, "application/json", body)
	case http.StatusUnauthorized, http.StatusTooManyRequests:
		p.upstreamError(c, log, status)
	default:
		log.Warn("historical candles unavailable, serving mock data", zap.Int("status", status))
		c.JSON(http.StatusOK, collector.MockCandles(mockBasePrice, 5, p.now()))
	}
}

func (p *Proxy) search(c *gin.Context) {
	query := c.Param("query")
	log := p.log.With(zap.String("query", query))

	status, body, err := p.get(c.Request.Context(), "/search", url.Values{"q": {query}})
	if err != nil {
		log.Error("search failed", zap.Error(err))
		httpapi.Abort(c, http.StatusInternalServerError, "Failed to fetch data")
		return
	}

	switch status {
	case http.StatusOK:
		c.Data(http.StatusOK, "application/json", body)
	case http.StatusForbidden:
		httpapi.Abort(c, http.StatusForbidden, "API access forbidden")
	default:
		p.upstreamError(c, log, status)
	}
}

func (p *Proxy) upstreamError(c *gin.Context, log *zap.Logger, status int) {
	switch status {
	case http.StatusUnauthorized:
		log.Warn("upstream rejected api key")
		httpapi.Abort(c, http.StatusUnauthorized, "API key invalid or expired")
	case http.StatusTooManyRequests:
		log.Warn("upstream rate limit exceeded")
		httpapi.Abort(c, http.StatusTooManyRequests, "Rate limit exceeded")
	default:
		log.Warn("upstream returned unexpected status", zap.Int("status", status))
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		httpapi.Abort(c, status, "Failed to fetch data from Finnhub")
	}
}
