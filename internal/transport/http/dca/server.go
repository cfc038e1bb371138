package dcahttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stacker/internal/dca"
	"stacker/internal/preset"
	"stacker/internal/report"

	"github.com/gin-gonic/gin"
)

// Server 提供定投模拟相关的 HTTP API。
type Server struct {
	addr       string
	engine     *dca.Engine
	runs       *dca.RunStore
	presets    *preset.Registry
	defaultFee float64
	router     *gin.Engine
}

// Config 描述 HTTP Server 的依赖。
type Config struct {
	Addr       string
	Engine     *dca.Engine
	Runs       *dca.RunStore
	Presets    *preset.Registry
	DefaultFee float64
}

// NewServer 构建 HTTP Server。
func NewServer(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Runs == nil {
		return nil, errors.New("run store is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9921"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s := &Server{
		addr:       cfg.Addr,
		engine:     cfg.Engine,
		runs:       cfg.Runs,
		presets:    cfg.Presets,
		defaultFee: cfg.DefaultFee,
		router:     router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.router.Group("/api/dca")
	api.POST("/simulate", s.handleSimulate)
	api.GET("/runs", s.handleRuns)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/runs/:id/chart", s.handleRunChart)
	api.GET("/presets", s.handlePresets)
	api.GET("/price", s.handlePrice)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start 阻塞运行直至 ctx 取消或监听失败。
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

type simulateRequest struct {
	Preset          string   `json:"preset"`
	TotalInvestment float64  `json:"total_investment"`
	Symbol          string   `json:"symbol"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	FeePercent      *float64 `json:"fee_percent"`
	Cadence         *struct {
		Every int    `json:"every"`
		Unit  string `json:"unit"`
	} `json:"cadence"`
}

func (s *Server) handleSimulate(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateSimulatePayload(raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var body simulateRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := s.buildRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.engine.Simulate(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

// buildRequest 把 HTTP 载荷合成引擎请求。缺省来源从近到远：
// 显式字段 > preset 字段 > 全局缺省（手续费）。
func (s *Server) buildRequest(body simulateRequest) (dca.Request, error) {
	req := dca.Request{
		TotalInvestment: body.TotalInvestment,
		Symbol:          body.Symbol,
		FeePercent:      s.defaultFee,
	}
	if body.FeePercent != nil {
		req.FeePercent = *body.FeePercent
	}
	if body.Cadence != nil {
		unit, err := dca.ParseUnit(body.Cadence.Unit)
		if err != nil {
			return dca.Request{}, err
		}
		req.Cadence = dca.Cadence{Every: body.Cadence.Every, Unit: unit}
	}
	if body.Start != "" {
		start, err := parseTime(body.Start)
		if err != nil {
			return dca.Request{}, fmt.Errorf("start: %w", err)
		}
		req.Start = start
	}
	if body.End != "" {
		end, err := parseTime(body.End)
		if err != nil {
			return dca.Request{}, fmt.Errorf("end: %w", err)
		}
		req.End = end
	}

	if body.Preset == "" {
		return req, nil
	}
	if s.presets == nil {
		return dca.Request{}, fmt.Errorf("presets are not configured")
	}
	p, ok := s.presets.Preset(body.Preset)
	if !ok {
		return dca.Request{}, fmt.Errorf("unknown preset: %s", body.Preset)
	}
	if req.Symbol == "" {
		req.Symbol = p.Symbol
	}
	if req.Cadence.Every == 0 {
		cad, err := p.Cadence()
		if err != nil {
			return dca.Request{}, err
		}
		req.Cadence = cad
	}
	if req.TotalInvestment == 0 {
		req.TotalInvestment = p.Amount
	}
	if body.FeePercent == nil && p.FeePercent > 0 {
		req.FeePercent = p.FeePercent
	}
	if req.End.IsZero() {
		req.End = time.Now().UTC()
	}
	if req.Start.IsZero() {
		req.Start = req.End.AddDate(0, 0, -p.WindowDays)
	}
	return req, nil
}

func (s *Server) handleRuns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"runs": s.runs.List()})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, ok := s.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleRunChart(c *gin.Context) {
	run, ok := s.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	html, err := report.RenderPurchaseChart(run.Result)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handlePresets(c *gin.Context) {
	if s.presets == nil {
		c.JSON(http.StatusOK, gin.H{"presets": []preset.Preset{}})
		return
	}
	if strings.EqualFold(c.Query("format"), "yaml") {
		doc, err := s.presets.ExportYAML()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/yaml", doc)
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": s.presets.List()})
}

func (s *Server) handlePrice(c *gin.Context) {
	symbol := c.Query("symbol")
	price, err := s.engine.CurrentPrice(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": strings.ToUpper(strings.TrimSpace(symbol)), "price": price})
}

// statusFor 把引擎错误分类映射为 HTTP 状态。
func statusFor(err error) int {
	switch {
	case dca.IsInvalidParameter(err):
		return http.StatusBadRequest
	case dca.IsNoData(err):
		return http.StatusUnprocessableEntity
	case dca.IsPriceUnavailable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseTime 接受日期（2006-01-02）或 RFC3339 时间戳。
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want 2006-01-02 or RFC3339)", s)
}
