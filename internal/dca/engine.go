package dca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stacker/internal/gateway/notifier"
	"stacker/internal/logger"
	"stacker/internal/market"
	"stacker/internal/series"

	"golang.org/x/sync/errgroup"
)

// Request 是会话前端传入的结构化模拟请求。
type Request struct {
	TotalInvestment float64   `json:"total_investment"`
	Symbol          string    `json:"symbol"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Cadence         Cadence   `json:"cadence"`
	FeePercent      float64   `json:"fee_percent"`
}

// EngineConfig 配置模拟引擎。
type EngineConfig struct {
	Series    *series.Cache
	Prices    *market.PriceService
	Runs      *RunStore
	Notifier  notifier.TextNotifier
	Annualize bool
}

// Engine 把取数、索引构建、排期与模拟串成一次同步调用。
// 单请求自洽：除两个记忆化缓存外不共享可变状态，并发调用可自由交错。
type Engine struct {
	series    *series.Cache
	prices    *market.PriceService
	runs      *RunStore
	notifier  notifier.TextNotifier
	annualize bool
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Series == nil {
		return nil, fmt.Errorf("series cache is required")
	}
	if cfg.Prices == nil {
		return nil, fmt.Errorf("price service is required")
	}
	return &Engine{
		series:    cfg.Series,
		prices:    cfg.Prices,
		runs:      cfg.Runs,
		notifier:  cfg.Notifier,
		annualize: cfg.Annualize,
	}, nil
}

// Simulate 执行一次完整的定投模拟。参数校验先于任何网络请求；
// 取数层的失败已在内部吸收为部分数据，这里只认"有没有可用数据"。
func (e *Engine) Simulate(ctx context.Context, req Request) (Result, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	// 数据充分性先于最新价判定：窗口内无数据时直接定性为无数据，
	// 不让行情接口的故障抢走错误归因。
	index := e.priceIndex(ctx, req.Symbol, req.Start, req.End, req.Cadence)
	if index.Empty() {
		return Result{}, &NoDataError{Symbol: req.Symbol, Reason: "no historical price data in window"}
	}
	if len(GenerateSchedule(req.Start, req.End, req.Cadence, index)) == 0 {
		return Result{}, &NoDataError{Symbol: req.Symbol, Reason: "no schedule point matched available prices"}
	}

	currentPrice, err := e.prices.Price(ctx, req.Symbol)
	if err != nil {
		return Result{}, &PriceUnavailableError{Symbol: req.Symbol, Err: err}
	}

	res, err := Simulate(SimulationInput{
		TotalInvestment: req.TotalInvestment,
		Symbol:          req.Symbol,
		Start:           req.Start,
		End:             req.End,
		Cadence:         req.Cadence,
		FeePercent:      req.FeePercent,
		Index:           index,
		CurrentPrice:    currentPrice,
		Annualize:       e.annualize,
	})
	if err != nil {
		return Result{}, err
	}

	if e.runs != nil {
		run := e.runs.Add(res)
		logger.Infof("[dca] run %s done: %s %s points=%d roi=%.2f%% lump=%.2f%%",
			run.ID, res.Symbol, res.Cadence, res.NumberOfInvestments, res.ROIPercent, res.LumpSumROI)
	}
	// 通知是尽力而为的旁路，重试退避不能拖住模拟请求。
	go e.notify(res)
	return res, nil
}

// PriceIndex 暴露给出图等只读消费方的索引构建入口。
func (e *Engine) PriceIndex(ctx context.Context, symbol string, start, end time.Time, c Cadence) series.Index {
	return e.priceIndex(ctx, strings.ToUpper(strings.TrimSpace(symbol)), start, end, c)
}

func (e *Engine) priceIndex(ctx context.Context, symbol string, start, end time.Time, c Cadence) series.Index {
	iv, _ := series.ParseInterval(c.SourceInterval())
	records := e.series.GetOrFetch(ctx, series.Query{
		Symbol:   symbol,
		StartMS:  start.UTC().UnixMilli(),
		EndMS:    end.UTC().UnixMilli(),
		Interval: c.SourceInterval(),
	})
	return series.BuildIndex(records, iv)
}

// CurrentPrice 透出记忆化的最新价。
func (e *Engine) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, &InvalidParameterError{Field: "symbol", Reason: "must not be empty"}
	}
	price, err := e.prices.Price(ctx, symbol)
	if err != nil {
		return 0, &PriceUnavailableError{Symbol: symbol, Err: err}
	}
	return price, nil
}

// Preheat 并发预热多个币种的历史序列缓存，降低首次模拟的冷启动延迟。
func (e *Engine) Preheat(ctx context.Context, symbols []string, start, end time.Time, c Cadence) {
	if len(symbols) == 0 {
		return
	}
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(2)
	for _, sym := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		group.Go(func() error {
			records := e.series.GetOrFetch(ctx, series.Query{
				Symbol:   sym,
				StartMS:  start.UTC().UnixMilli(),
				EndMS:    end.UTC().UnixMilli(),
				Interval: c.SourceInterval(),
			})
			logger.Infof("[dca] preheated %s %s: %d records", sym, c.SourceInterval(), len(records))
			return nil
		})
	}
	_ = group.Wait()
}

func (e *Engine) notify(res Result) {
	if e.notifier == nil {
		return
	}
	msg := notifier.Summary{
		Title: fmt.Sprintf("📊 DCA simulation %s", res.Symbol),
		Lines: []string{
			fmt.Sprintf("window: %s -> %s (%s)", res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), res.Cadence),
			fmt.Sprintf("invested: %.2f over %d buys", res.TotalInvestment, res.NumberOfInvestments),
			fmt.Sprintf("avg price: %.4f, coins: %.6f", res.AvgPurchasePrice, res.TotalCoins),
			fmt.Sprintf("ROI: %.2f%% (lump sum %.2f%%)", res.ROIPercent, res.LumpSumROI),
		},
		At: time.Now(),
	}
	if err := e.notifier.SendText(msg.RenderMarkdown()); err != nil {
		logger.Warnf("[dca] notify failed: %v", err)
	}
}

func validateRequest(req Request) error {
	if req.Symbol == "" {
		return &InvalidParameterError{Field: "symbol", Reason: "must not be empty"}
	}
	if req.TotalInvestment <= 0 {
		return &InvalidParameterError{Field: "total_investment", Reason: "must be positive"}
	}
	if req.FeePercent < 0 {
		return &InvalidParameterError{Field: "fee_percent", Reason: "must not be negative"}
	}
	if req.Start.After(req.End) {
		return &InvalidParameterError{Field: "window", Reason: "start is after end"}
	}
	if err := req.Cadence.Validate(); err != nil {
		return &InvalidParameterError{Field: "cadence", Reason: err.Error()}
	}
	return nil
}
