package app

import (
	"fmt"

	stkcfg "stacker/internal/config"
	"stacker/internal/dca"
	"stacker/internal/gateway"
	"stacker/internal/gateway/notifier"
	"stacker/internal/logger"
	"stacker/internal/market"
	"stacker/internal/preset"
	"stacker/internal/series"
	dcahttp "stacker/internal/transport/http/dca"
)

type appBuilder struct {
	cfg *stkcfg.Config

	sourceFn   func(*stkcfg.Config) (market.KlineSource, error)
	registryFn func(string) (*preset.Registry, error)
	notifierFn func(stkcfg.TelegramConfig) notifier.TextNotifier
}

func newBuilder(cfg *stkcfg.Config) *appBuilder {
	return &appBuilder{
		cfg:        cfg,
		sourceFn:   gateway.NewKlineSourceFromConfig,
		registryFn: preset.NewRegistry,
		notifierFn: buildNotifier,
	}
}

func buildNotifier(cfg stkcfg.TelegramConfig) notifier.TextNotifier {
	if !cfg.Enabled {
		return nil
	}
	return notifier.NewTelegram(cfg.BotToken, cfg.ChatID)
}

func (b *appBuilder) build() (*App, error) {
	cfg := b.cfg

	src, err := b.sourceFn(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化行情源失败: %w", err)
	}
	logger.Infof("✓ 行情源: %s", src.Name())

	fetcher, err := series.NewFetcher(series.FetcherConfig{
		Source:          src,
		PageSize:        cfg.Fetch.PageSize,
		RateLimitPerMin: cfg.Fetch.RateLimitPerMin,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化取数器失败: %w", err)
	}

	cache, err := series.NewCache(fetcher)
	if err != nil {
		return nil, err
	}
	prices, err := market.NewPriceService(src)
	if err != nil {
		return nil, err
	}

	runs := dca.NewRunStore()
	engine, err := dca.NewEngine(dca.EngineConfig{
		Series:    cache,
		Prices:    prices,
		Runs:      runs,
		Notifier:  b.notifierFn(cfg.Notify.Telegram),
		Annualize: cfg.DCA.Annualize,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化模拟引擎失败: %w", err)
	}

	var registry *preset.Registry
	if cfg.Presets.Path != "" {
		registry, err = b.registryFn(cfg.Presets.Path)
		if err != nil {
			return nil, fmt.Errorf("加载预设失败: %w", err)
		}
		logger.Infof("✓ 已加载 %d 个定投预设", len(registry.List()))
	}

	httpSrv, err := dcahttp.NewServer(dcahttp.Config{
		Addr:       cfg.App.HTTPAddr,
		Engine:     engine,
		Runs:       runs,
		Presets:    registry,
		DefaultFee: cfg.DCA.DefaultFeePercent,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}

	return &App{cfg: cfg, engine: engine, http: httpSrv}, nil
}
