package gateway

import (
	"fmt"
	"strings"
	"time"

	brcfg "stacker/internal/config"
	"stacker/internal/gateway/binance"
	"stacker/internal/market"
)

// NewKlineSourceFromConfig 根据配置选择 SDK 或裸 REST 数据源。
func NewKlineSourceFromConfig(cfg *brcfg.Config) (market.KlineSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	timeout := time.Duration(cfg.Binance.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Binance.Source)) {
	case "", "sdk", "binance":
		return binance.New(binance.Config{
			RESTBaseURL:  cfg.Binance.RESTBaseURL,
			HTTPTimeout:  timeout,
			ProxyEnabled: cfg.Binance.ProxyEnabled,
			RESTProxyURL: cfg.Binance.RESTProxyURL,
		})
	case "rest", "binance-rest":
		return binance.NewRESTSource(cfg.Binance.RESTBaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported market source: %s", cfg.Binance.Source)
	}
}
