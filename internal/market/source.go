package market

import "context"

// KlineRequest 描述一次远端 K 线请求。
type KlineRequest struct {
	Symbol   string
	Interval string
	Start    int64 // Unix ms
	End      int64 // Unix ms（可选；0 表示不限制）
	Limit    int
}

// KlineSource 统一不同数据源的历史 K 线与最新价拉取行为。
type KlineSource interface {
	FetchKlines(ctx context.Context, req KlineRequest) ([]Candle, error)
	TickerPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}
