package series

import (
	"context"
	"fmt"
	"sync"

	"stacker/internal/logger"
	"stacker/internal/market"

	"golang.org/x/time/rate"
)

const defaultPageSize = 1000

// FetcherConfig 配置 Fetcher。
type FetcherConfig struct {
	Source          market.KlineSource
	PageSize        int
	RateLimitPerMin int
}

// FetchStats 暴露拉取层的可观测计数，供上层展示"尽力而为"截断的踪迹。
type FetchStats struct {
	Pages     int
	Records   int
	Truncated int
	LastError string
}

// Fetcher 负责按页拉取一个时间窗口内的全部 K 线。
//
// 拉取是尽力而为的：翻页途中任何传输或解析失败都会在记录日志与计数后
// 截断返回已累积的部分数据，错误不会向调用方传播。数据是否足以支撑一次
// 模拟由上层依据索引内容判断。
type Fetcher struct {
	source   market.KlineSource
	pageSize int
	limiter  *rate.Limiter

	statsMu sync.Mutex
	stats   FetchStats
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("kline source is required")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	perSec := rate.Limit(float64(cfg.RateLimitPerMin) / 60.0)
	if cfg.RateLimitPerMin <= 0 {
		perSec = 8
	}
	return &Fetcher{
		source:   cfg.Source,
		pageSize: pageSize,
		limiter:  rate.NewLimiter(perSec, 1),
	}, nil
}

// Fetch 从 StartMS 开始逐页拉取，直到窗口耗尽或上游出错。
//
// 每页之后：返回条数小于页大小视为窗口取完；否则游标推进到最后一根
// K 线的开盘时间加一个粒度步长，仅当新游标仍小于 EndMS 时继续。
// 页与页之间通过限速器等待，礼让上游限流。
func (f *Fetcher) Fetch(ctx context.Context, q Query) []market.Candle {
	q = q.Normalize()
	iv, err := ParseInterval(q.Interval)
	if err != nil {
		f.recordTruncate(err)
		return nil
	}
	if q.StartMS > q.EndMS {
		f.recordTruncate(fmt.Errorf("start after end for %s", q))
		return nil
	}

	var out []market.Candle
	cursor := q.StartMS
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			f.recordTruncate(err)
			logger.Warnf("[series] fetch %s interrupted: %v", q, err)
			return out
		}
		batch, err := f.source.FetchKlines(ctx, market.KlineRequest{
			Symbol:   q.Symbol,
			Interval: q.Interval,
			Start:    cursor,
			End:      q.EndMS,
			Limit:    f.pageSize,
		})
		if err != nil {
			f.recordTruncate(err)
			logger.Warnf("[series] fetch %s truncated at %d records: %v", q, len(out), err)
			return out
		}
		f.recordPage(len(batch))
		if len(batch) == 0 {
			return out
		}
		out = append(out, batch...)
		if len(batch) < f.pageSize {
			return out
		}
		cursor = batch[len(batch)-1].OpenTime + iv.StepMillis()
		if cursor >= q.EndMS {
			return out
		}
	}
}

// Stats 返回拉取计数快照。
func (f *Fetcher) Stats() FetchStats {
	f.statsMu.Lock()
	defer f.statsMu.Unlock()
	return f.stats
}

func (f *Fetcher) recordPage(records int) {
	f.statsMu.Lock()
	f.stats.Pages++
	f.stats.Records += records
	f.statsMu.Unlock()
}

func (f *Fetcher) recordTruncate(err error) {
	f.statsMu.Lock()
	f.stats.Truncated++
	if err != nil {
		f.stats.LastError = err.Error()
	}
	f.statsMu.Unlock()
}
