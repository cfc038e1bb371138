package app

import (
	"context"
	"fmt"
	"time"

	stkcfg "stacker/internal/config"
	"stacker/internal/dca"
	"stacker/internal/logger"
	dcahttp "stacker/internal/transport/http/dca"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 服务与缓存预热。
type App struct {
	cfg    *stkcfg.Config
	engine *dca.Engine
	http   *dcahttp.Server
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *stkcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return newBuilder(cfg).build()
}

// Run 启动 HTTP 服务；配置了预热时在后台预热历史序列缓存。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("[app] http listening on %s", a.cfg.App.HTTPAddr)
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if a.cfg.Preheat.Enabled && len(a.cfg.Preheat.Symbols) > 0 {
		group.Go(func() error {
			end := time.Now().UTC()
			start := end.AddDate(0, 0, -a.cfg.Preheat.WindowDays)
			a.engine.Preheat(ctx, a.cfg.Preheat.Symbols, start, end,
				dca.Cadence{Every: 1, Unit: dca.UnitDaily})
			return nil
		})
	}

	return group.Wait()
}

// Engine exposes the simulation engine (for testing/replay harnesses).
func (a *App) Engine() *dca.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}
