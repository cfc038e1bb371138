package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"stacker/internal/logger"
)

// TickerSource is the slice of KlineSource the price service depends on.
type TickerSource interface {
	TickerPrice(ctx context.Context, symbol string) (float64, error)
}

// PriceService fetches the latest market price for a symbol and memoizes it
// for the process lifetime. Staleness is an accepted trade-off: a simulation
// run compares historical purchases against "the price right now", and
// callers that need a fresher quote restart the process.
type PriceService struct {
	source TickerSource

	mu    sync.RWMutex
	cache map[string]float64
}

func NewPriceService(source TickerSource) (*PriceService, error) {
	if source == nil {
		return nil, errors.New("ticker source is required")
	}
	return &PriceService{source: source, cache: make(map[string]float64)}, nil
}

// Price returns the memoized latest price for symbol, fetching it on first use.
func (s *PriceService) Price(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, errors.New("symbol is required")
	}
	s.mu.RLock()
	price, ok := s.cache[symbol]
	s.mu.RUnlock()
	if ok {
		return price, nil
	}
	price, err := s.source.TickerPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("fetch current price for %s: %w", symbol, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("upstream returned non-positive price for %s", symbol)
	}
	s.mu.Lock()
	s.cache[symbol] = price
	s.mu.Unlock()
	logger.Debugf("[market] cached current price %s=%.8f", symbol, price)
	return price, nil
}

// Cached reports whether a price for symbol has already been memoized.
func (s *PriceService) Cached(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}
