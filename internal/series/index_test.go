package series

import (
	"testing"
	"time"

	"stacker/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candleAt(t time.Time, close float64) market.Candle {
	return market.Candle{
		OpenTime:  t.UnixMilli(),
		CloseTime: t.Add(time.Hour).UnixMilli() - 1,
		Open:      close,
		High:      close,
		Low:       close,
		Close:     close,
	}
}

func TestBuildIndex(t *testing.T) {
	daily, err := ParseInterval("1d")
	require.NoError(t, err)

	t.Run("daily keys by close price", func(t *testing.T) {
		records := []market.Candle{
			candleAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100),
			candleAt(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 110),
		}
		ix := BuildIndex(records, daily)
		assert.Len(t, ix, 2)
		price, ok := ix.Price("2024-01-02")
		assert.True(t, ok)
		assert.Equal(t, 110.0, price)
	})

	t.Run("duplicate keys last write wins", func(t *testing.T) {
		day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		ix := BuildIndex([]market.Candle{candleAt(day, 100), candleAt(day, 105)}, daily)
		price, _ := ix.Price("2024-01-01")
		assert.Equal(t, 105.0, price)
		assert.Len(t, ix, 1)
	})

	t.Run("hourly keys keep the hour", func(t *testing.T) {
		hourly, err := ParseInterval("1h")
		require.NoError(t, err)
		ix := BuildIndex([]market.Candle{
			candleAt(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), 42),
		}, hourly)
		price, ok := ix.Price("2024-01-01 09")
		assert.True(t, ok)
		assert.Equal(t, 42.0, price)
	})

	t.Run("non-positive close is dropped", func(t *testing.T) {
		ix := BuildIndex([]market.Candle{
			candleAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0),
			candleAt(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), -5),
			candleAt(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 100),
		}, daily)
		assert.Len(t, ix, 1)
		_, ok := ix.Price("2024-01-01")
		assert.False(t, ok)
	})

	t.Run("empty input yields empty index", func(t *testing.T) {
		ix := BuildIndex(nil, daily)
		assert.True(t, ix.Empty())
		_, ok := ix.Price("2024-01-01")
		assert.False(t, ok)
	})
}
