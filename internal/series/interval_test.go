package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	t.Run("daily", func(t *testing.T) {
		iv, err := ParseInterval("1d")
		require.NoError(t, err)
		assert.Equal(t, "1d", iv.Key)
		assert.False(t, iv.Hourly)
		assert.Equal(t, int64(24*60*60*1000), iv.StepMillis())
	})

	t.Run("hourly", func(t *testing.T) {
		iv, err := ParseInterval("4h")
		require.NoError(t, err)
		assert.True(t, iv.Hourly)
		assert.Equal(t, 4*time.Hour, iv.Step)
	})

	t.Run("normalizes case and space", func(t *testing.T) {
		iv, err := ParseInterval(" 1H ")
		require.NoError(t, err)
		assert.Equal(t, "1h", iv.Key)
	})

	t.Run("rejects unsupported", func(t *testing.T) {
		for _, bad := range []string{"", "15m", "0h", "-2h", "2d", "xh"} {
			_, err := ParseInterval(bad)
			assert.Error(t, err, bad)
		}
	})
}

func TestTimeKey(t *testing.T) {
	ts := time.Date(2024, 3, 7, 14, 35, 12, 0, time.UTC)

	t.Run("daily key truncates to UTC day", func(t *testing.T) {
		assert.Equal(t, TimeKey("2024-03-07"), DayKey(ts))
	})

	t.Run("hourly key keeps the hour", func(t *testing.T) {
		assert.Equal(t, TimeKey("2024-03-07 14"), HourKey(ts))
	})

	t.Run("non-utc input converted first", func(t *testing.T) {
		loc := time.FixedZone("UTC+8", 8*3600)
		local := time.Date(2024, 3, 8, 1, 0, 0, 0, loc) // 2024-03-07 17:00 UTC
		assert.Equal(t, TimeKey("2024-03-07"), DayKey(local))
		assert.Equal(t, TimeKey("2024-03-07 17"), HourKey(local))
	})

	t.Run("round trip", func(t *testing.T) {
		for _, key := range []TimeKey{"2024-03-07", "2024-03-07 14"} {
			parsed, err := key.Time()
			require.NoError(t, err)
			if parsed.Hour() > 0 {
				assert.Equal(t, key, HourKey(parsed))
			} else {
				assert.Equal(t, key, DayKey(parsed))
			}
		}
	})

	t.Run("string order is chronological", func(t *testing.T) {
		assert.True(t, TimeKey("2024-03-07 09") < TimeKey("2024-03-07 10"))
		assert.True(t, TimeKey("2024-02-29") < TimeKey("2024-03-01"))
	})
}

func TestIntervalKeyFor(t *testing.T) {
	open := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC).UnixMilli()

	daily, _ := ParseInterval("1d")
	assert.Equal(t, TimeKey("2024-05-01"), daily.KeyFor(open))

	hourly, _ := ParseInterval("1h")
	assert.Equal(t, TimeKey("2024-05-01 08"), hourly.KeyFor(open))
}

func TestQueryNormalizeAndValidate(t *testing.T) {
	q := Query{Symbol: " btcusdt ", StartMS: 1, EndMS: 2, Interval: "1D"}
	n := q.Normalize()
	assert.Equal(t, "BTCUSDT", n.Symbol)
	assert.Equal(t, "1d", n.Interval)
	assert.NoError(t, n.Validate())

	assert.Error(t, Query{Symbol: "", StartMS: 1, EndMS: 2, Interval: "1d"}.Validate())
	assert.Error(t, Query{Symbol: "BTCUSDT", StartMS: 3, EndMS: 2, Interval: "1d"}.Validate())
	assert.Error(t, Query{Symbol: "BTCUSDT", StartMS: 1, EndMS: 2, Interval: "1w"}.Validate())
}
