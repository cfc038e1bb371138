package preset

import (
	"os"
	"path/filepath"
	"testing"

	"stacker/internal/dca"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const presetDoc = `presets:
  btc-weekly:
    description: BTC weekly for a year
    symbol: btcusdt
    every: 7
    unit: daily
    window_days: 365
    amount: 5200
    fee_percent: 0.1
    default: true
  eth-hourly:
    symbol: ETHUSDT
    every: 4
    unit: hourly
    window_days: 30
    amount: 600
  broken-no-symbol:
    every: 1
    unit: daily
  broken-unit:
    symbol: SOLUSDT
    every: 1
    unit: weekly
`

func writePresetFile(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestRegistryLoad(t *testing.T) {
	reg, err := NewRegistry(writePresetFile(t, presetDoc))
	require.NoError(t, err)

	t.Run("valid presets loaded, broken ones skipped", func(t *testing.T) {
		snap := reg.Snapshot()
		assert.Len(t, snap.Presets, 2)
		_, ok := snap.Presets["broken-no-symbol"]
		assert.False(t, ok)
		_, ok = snap.Presets["broken-unit"]
		assert.False(t, ok)
	})

	t.Run("symbol normalized to upper case", func(t *testing.T) {
		p, ok := reg.Preset("btc-weekly")
		require.True(t, ok)
		assert.Equal(t, "BTCUSDT", p.Symbol)
		assert.Equal(t, "btc-weekly", p.Name)
	})

	t.Run("cadence is structured", func(t *testing.T) {
		p, _ := reg.Preset("eth-hourly")
		cad, err := p.Cadence()
		require.NoError(t, err)
		assert.Equal(t, dca.Cadence{Every: 4, Unit: dca.UnitHourly}, cad)
	})

	t.Run("list puts default first", func(t *testing.T) {
		list := reg.List()
		require.Len(t, list, 2)
		assert.Equal(t, "btc-weekly", list[0].Name)
	})

	t.Run("missing preset", func(t *testing.T) {
		_, ok := reg.Preset("nope")
		assert.False(t, ok)
	})

	t.Run("yaml export round trips", func(t *testing.T) {
		doc, err := reg.ExportYAML()
		require.NoError(t, err)
		assert.Contains(t, string(doc), "btc-weekly")
		assert.Contains(t, string(doc), "BTCUSDT")
	})
}

func TestRegistryDefaultWindow(t *testing.T) {
	reg, err := NewRegistry(writePresetFile(t, `presets:
  sol-daily:
    symbol: SOLUSDT
    every: 1
    unit: daily
    amount: 100
`))
	require.NoError(t, err)
	p, ok := reg.Preset("sol-daily")
	require.True(t, ok)
	assert.Equal(t, 365, p.WindowDays)
}

func TestRegistryRequiresPath(t *testing.T) {
	_, err := NewRegistry("  ")
	assert.Error(t, err)

	_, err = NewRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
