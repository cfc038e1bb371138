package preset

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"stacker/internal/dca"
	"stacker/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Preset 是一份可直接引用的模拟参数模板，供前端快捷发起常见计划
// （例如"BTC 每周定投一年"）。
type Preset struct {
	Name        string  `mapstructure:"-" yaml:"-" json:"name"`
	Description string  `mapstructure:"description" yaml:"description,omitempty" json:"description,omitempty"`
	Symbol      string  `mapstructure:"symbol" yaml:"symbol" json:"symbol"`
	Every       int     `mapstructure:"every" yaml:"every" json:"every"`
	Unit        string  `mapstructure:"unit" yaml:"unit" json:"unit"`
	WindowDays  int     `mapstructure:"window_days" yaml:"window_days" json:"window_days"`
	Amount      float64 `mapstructure:"amount" yaml:"amount" json:"amount"`
	FeePercent  float64 `mapstructure:"fee_percent" yaml:"fee_percent" json:"fee_percent"`
	Default     bool    `mapstructure:"default" yaml:"default,omitempty" json:"default,omitempty"`
}

// Cadence 返回模板对应的结构化节奏。
func (p Preset) Cadence() (dca.Cadence, error) {
	unit, err := dca.ParseUnit(p.Unit)
	if err != nil {
		return dca.Cadence{}, err
	}
	c := dca.Cadence{Every: p.Every, Unit: unit}
	return c, c.Validate()
}

// FileConfig 映射 presets 配置文件。
type FileConfig struct {
	Presets map[string]Preset `mapstructure:"presets"`
}

// Snapshot 公开的模板快照。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Presets  map[string]Preset
}

// Registry 管理模拟参数模板，配置文件变更时热重载。
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewRegistry 读取配置文件并监听更新。
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("preset registry requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read preset config failed: %w", err)
	}
	r := &Registry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("preset reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

func (r *Registry) reload() error {
	if err := r.v.ReadInConfig(); err != nil {
		return fmt.Errorf("re-read preset config failed: %w", err)
	}
	var fc FileConfig
	if err := r.v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("parse preset config failed: %w", err)
	}
	presets := make(map[string]Preset, len(fc.Presets))
	for name, p := range fc.Presets {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p.Name = name
		p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
		if p.Symbol == "" {
			logger.Warnf("preset %s skipped: symbol missing", name)
			continue
		}
		if _, err := p.Cadence(); err != nil {
			logger.Warnf("preset %s skipped: %v", name, err)
			continue
		}
		if p.WindowDays <= 0 {
			p.WindowDays = 365
		}
		presets[name] = p
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Presets:  presets,
	}
	r.mu.Unlock()
	logger.Infof("preset registry loaded %d presets from %s", len(presets), r.path)
	return nil
}

// Snapshot 返回当前模板集。
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := Snapshot{Version: r.snapshot.Version, LoadedAt: r.snapshot.LoadedAt}
	out.Presets = make(map[string]Preset, len(r.snapshot.Presets))
	for k, v := range r.snapshot.Presets {
		out.Presets[k] = v
	}
	return out
}

// Preset 返回指定名称的模板。
func (r *Registry) Preset(name string) (Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.snapshot.Presets[strings.TrimSpace(name)]
	return p, ok
}

// List 返回全部模板，按名称排序，default 模板排最前。
func (r *Registry) List() []Preset {
	snap := r.Snapshot()
	out := make([]Preset, 0, len(snap.Presets))
	for _, p := range snap.Presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Default != out[j].Default {
			return out[i].Default
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ExportYAML 以 YAML 形式导出当前模板集（调试与备份用途）。
func (r *Registry) ExportYAML() ([]byte, error) {
	snap := r.Snapshot()
	doc := map[string]map[string]Preset{"presets": snap.Presets}
	return yaml.Marshal(doc)
}
