package dca

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run 表示一次已完成的模拟及其编号。仅存于内存：跨重启的历史结果
// 持久化不在本服务范围内。
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Result    Result    `json:"result"`
}

// RunStore 保存进程生命周期内完成的模拟，供 HTTP 层查询与出图。
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]Run)}
}

// Add 录入一次完成的模拟并分配运行编号。
func (s *RunStore) Add(res Result) Run {
	run := Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Result:    res,
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	return run
}

// Get 返回指定编号的运行。
func (s *RunStore) Get(id string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// List 返回全部运行，按创建时间倒序。
func (s *RunStore) List() []Run {
	s.mu.RLock()
	out := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
