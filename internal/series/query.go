package series

import (
	"fmt"
	"strings"
)

// Query 是历史序列的取数键：四个字段完全相等的两次请求视为同一查询。
type Query struct {
	Symbol   string
	StartMS  int64
	EndMS    int64
	Interval string
}

// Normalize 返回大小写与空白归一后的查询。
func (q Query) Normalize() Query {
	q.Symbol = strings.ToUpper(strings.TrimSpace(q.Symbol))
	q.Interval = strings.ToLower(strings.TrimSpace(q.Interval))
	return q
}

// Validate 在任何网络请求之前检查参数合法性。
func (q Query) Validate() error {
	if strings.TrimSpace(q.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if q.StartMS > q.EndMS {
		return fmt.Errorf("start %d is after end %d", q.StartMS, q.EndMS)
	}
	if _, err := ParseInterval(q.Interval); err != nil {
		return err
	}
	return nil
}

func (q Query) String() string {
	return fmt.Sprintf("%s@%s [%d,%d]", q.Symbol, q.Interval, q.StartMS, q.EndMS)
}
