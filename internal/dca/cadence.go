package dca

import (
	"fmt"
	"strings"
)

// Unit 表示定投步进的单位。
type Unit string

const (
	UnitDaily  Unit = "daily"
	UnitHourly Unit = "hourly"
)

// Cadence 是结构化的定投节奏（单位 + 倍数）。自由文本的频率解析属于
// 会话前端，引擎只接受结构化值。
type Cadence struct {
	Every int  `json:"every"`
	Unit  Unit `json:"unit"`
}

// ParseUnit 归一化单位字符串。
func ParseUnit(input string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "daily", "day", "d":
		return UnitDaily, nil
	case "hourly", "hour", "h":
		return UnitHourly, nil
	default:
		return "", fmt.Errorf("unknown cadence unit: %q", input)
	}
}

// Validate 检查节奏值合法。
func (c Cadence) Validate() error {
	if c.Every <= 0 {
		return fmt.Errorf("cadence must be positive, got %d", c.Every)
	}
	switch c.Unit {
	case UnitDaily, UnitHourly:
		return nil
	default:
		return fmt.Errorf("unknown cadence unit: %q", c.Unit)
	}
}

// SourceInterval 返回该节奏对应的上游 K 线粒度：小时节奏用 1h，日节奏用 1d。
// 节奏倍数只影响步进，不影响底层数据粒度。
func (c Cadence) SourceInterval() string {
	if c.Unit == UnitHourly {
		return "1h"
	}
	return "1d"
}

func (c Cadence) String() string {
	return fmt.Sprintf("every %d %s", c.Every, c.Unit)
}
