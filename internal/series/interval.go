package series

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dayKeyLayout  = "2006-01-02"
	hourKeyLayout = "2006-01-02 15"
)

// Interval 描述受支持的 K 线粒度：小时粒度 "Nh"（N>=1）或日粒度 "1d"。
type Interval struct {
	Key    string
	Step   time.Duration
	Hourly bool
}

// ParseInterval 返回标准化粒度定义。
func ParseInterval(input string) (Interval, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	if key == "" {
		return Interval{}, fmt.Errorf("interval is required")
	}
	if key == "1d" {
		return Interval{Key: key, Step: 24 * time.Hour}, nil
	}
	if strings.HasSuffix(key, "h") {
		n, err := strconv.Atoi(strings.TrimSuffix(key, "h"))
		if err != nil || n <= 0 {
			return Interval{}, fmt.Errorf("unsupported interval: %s", input)
		}
		return Interval{Key: key, Step: time.Duration(n) * time.Hour, Hourly: true}, nil
	}
	return Interval{}, fmt.Errorf("unsupported interval: %s", input)
}

// StepMillis 返回翻页时游标前进的毫秒数。
func (iv Interval) StepMillis() int64 {
	return iv.Step.Milliseconds()
}

// KeyFor 将开盘时间截断为该粒度下的时间键（UTC）。
func (iv Interval) KeyFor(openTimeMS int64) TimeKey {
	t := time.UnixMilli(openTimeMS).UTC()
	if iv.Hourly {
		return HourKey(t)
	}
	return DayKey(t)
}

// TimeKey is the discretized time bucket aligning the purchase schedule to
// available price data: "2006-01-02" for daily data, "2006-01-02 15" for
// hourly. Both layouts sort chronologically as plain strings.
type TimeKey string

func DayKey(t time.Time) TimeKey {
	return TimeKey(t.UTC().Format(dayKeyLayout))
}

func HourKey(t time.Time) TimeKey {
	return TimeKey(t.UTC().Format(hourKeyLayout))
}

// Time parses the key back into a UTC time at the start of its bucket.
func (k TimeKey) Time() (time.Time, error) {
	s := string(k)
	if len(s) == len(hourKeyLayout) {
		return time.Parse(hourKeyLayout, s)
	}
	return time.Parse(dayKeyLayout, s)
}
