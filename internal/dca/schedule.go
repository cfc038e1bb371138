package dca

import (
	"time"

	"stacker/internal/series"
)

// GenerateSchedule 生成买入时间键序列：从 start 起按节奏纯算术步进，
// 仅保留索引中真实存在且价格为正的键。踩空即跳过，不吸附到相邻价格；
// 价格非正的键同样视为踩空，杜绝除零进入模拟。窗口内没有任何键命中时
// 返回空序列，由调用方定性为无数据。
func GenerateSchedule(start, end time.Time, c Cadence, index series.Index) []series.TimeKey {
	var schedule []series.TimeKey
	if c.Unit == UnitHourly {
		step := time.Duration(c.Every) * time.Hour
		for cur := start; !cur.After(end); cur = cur.Add(step) {
			key := series.HourKey(cur)
			if price, ok := index.Price(key); ok && price > 0 {
				schedule = append(schedule, key)
			}
		}
		return schedule
	}

	startDay := start.UTC().Truncate(24 * time.Hour)
	endDay := end.UTC().Truncate(24 * time.Hour)
	for cur := startDay; !cur.After(endDay); cur = cur.AddDate(0, 0, c.Every) {
		key := series.DayKey(cur)
		if price, ok := index.Price(key); ok && price > 0 {
			schedule = append(schedule, key)
		}
	}
	return schedule
}
