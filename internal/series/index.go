package series

import "stacker/internal/market"

// Index 将时间键映射到对应 K 线的收盘价。构建后即不再修改。
type Index map[TimeKey]float64

// BuildIndex 按粒度把 K 线序列折叠为收盘价索引。键冲突时后者覆盖前者，
// 与上游的时间升序约定一致；分页正确时不应出现重复。收盘价非正的记录
// 一律丢弃，索引里只存可买入的价格。
func BuildIndex(records []market.Candle, iv Interval) Index {
	index := make(Index, len(records))
	for _, c := range records {
		if c.Close <= 0 {
			continue
		}
		index[iv.KeyFor(c.OpenTime)] = c.Close
	}
	return index
}

// Price 返回键对应的收盘价。
func (ix Index) Price(key TimeKey) (float64, bool) {
	price, ok := ix[key]
	return price, ok
}

// Empty reports whether the index holds no price points.
func (ix Index) Empty() bool {
	return len(ix) == 0
}
