package dca

import (
	"math"
	"time"

	"stacker/internal/series"

	"github.com/shopspring/decimal"
)

// Purchase 记录一次定投买入。
type Purchase struct {
	Key   series.TimeKey `json:"time_key"`
	Price float64        `json:"price"`
	Coins float64        `json:"coins"`
}

// Result 是一次模拟的完整结果：输入回显、逐笔买入与聚合指标。
type Result struct {
	Symbol          string    `json:"symbol"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Cadence         Cadence   `json:"cadence"`
	FeePercent      float64   `json:"fee_percent"`
	TotalInvestment float64   `json:"total_investment"`

	NumberOfInvestments int        `json:"number_of_investments"`
	AmountPerInvestment float64    `json:"amount_per_investment"`
	PurchaseHistory     []Purchase `json:"purchase_history"`
	TotalCoins          float64    `json:"total_coins_purchased"`
	AvgPurchasePrice    float64    `json:"avg_purchase_price"`
	CurrentPrice        float64    `json:"current_price"`
	PortfolioValue      float64    `json:"current_portfolio_value"`
	ROIPercent          float64    `json:"roi_percent"`
	LumpSumROI          float64    `json:"lump_sum_roi"`

	Annualized        bool    `json:"annualized"`
	AnnualizedDCA     float64 `json:"annualized_dca,omitempty"`
	AnnualizedLumpSum float64 `json:"annualized_lump_sum,omitempty"`
}

// SimulationInput 是模拟器的全部输入；索引与最新价由上层准备好，
// 模拟本身不做任何网络请求。
type SimulationInput struct {
	TotalInvestment float64
	Symbol          string
	Start           time.Time
	End             time.Time
	Cadence         Cadence
	FeePercent      float64
	Index           series.Index
	CurrentPrice    float64
	Annualize       bool
}

var decHundred = decimal.NewFromInt(100)

// Simulate 把买入计划与价格索引推演为定投结果。
//
// 金额按计划点等额拆分；每笔先扣手续费再折算币量，币量用 decimal 累加，
// 避免长计划下浮点误差放大。均价按投入加权：总投入 / 总币量，而不是
// 逐笔价格的简单平均。一次性买入基线以首个计划点价格买入全部净额，
// 与定投用同一口径计算 ROI。
func Simulate(in SimulationInput) (Result, error) {
	if in.Index.Empty() {
		return Result{}, &NoDataError{Symbol: in.Symbol, Reason: "no historical price data in window"}
	}
	schedule := GenerateSchedule(in.Start, in.End, in.Cadence, in.Index)
	if len(schedule) == 0 {
		return Result{}, &NoDataError{Symbol: in.Symbol, Reason: "no schedule point matched available prices"}
	}

	total := decimal.NewFromFloat(in.TotalInvestment)
	amount := total.Div(decimal.NewFromInt(int64(len(schedule))))
	feeFactor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(in.FeePercent).Div(decHundred))
	net := amount.Mul(feeFactor)

	history := make([]Purchase, 0, len(schedule))
	totalCoins := decimal.Zero
	for _, key := range schedule {
		price, _ := in.Index.Price(key)
		coins := net.Div(decimal.NewFromFloat(price))
		totalCoins = totalCoins.Add(coins)
		history = append(history, Purchase{Key: key, Price: price, Coins: coins.InexactFloat64()})
	}

	avgPrice := total.Div(totalCoins)
	current := decimal.NewFromFloat(in.CurrentPrice)
	portfolio := current.Mul(totalCoins)

	firstPrice, _ := in.Index.Price(schedule[0])
	lumpCoins := total.Mul(feeFactor).Div(decimal.NewFromFloat(firstPrice))
	lumpValue := lumpCoins.Mul(current)

	res := Result{
		Symbol:              in.Symbol,
		Start:               in.Start,
		End:                 in.End,
		Cadence:             in.Cadence,
		FeePercent:          in.FeePercent,
		TotalInvestment:     in.TotalInvestment,
		NumberOfInvestments: len(schedule),
		AmountPerInvestment: amount.InexactFloat64(),
		PurchaseHistory:     history,
		TotalCoins:          totalCoins.InexactFloat64(),
		AvgPurchasePrice:    avgPrice.InexactFloat64(),
		CurrentPrice:        in.CurrentPrice,
		PortfolioValue:      portfolio.InexactFloat64(),
		ROIPercent:          roiPercent(portfolio, total),
		LumpSumROI:          roiPercent(lumpValue, total),
	}

	if in.Annualize {
		res.Annualized = true
		days := elapsedDays(schedule[0], in.End)
		res.AnnualizedDCA = annualize(res.ROIPercent, portfolio.InexactFloat64(), in.TotalInvestment, days)
		res.AnnualizedLumpSum = annualize(res.LumpSumROI, lumpValue.InexactFloat64(), in.TotalInvestment, days)
	}
	return res, nil
}

func roiPercent(value, invested decimal.Decimal) float64 {
	return value.Div(invested).Sub(decimal.NewFromInt(1)).Mul(decHundred).InexactFloat64()
}

// elapsedDays 返回首个计划点到窗口结束的整天数。
func elapsedDays(first series.TimeKey, end time.Time) int {
	firstTime, err := first.Time()
	if err != nil {
		return 0
	}
	firstDay := firstTime.UTC().Truncate(24 * time.Hour)
	endDay := end.UTC().Truncate(24 * time.Hour)
	return int(endDay.Sub(firstDay).Hours() / 24)
}

// annualize 把已实现的增长因子折算为 365 天复利。不足一天时复利无意义，
// 直接回落为普通 ROI。
func annualize(plainROI, value, invested float64, totalDays int) float64 {
	if totalDays < 1 {
		return plainROI
	}
	growth := value / invested
	return (math.Pow(growth, 365.0/float64(totalDays)) - 1) * 100
}
