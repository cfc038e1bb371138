package report

import (
	"bytes"
	"fmt"

	"stacker/internal/dca"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	talib "github.com/markcheno/go-talib"
)

const (
	chartWidth  = "1200px"
	chartHeight = "560px"

	smaPeriod = 5
)

// RenderPurchaseChart 将一次模拟的买入序列渲染为自包含的 HTML 折线图：
// 买入价曲线，叠加买入价的 SMA 以显示成本趋势。消费的唯一输入是
// purchase history，与文本报表解耦。
func RenderPurchaseChart(res dca.Result) ([]byte, error) {
	if len(res.PurchaseHistory) == 0 {
		return nil, fmt.Errorf("purchase history is empty")
	}

	xs := make([]string, 0, len(res.PurchaseHistory))
	prices := make([]float64, 0, len(res.PurchaseHistory))
	priceData := make([]opts.LineData, 0, len(res.PurchaseHistory))
	for _, p := range res.PurchaseHistory {
		xs = append(xs, string(p.Key))
		prices = append(prices, p.Price)
		priceData = append(priceData, opts.LineData{Value: p.Price})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:     types.ThemeWesteros,
			PageTitle: fmt.Sprintf("DCA %s", res.Symbol),
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("DCA purchase prices for %s", res.Symbol),
			Subtitle: fmt.Sprintf("%d buys, avg %.4f, ROI %.2f%%",
				res.NumberOfInvestments, res.AvgPurchasePrice, res.ROIPercent),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	line.SetXAxis(xs).AddSeries("purchase price", priceData,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	if sma := smaSeries(prices); sma != nil {
		line.AddSeries(fmt.Sprintf("SMA(%d)", smaPeriod), sma,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// smaSeries 计算买入价的简单均线；数据不足一个周期时不叠加。
func smaSeries(prices []float64) []opts.LineData {
	if len(prices) < smaPeriod {
		return nil
	}
	sma := talib.Sma(prices, smaPeriod)
	out := make([]opts.LineData, len(sma))
	for i, v := range sma {
		if i < smaPeriod-1 {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: v}
	}
	return out
}
