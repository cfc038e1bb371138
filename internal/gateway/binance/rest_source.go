package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stacker/internal/market"

	"github.com/tidwall/gjson"
)

// RESTSource 直连 Binance 现货 REST /api/v3/klines，不经 SDK。
// K 线响应是二维数组：索引 0 为开盘毫秒，索引 4 为收盘价（字符串）；
// 携带 code 字段的对象响应表示该页失败。
type RESTSource struct {
	baseURL string
	client  *http.Client
}

func NewRESTSource(base string, timeout time.Duration) *RESTSource {
	if base == "" {
		base = "https://api.binance.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTSource{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *RESTSource) Name() string { return "binance-rest" }

func (s *RESTSource) FetchKlines(ctx context.Context, req market.KlineRequest) ([]market.Candle, error) {
	if req.Symbol == "" || req.Interval == "" {
		return nil, fmt.Errorf("symbol/interval are required")
	}
	limit := req.Limit
	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(strings.TrimSpace(req.Symbol)))
	q.Set("interval", strings.ToLower(strings.TrimSpace(req.Interval)))
	q.Set("limit", strconv.Itoa(limit))
	if req.Start > 0 {
		q.Set("startTime", strconv.FormatInt(req.Start, 10))
	}
	if req.End > 0 {
		q.Set("endTime", strconv.FormatInt(req.End, 10))
	}
	body, err := s.get(ctx, "/api/v3/klines", q)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(body)
	if root.IsObject() {
		if code := root.Get("code"); code.Exists() {
			return nil, fmt.Errorf("binance error %s: %s", code.String(), root.Get("msg").String())
		}
		return nil, fmt.Errorf("unexpected kline response shape")
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("unexpected kline response shape")
	}
	var out []market.Candle
	for _, row := range root.Array() {
		cols := row.Array()
		if len(cols) < 7 {
			continue
		}
		// 收盘价必须可解析且为正；坏行视为整页失败，交给上层截断。
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(cols[4].String()), 64)
		if err != nil || closePrice <= 0 {
			return nil, fmt.Errorf("malformed close %q in kline at %d", cols[4].String(), cols[0].Int())
		}
		out = append(out, market.Candle{
			OpenTime:  cols[0].Int(),
			Open:      cols[1].Float(),
			High:      cols[2].Float(),
			Low:       cols[3].Float(),
			Close:     closePrice,
			Volume:    cols[5].Float(),
			CloseTime: cols[6].Int(),
		})
	}
	return out, nil
}

func (s *RESTSource) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	body, err := s.get(ctx, "/api/v3/ticker/price", q)
	if err != nil {
		return 0, err
	}
	price := gjson.GetBytes(body, "price")
	if !price.Exists() {
		if code := gjson.GetBytes(body, "code"); code.Exists() {
			return 0, fmt.Errorf("binance error %s: %s", code.String(), gjson.GetBytes(body, "msg").String())
		}
		return 0, fmt.Errorf("price field missing for %s", symbol)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(price.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed ticker price %q for %s", price.String(), symbol)
	}
	return value, nil
}

func (s *RESTSource) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		if code := gjson.GetBytes(body, "code"); code.Exists() {
			return nil, fmt.Errorf("binance error %s: %s", code.String(), gjson.GetBytes(body, "msg").String())
		}
		return nil, fmt.Errorf("binance status=%d", resp.StatusCode)
	}
	return body, nil
}
