package yahoo

import (
	"encoding/json"
	"fmt"
	"time"

	"pulse/internal/domain/model"
)

// chartResponse mirrors the chart API payload: epoch timestamps with parallel
// OHLCV arrays. Quote fields are pointers because the API emits explicit
// nulls for indexes with no trade data.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []quote `json:"quote"`
	} `json:"indicators"`
}

type quote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ParseChart converts a raw chart payload into bars for symbol. Indexes where
// open, high, low, or close is null are dropped whole; a missing volume
// defaults to zero. Timeframe is stamped onto every bar as given.
func ParseChart(raw []byte, symbol, timeframe string) ([]model.PriceBar, error) {
	var payload chartResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding chart payload: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s %s", symbol, payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart result for %s", symbol)
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := result.Indicators.Quote[0]

	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open := at(q.Open, i)
		high := at(q.High, i)
		low := at(q.Low, i)
		closePx := at(q.Close, i)
		if open == nil || high == nil || low == nil || closePx == nil {
			continue
		}

		var volume float64
		if v := at(q.Volume, i); v != nil {
			volume = *v
		}

		bars = append(bars, model.PriceBar{
			Symbol:    symbol,
			Timeframe: timeframe,
			Open:      *open,
			High:      *high,
			Low:       *low,
			Close:     *closePx,
			Volume:    volume,
			Timestamp: time.Unix(ts, 0).UTC(),
		})
	}
	return bars, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
