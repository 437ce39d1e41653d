package model

import "time"

// Impact classifies how market-moving an event or headline is.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// TraderType is the CFTC positioning category of a COT record.
type TraderType string

const (
	TraderCommercial    TraderType = "commercial"
	TraderNonCommercial TraderType = "non_commercial"
	TraderRetail        TraderType = "retail"
)

// PriceBar is one OHLCV candle. Natural key: (symbol, timeframe, timestamp).
// Bars are immutable once stored.
type PriceBar struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// EconomicEvent is one calendar row. Natural key: (title, eventTime).
// Actual/Forecast/Previous stay as the source's display strings ("0.2%", "1.2M").
type EconomicEvent struct {
	Country   string    `json:"country"`
	Title     string    `json:"title"`
	Impact    Impact    `json:"impact"`
	Actual    string    `json:"actual,omitempty"`
	Forecast  string    `json:"forecast,omitempty"`
	Previous  string    `json:"previous,omitempty"`
	EventTime time.Time `json:"eventTime"`
}

// CotRecord is one trader-type slice of a weekly COT report line.
// Natural key: (symbol, traderType, reportDate).
type CotRecord struct {
	Symbol         string     `json:"symbol"`
	TraderType     TraderType `json:"traderType"`
	LongPositions  int64      `json:"longPositions"`
	ShortPositions int64      `json:"shortPositions"`
	NetPositions   int64      `json:"netPositions"` // long - short
	ReportDate     time.Time  `json:"reportDate"`
}

// NewsItem is one feed entry. Natural key: link (links are canonical).
// Sentiment is left empty by ingestion; downstream analysis fills it.
type NewsItem struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"publishedAt"`
	Sentiment   string    `json:"sentiment,omitempty"`
	Impact      Impact    `json:"impact"`
}

// Source names one ingested data class, used for status and retention.
type Source string

const (
	SourcePrices Source = "prices"
	SourceEvents Source = "economicEvents"
	SourceCot    Source = "cotData"
	SourceNews   Source = "news"
)

// SourceStatus is the stored footprint of one source. LastUpdate is nil
// when nothing has been stored yet (or the source does not track it).
type SourceStatus struct {
	Count      int64      `json:"count"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
}

// DataStatus aggregates per-source counts and freshness for the status query.
type DataStatus struct {
	Prices         SourceStatus `json:"prices"`
	EconomicEvents SourceStatus `json:"economicEvents"`
	CotData        SourceStatus `json:"cotData"`
	News           SourceStatus `json:"news"`
}
