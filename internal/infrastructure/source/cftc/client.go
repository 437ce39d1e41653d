package cftc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pulse/internal/application/port"
	"pulse/internal/domain/model"
)

// Client downloads the weekly financial futures COT report.
type Client struct {
	baseURL string
	client  *http.Client
	symbols map[string]string // report instrument name -> dashboard symbol
}

func NewClient(baseURL string, symbols map[string]string) *Client {
	if baseURL == "" {
		baseURL = "https://www.cftc.gov"
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second, // the report file is a few hundred KB
		},
		symbols: symbols,
	}
}

// WeeklyReport fetches and parses the current report.
func (c *Client) WeeklyReport(ctx context.Context) ([]model.CotRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dea/newcot/FinFutWk.txt", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cot report error: %d", resp.StatusCode)
	}

	return ParseReport(body, c.symbols), nil
}

var _ port.CotSource = (*Client)(nil)
