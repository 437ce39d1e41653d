package forexfactory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pulse/internal/application/port"
	"pulse/internal/domain/model"
)

// Client scrapes the public economic calendar page.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://www.forexfactory.com"
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Events fetches the calendar page and resolves each row's time against day.
func (c *Client) Events(ctx context.Context, day time.Time) ([]model.EconomicEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/calendar", nil)
	if err != nil {
		return nil, err
	}
	// the page serves a challenge to non-browser agents
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

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
		return nil, fmt.Errorf("calendar page error: %d", resp.StatusCode)
	}

	return ParseCalendar(body, day)
}

var _ port.CalendarSource = (*Client)(nil)
