package rssfeed

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"pulse/internal/application/port"
	"pulse/internal/domain/model"
)

// Client reads RSS/Atom news feeds and classifies headline impact.
type Client struct {
	parser *gofeed.Parser
	high   []string
	medium []string
}

func NewClient(highKeywords, mediumKeywords []string) *Client {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 15 * time.Second}
	parser.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	return &Client{
		parser: parser,
		high:   highKeywords,
		medium: mediumKeywords,
	}
}

// Feed fetches one feed URL and returns its normalized items.
func (c *Client) Feed(ctx context.Context, url string) ([]model.NewsItem, error) {
	feed, err := c.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}
	return c.MapFeed(feed), nil
}

// MapFeed converts parsed feed items to news records. Items missing a title,
// a link, or a parseable publication date are dropped.
func (c *Client) MapFeed(feed *gofeed.Feed) []model.NewsItem {
	source := feed.Title
	if source == "" {
		source = "Unknown"
	}

	items := make([]model.NewsItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Title == "" || item.Link == "" || item.PublishedParsed == nil {
			continue
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		items = append(items, model.NewsItem{
			Headline:    item.Title,
			Summary:     summary,
			Source:      source,
			Link:        item.Link,
			PublishedAt: item.PublishedParsed.UTC(),
			Impact:      ClassifyImpact(item.Title, c.high, c.medium),
		})
	}
	return items
}

var _ port.NewsSource = (*Client)(nil)
