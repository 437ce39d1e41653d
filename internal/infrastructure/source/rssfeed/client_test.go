package rssfeed

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"pulse/internal/domain/model"
)

var (
	highKeywords   = []string{"fed", "inflation", "gdp", "employment", "rate", "crisis", "war"}
	mediumKeywords = []string{"earnings", "trade", "policy", "election", "bank"}
)

func TestClassifyImpact(t *testing.T) {
	tests := []struct {
		headline string
		want     model.Impact
	}{
		{"Fed signals rate hike amid inflation fears", model.ImpactHigh},
		{"Company X reports Q3 earnings", model.ImpactMedium},
		{"Local bakery wins award", model.ImpactLow},
		{"GDP growth slows in fourth quarter", model.ImpactHigh},
		{"Election outcome weighs on banks", model.ImpactMedium},
	}

	for _, tt := range tests {
		if got := ClassifyImpact(tt.headline, highKeywords, mediumKeywords); got != tt.want {
			t.Errorf("ClassifyImpact(%q) = %s, want %s", tt.headline, got, tt.want)
		}
	}
}

func TestMapFeedDropsIncompleteItems(t *testing.T) {
	published := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	feed := &gofeed.Feed{
		Title: "Example Markets",
		Items: []*gofeed.Item{
			{
				Title:           "Fed holds rates steady",
				Link:            "https://example.com/a",
				Description:     "The central bank left policy unchanged.",
				PublishedParsed: &published,
			},
			{Title: "", Link: "https://example.com/b", PublishedParsed: &published},
			{Title: "No link", Link: "", PublishedParsed: &published},
			{Title: "No date", Link: "https://example.com/c", PublishedParsed: nil},
		},
	}

	client := NewClient(highKeywords, mediumKeywords)
	items := client.MapFeed(feed)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Source != "Example Markets" {
		t.Errorf("expected feed title as source, got %q", item.Source)
	}
	if item.Impact != model.ImpactHigh {
		t.Errorf("expected high impact, got %s", item.Impact)
	}
	if item.Sentiment != "" {
		t.Errorf("ingestion must leave sentiment unset, got %q", item.Sentiment)
	}
	if !item.PublishedAt.Equal(published) {
		t.Errorf("expected published %v, got %v", published, item.PublishedAt)
	}
}

func TestMapFeedUnknownSource(t *testing.T) {
	published := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	feed := &gofeed.Feed{
		Items: []*gofeed.Item{
			{Title: "Trade talks resume", Link: "https://example.com/t", PublishedParsed: &published},
		},
	}

	client := NewClient(highKeywords, mediumKeywords)
	items := client.MapFeed(feed)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Source != "Unknown" {
		t.Errorf("expected Unknown source, got %q", items[0].Source)
	}
	if items[0].Impact != model.ImpactMedium {
		t.Errorf("expected medium impact, got %s", items[0].Impact)
	}
}
