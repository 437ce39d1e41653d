package forexfactory

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pulse/internal/domain/model"
)

// ParseCalendar extracts economic events from the calendar page markup.
// Rows missing both a title and a country are discarded. Each row's time
// text is resolved against base (the day the page was fetched for).
func ParseCalendar(raw []byte, base time.Time) ([]model.EconomicEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar markup: %w", err)
	}

	var events []model.EconomicEvent
	doc.Find(".calendar__row").Each(func(_ int, row *goquery.Selection) {
		title := strings.TrimSpace(row.Find(".calendar__event").Text())
		country := strings.TrimSpace(row.Find(".calendar__country").AttrOr("title", ""))
		if country == "" {
			country = strings.TrimSpace(row.Find(".calendar__country").Text())
		}
		if title == "" || country == "" {
			return
		}

		events = append(events, model.EconomicEvent{
			Country:   country,
			Title:     title,
			Impact:    classifyImpact(row.Find(".calendar__impact span").AttrOr("class", "")),
			Actual:    strings.TrimSpace(row.Find(".calendar__actual").Text()),
			Forecast:  strings.TrimSpace(row.Find(".calendar__forecast").Text()),
			Previous:  strings.TrimSpace(row.Find(".calendar__previous").Text()),
			EventTime: resolveEventTime(strings.TrimSpace(row.Find(".calendar__time").Text()), base),
		})
	})
	return events, nil
}

// classifyImpact reads the impact marker's style class. Anything that is not
// explicitly high or medium counts as low.
func classifyImpact(class string) model.Impact {
	switch {
	case strings.Contains(class, "high"):
		return model.ImpactHigh
	case strings.Contains(class, "medium"):
		return model.ImpactMedium
	default:
		return model.ImpactLow
	}
}

// resolveEventTime turns a row's time text ("2:30pm", "All Day", "") into an
// absolute time on base's date. All-day and empty markers map to midnight.
// 12-hour times convert with the noon/midnight boundary handled explicitly:
// 12pm stays 12, 12am becomes 0.
func resolveEventTime(text string, base time.Time) time.Time {
	midnight := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())

	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || strings.HasPrefix(text, "all day") {
		return midnight
	}

	var period string
	switch {
	case strings.HasSuffix(text, "am"):
		period = "am"
	case strings.HasSuffix(text, "pm"):
		period = "pm"
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(text, "am"), "pm"))

	clock := strings.SplitN(text, ":", 2)
	hour, err := strconv.Atoi(strings.TrimSpace(clock[0]))
	if err != nil {
		return midnight
	}
	minute := 0
	if len(clock) == 2 {
		minute, _ = strconv.Atoi(strings.TrimSpace(clock[1]))
	}

	if period == "pm" && hour != 12 {
		hour += 12
	} else if period == "am" && hour == 12 {
		hour = 0
	}

	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())
}
