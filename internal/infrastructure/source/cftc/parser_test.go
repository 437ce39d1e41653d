package cftc

import (
	"strings"
	"testing"
	"time"

	"pulse/internal/domain/model"
)

var testSymbols = map[string]string{
	"EURO FX - CHICAGO MERCANTILE EXCHANGE": "EUR/USD",
	"GOLD - COMMODITY EXCHANGE INC.":        "Gold",
}

func reportLine(name, date string, fields ...string) string {
	row := make([]string, 15)
	row[fieldMarketName] = `"` + name + `"`
	row[fieldReportDate] = date
	for i := range row {
		if row[i] == "" {
			row[i] = "0"
		}
	}
	copy(row[fieldCommLong:], fields)
	return strings.Join(row, ",")
}

func TestParseReportNetPositions(t *testing.T) {
	raw := []byte(strings.Join([]string{
		"Market_and_Exchange_Names,As_of_Date_Mmm_DD_YYYY,Report_Date_as_YYYY-MM-DD,...",
		reportLine("EURO FX - CHICAGO MERCANTILE EXCHANGE", "2024-01-16", "1000", "400", "250", "700"),
	}, "\n"))

	records := ParseReport(raw, testSymbols)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	comm := records[0]
	if comm.TraderType != model.TraderCommercial {
		t.Fatalf("expected commercial first, got %s", comm.TraderType)
	}
	if comm.LongPositions != 1000 || comm.ShortPositions != 400 || comm.NetPositions != 600 {
		t.Errorf("unexpected commercial positions: %+v", comm)
	}

	nonComm := records[1]
	if nonComm.TraderType != model.TraderNonCommercial {
		t.Fatalf("expected non_commercial second, got %s", nonComm.TraderType)
	}
	if nonComm.NetPositions != -450 {
		t.Errorf("expected net -450, got %d", nonComm.NetPositions)
	}

	want := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	if !comm.ReportDate.Equal(want) {
		t.Errorf("expected report date %v, got %v", want, comm.ReportDate)
	}
	if comm.Symbol != "EUR/USD" {
		t.Errorf("expected symbol EUR/USD, got %s", comm.Symbol)
	}
}

func TestParseReportSkipsShortLines(t *testing.T) {
	raw := []byte(strings.Join([]string{
		"header",
		`"EURO FX - CHICAGO MERCANTILE EXCHANGE",x,2024-01-16,0,0,1000,400,250,700,0,0,0,0,0`, // 14 fields
	}, "\n"))

	if records := ParseReport(raw, testSymbols); len(records) != 0 {
		t.Errorf("expected no records from a 14-field line, got %d", len(records))
	}
}

func TestParseReportSkipsBadDateAndUnknownMarket(t *testing.T) {
	raw := []byte(strings.Join([]string{
		"header",
		reportLine("EURO FX - CHICAGO MERCANTILE EXCHANGE", "not-a-date", "10", "5", "3", "2"),
		reportLine("PORK BELLIES - SOMEWHERE", "2024-01-16", "10", "5", "3", "2"),
		reportLine("GOLD - COMMODITY EXCHANGE INC.", "2024-01-16", "10", "5", "3", "2"),
	}, "\n"))

	records := ParseReport(raw, testSymbols)
	if len(records) != 2 {
		t.Fatalf("expected only the gold line to parse, got %d records", len(records))
	}
	if records[0].Symbol != "Gold" {
		t.Errorf("expected Gold, got %s", records[0].Symbol)
	}
}

func TestParseReportMissingFieldsDefaultToZero(t *testing.T) {
	raw := []byte(strings.Join([]string{
		"header",
		reportLine("GOLD - COMMODITY EXCHANGE INC.", "2024-01-16", "", "", "100", ""),
	}, "\n"))

	records := ParseReport(raw, testSymbols)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].LongPositions != 0 || records[0].ShortPositions != 0 || records[0].NetPositions != 0 {
		t.Errorf("empty commercial fields should be zero: %+v", records[0])
	}
	if records[1].LongPositions != 100 || records[1].NetPositions != 100 {
		t.Errorf("unexpected non_commercial positions: %+v", records[1])
	}
}
