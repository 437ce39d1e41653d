package cftc

import (
	"strconv"
	"strings"
	"time"

	"pulse/internal/domain/model"
)

// Positional fields of the comma-delimited report. One header line, then one
// line per instrument with quoted fields.
const (
	fieldMarketName   = 0
	fieldReportDate   = 2
	fieldCommLong     = 5
	fieldCommShort    = 6
	fieldNonCommLong  = 7
	fieldNonCommShort = 8

	minFields = 15
)

// ParseReport converts the raw report into COT records, two per instrument
// line (commercial and non_commercial). Lines are skipped when they are too
// short, carry an unparseable report date, or name an instrument absent from
// the symbols table. Missing numeric fields count as zero.
func ParseReport(raw []byte, symbols map[string]string) []model.CotRecord {
	var records []model.CotRecord

	lines := strings.Split(string(raw), "\n")
	for i, line := range lines {
		if i == 0 { // header
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		for j, f := range fields {
			fields[j] = strings.TrimSpace(strings.ReplaceAll(f, `"`, ""))
		}
		if len(fields) < minFields {
			continue
		}

		reportDate, err := time.Parse("2006-01-02", fields[fieldReportDate])
		if err != nil {
			continue
		}

		symbol, ok := symbols[fields[fieldMarketName]]
		if !ok {
			continue
		}

		commLong := atoi(fields[fieldCommLong])
		commShort := atoi(fields[fieldCommShort])
		nonCommLong := atoi(fields[fieldNonCommLong])
		nonCommShort := atoi(fields[fieldNonCommShort])

		records = append(records,
			model.CotRecord{
				Symbol:         symbol,
				TraderType:     model.TraderCommercial,
				LongPositions:  commLong,
				ShortPositions: commShort,
				NetPositions:   commLong - commShort,
				ReportDate:     reportDate,
			},
			model.CotRecord{
				Symbol:         symbol,
				TraderType:     model.TraderNonCommercial,
				LongPositions:  nonCommLong,
				ShortPositions: nonCommShort,
				NetPositions:   nonCommLong - nonCommShort,
				ReportDate:     reportDate,
			},
		)
	}
	return records
}

func atoi(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
