package leadqueue

import (
	"strings"
	"time"
)

// Callback timestamps in the sheet come in HH:MM, with some rows carrying
// seconds. Both layouts are accepted; anything else excludes the row.
var cbLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// EligibleLeads returns the rows an agent may claim, in sheet order. Data
// rows start at sheet row 2 (row 1 is the header), so rows[i] has sheet row
// index i+2.
//
// A row is eligible iff its Lock_Status cell is empty, its disposition is
// not terminal, and a CB disposition's callback time has already elapsed.
// Rows shorter than the header are padded with empty values first. A CB row
// whose callback timestamp is missing or malformed is treated as
// not-yet-ready, not as an error.
func EligibleLeads(header []string, rows [][]string, now time.Time) []Lead {
	eligible := make([]Lead, 0, len(rows))

	for i, row := range rows {
		fields := padRow(header, row)

		if strings.TrimSpace(fields[ColLockStatus]) != "" {
			continue
		}

		disposition := CanonicalDisposition(fields[ColDisposition])
		if terminal(disposition) {
			continue
		}

		if disposition == DispositionCB && !callbackDue(fields[ColCBDate], fields[ColCBTime], now) {
			continue
		}

		eligible = append(eligible, Lead{
			RowIndex: i + 2,
			Fields:   fields,
		})
	}

	return eligible
}

// padRow maps a raw row onto the header, filling missing trailing cells
// with empty strings.
func padRow(header, row []string) map[string]string {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if i < len(row) {
			fields[name] = row[i]
		} else {
			fields[name] = ""
		}
	}
	return fields
}

func callbackDue(date, clock string, now time.Time) bool {
	stamp := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	for _, layout := range cbLayouts {
		t, err := time.ParseInLocation(layout, stamp, now.Location())
		if err != nil {
			continue
		}
		return !t.After(now)
	}
	return false
}
