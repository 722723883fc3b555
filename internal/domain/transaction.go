package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionRecord is one normalized transaction extracted from an alert
// email. Records are immutable after write and identified by the random
// object name the writer assigns; this package never updates or deletes them.
type TransactionRecord struct {
	Date        civil.Date
	Time        civil.Time
	Merchant    string
	Amount      decimal.Decimal
	EmailSource string
}

// MarshalJSON emits the stored record layout. The amount is written as a bare
// JSON number, which decimal.Decimal would otherwise quote.
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Date        string      `json:"date"`
		Time        string      `json:"time"`
		Merchant    string      `json:"merchant"`
		Amount      json.Number `json:"amount"`
		EmailSource string      `json:"email_source"`
	}{
		Date:        r.Date.String(),
		Time:        r.Time.String(),
		Merchant:    r.Merchant,
		Amount:      json.Number(r.Amount.String()),
		EmailSource: r.EmailSource,
	})
}

// MonthKey returns the year-month aggregate key for a calendar date,
// e.g. "2024-01".
func MonthKey(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// ClockOf truncates a timestamp to a wall-clock time of day with second
// precision, the granularity stored records carry.
func ClockOf(t time.Time) civil.Time {
	return civil.Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}
