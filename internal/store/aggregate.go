package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const totalsPrefix = "monthly_totals"

// MonthlyTotals keeps one running spend total per calendar month, stored at
// monthly_totals/<YYYY-MM>.json. Accumulate is read-then-write against the
// object store with no conditional update: overlapping calls for the same
// month can lose an update (last-write-wins). The report schedule runs at
// most once per day, which is what keeps the total correct in practice.
type MonthlyTotals struct {
	store  ObjectStore
	bucket string
	log    zerolog.Logger
}

func NewMonthlyTotals(store ObjectStore, bucket string, log zerolog.Logger) *MonthlyTotals {
	return &MonthlyTotals{store: store, bucket: bucket, log: log}
}

type totalDoc struct {
	Total json.Number `json:"total"`
}

// Read returns the stored total for the month. An absent key means zero, and
// any other retrieval or decode failure also degrades to zero, logged, so a
// corrupt total can never block a report run.
func (m *MonthlyTotals) Read(ctx context.Context, monthKey string) decimal.Decimal {
	data, err := m.store.Get(ctx, m.bucket, totalsKey(monthKey))
	if err != nil {
		if !errors.Is(err, ErrObjectNotExist) {
			m.log.Error().Str("month", monthKey).Err(err).Msg("Error retrieving monthly total")
		}
		return decimal.Zero
	}

	var doc totalDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		m.log.Error().Str("month", monthKey).Err(err).Msg("Error decoding monthly total")
		return decimal.Zero
	}
	total, err := decimal.NewFromString(doc.Total.String())
	if err != nil {
		m.log.Error().Str("month", monthKey).Err(err).Msg("Error decoding monthly total")
		return decimal.Zero
	}
	return total
}

// Accumulate folds delta into the month's total and returns the new total.
// A persist failure is logged and reported as zero.
func (m *MonthlyTotals) Accumulate(ctx context.Context, monthKey string, delta decimal.Decimal) decimal.Decimal {
	total := m.Read(ctx, monthKey).Add(delta)

	body, err := json.Marshal(totalDoc{Total: json.Number(total.String())})
	if err != nil {
		m.log.Error().Str("month", monthKey).Err(err).Msg("Error encoding monthly total")
		return decimal.Zero
	}
	if err := m.store.Put(ctx, m.bucket, totalsKey(monthKey), body, "application/json"); err != nil {
		m.log.Error().Str("month", monthKey).Err(err).Msg("Error updating monthly total")
		return decimal.Zero
	}
	return total
}

func totalsKey(monthKey string) string {
	return fmt.Sprintf("%s/%s.json", totalsPrefix, monthKey)
}
