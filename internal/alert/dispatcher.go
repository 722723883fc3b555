// Package alert sends immediate notifications for transactions above the
// configured high-value threshold.
package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"spendwatch/internal/domain"
)

// Publisher delivers a notification to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic, subject, body string) error
}

// Dispatcher compares amounts against the threshold and publishes an alert
// for every exceedance. Without a configured topic it is a no-op.
type Dispatcher struct {
	publisher Publisher
	topic     string
	threshold decimal.Decimal
	log       zerolog.Logger
}

func NewDispatcher(publisher Publisher, topic string, threshold decimal.Decimal, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		topic:     topic,
		threshold: threshold,
		log:       log,
	}
}

type alertMessage struct {
	TransactionDate string      `json:"transactionDate"`
	TransactionTime string      `json:"transactionTime"`
	Merchant        string      `json:"merchant"`
	Amount          json.Number `json:"amount"`
	Message         string      `json:"message"`
}

// Dispatch publishes a high-value alert when the record's amount exceeds the
// threshold. A delivery failure is logged and never propagated: an undelivered
// alert must not abort the caller's processing of the record.
func (d *Dispatcher) Dispatch(ctx context.Context, rec domain.TransactionRecord) {
	if d.topic == "" || !rec.Amount.GreaterThan(d.threshold) {
		return
	}

	amount := rec.Amount.StringFixed(2)
	body, err := json.Marshal(alertMessage{
		TransactionDate: rec.Date.String(),
		TransactionTime: rec.Time.String(),
		Merchant:        rec.Merchant,
		Amount:          json.Number(rec.Amount.String()),
		Message:         fmt.Sprintf("High value transaction detected: $%s at %s", amount, rec.Merchant),
	})
	if err != nil {
		d.log.Error().Err(err).Msg("Failed to encode high value alert")
		return
	}

	subject := fmt.Sprintf("High Value Transaction Alert: $%s", amount)
	if err := d.publisher.Publish(ctx, d.topic, subject, string(body)); err != nil {
		d.log.Error().Err(err).Str("merchant", rec.Merchant).Str("amount", amount).
			Msg("Failed to send high value alert")
		return
	}

	d.log.Info().Str("amount", amount).Msg("Sent high value transaction alert")
}
