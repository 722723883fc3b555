// Package pipeline drives ingestion: it turns inbound storage notifications
// into stored transaction records and high-value alerts.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"spendwatch/internal/alert"
	"spendwatch/internal/dates"
	"spendwatch/internal/domain"
	"spendwatch/internal/email"
	"spendwatch/internal/events"
	"spendwatch/internal/gcs"
	"spendwatch/internal/store"
)

// Pipeline processes batches of storage-change notifications. Each run is
// stateless: everything it persists goes through the record writer.
type Pipeline struct {
	objects    store.ObjectStore
	records    *store.RecordWriter
	alerts     *alert.Dispatcher
	extractor  *email.Extractor
	normalizer *dates.Normalizer
	log        zerolog.Logger
}

func New(objects store.ObjectStore, records *store.RecordWriter, alerts *alert.Dispatcher, extractor *email.Extractor, normalizer *dates.Normalizer, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		objects:    objects,
		records:    records,
		alerts:     alerts,
		extractor:  extractor,
		normalizer: normalizer,
		log:        log,
	}
}

// ProcessBatch handles one batch of queue messages sequentially. A failure on
// one message is logged and never stops the rest of the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, messages [][]byte) {
	for _, body := range messages {
		if err := p.processMessage(ctx, body); err != nil {
			p.log.Error().Err(err).Msg("Error processing notification")
		}
	}
}

func (p *Pipeline) processMessage(ctx context.Context, body []byte) error {
	env, err := events.Decode(body)
	if err != nil {
		return err
	}

	bucket, object, ok := env.ObjectCreated()
	if !ok {
		p.log.Debug().Str("event_type", env.Message.Attributes.EventType).
			Msg("Skipping notification that is not an object create")
		return nil
	}

	return p.ProcessObject(ctx, bucket, object)
}

// ProcessObject ingests a single email object: fetch, extract, normalize,
// write the record, dispatch the high-value alert. An email that yields no
// transaction is logged and skipped, not an error; there is no retry and
// nothing is persisted for it.
func (p *Pipeline) ProcessObject(ctx context.Context, bucket, object string) error {
	raw, err := p.objects.Get(ctx, bucket, object)
	if err != nil {
		return fmt.Errorf("fetch email %s/%s: %w", bucket, object, err)
	}
	content := strings.ToValidUTF8(string(raw), string(utf8.RuneError))

	msg, err := email.Parse(content)
	if err != nil {
		return fmt.Errorf("parse email %s: %w", object, err)
	}

	extraction, err := p.extractor.Extract(msg)
	if err != nil {
		p.log.Warn().Str("object", object).Err(err).
			Msg("Could not extract transaction data from email")
		return nil
	}

	ts := p.normalizer.Normalize(msg.DateHeader)
	rec := domain.TransactionRecord{
		Date:        civil.DateOf(ts),
		Time:        domain.ClockOf(ts),
		Merchant:    extraction.Merchant,
		Amount:      extraction.Amount,
		EmailSource: gcs.URI(bucket, object),
	}

	key, err := p.records.Write(ctx, rec)
	if err != nil {
		return err
	}

	p.log.Info().Str("key", key).Str("merchant", rec.Merchant).
		Str("amount", rec.Amount.StringFixed(2)).Msg("Successfully processed transaction")

	p.alerts.Dispatch(ctx, rec)
	return nil
}
