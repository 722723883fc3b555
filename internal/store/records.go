package store

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"spendwatch/internal/domain"
)

const recordPrefix = "data"

// PartitionKey returns the storage prefix for a record's local calendar date,
// e.g. "data/year=2024/month=01/day=01/". Records sharing a date land in the
// same partition for later bulk query.
func PartitionKey(d civil.Date) string {
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/", recordPrefix, d.Year, int(d.Month), d.Day)
}

// RecordWriter writes transaction records into date partitions. Every call
// produces exactly one new object under a fresh random name, so duplicate
// deliveries of the same email yield duplicate records rather than overwrites.
type RecordWriter struct {
	store  ObjectStore
	bucket string
	newID  func() string
}

func NewRecordWriter(store ObjectStore, bucket string) *RecordWriter {
	return &RecordWriter{
		store:  store,
		bucket: bucket,
		newID:  uuid.NewString,
	}
}

// Write persists one record and returns the key it was stored under.
func (w *RecordWriter) Write(ctx context.Context, rec domain.TransactionRecord) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	key := PartitionKey(rec.Date) + w.newID() + ".json"
	if err := w.store.Put(ctx, w.bucket, key, body, "application/json"); err != nil {
		return "", fmt.Errorf("write record %s: %w", key, err)
	}
	return key, nil
}
