package alert

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"spendwatch/internal/domain"
	"spendwatch/internal/logger"
)

type fakePublisher struct {
	topics   []string
	subjects []string
	bodies   []string
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, topic, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func record(amount string) domain.TransactionRecord {
	return domain.TransactionRecord{
		Date:     civil.Date{Year: 2024, Month: time.January, Day: 1},
		Time:     civil.Time{Hour: 10},
		Merchant: "Example Store",
		Amount:   decimal.RequireFromString(amount),
	}
}

func testLog() io.Writer { return &strings.Builder{} }

func TestDispatch_AboveThreshold(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, "high-value", decimal.NewFromInt(150), logger.NewWithWriter(testLog()))

	d.Dispatch(context.Background(), record("199.99"))

	if len(pub.subjects) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.subjects))
	}
	if pub.topics[0] != "high-value" {
		t.Errorf("topic = %q", pub.topics[0])
	}
	if pub.subjects[0] != "High Value Transaction Alert: $199.99" {
		t.Errorf("subject = %q", pub.subjects[0])
	}
	for _, want := range []string{
		`"transactionDate":"2024-01-01"`,
		`"transactionTime":"10:00:00"`,
		`"merchant":"Example Store"`,
		`"amount":199.99`,
		"High value transaction detected: $199.99 at Example Store",
	} {
		if !strings.Contains(pub.bodies[0], want) {
			t.Errorf("body missing %q: %s", want, pub.bodies[0])
		}
	}
}

func TestDispatch_AtOrBelowThresholdIsSilent(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, "high-value", decimal.NewFromInt(150), logger.NewWithWriter(testLog()))

	d.Dispatch(context.Background(), record("150"))
	d.Dispatch(context.Background(), record("42.50"))

	if len(pub.subjects) != 0 {
		t.Errorf("expected no publishes, got %d", len(pub.subjects))
	}
}

func TestDispatch_NoTopicIsNoop(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, "", decimal.NewFromInt(150), logger.NewWithWriter(testLog()))

	d.Dispatch(context.Background(), record("999"))

	if len(pub.subjects) != 0 {
		t.Errorf("expected no publishes, got %d", len(pub.subjects))
	}
}

func TestDispatch_DeliveryFailureDoesNotPropagate(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	d := NewDispatcher(pub, "high-value", decimal.NewFromInt(150), logger.NewWithWriter(testLog()))

	// Must not panic and has no error to return.
	d.Dispatch(context.Background(), record("999"))
}
