package domain

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func TestTransactionRecord_MarshalJSON(t *testing.T) {
	rec := TransactionRecord{
		Date:        civil.Date{Year: 2024, Month: time.January, Day: 1},
		Time:        civil.Time{Hour: 10, Minute: 0, Second: 0},
		Merchant:    "Example Store",
		Amount:      decimal.RequireFromString("42.50"),
		EmailSource: "gs://inbox/emails/abc.eml",
	}

	got, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"date":"2024-01-01","time":"10:00:00","merchant":"Example Store","amount":42.5,"email_source":"gs://inbox/emails/abc.eml"}`
	if string(got) != want {
		t.Errorf("marshal mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestMonthKey(t *testing.T) {
	tests := []struct {
		date civil.Date
		want string
	}{
		{civil.Date{Year: 2024, Month: time.January, Day: 15}, "2024-01"},
		{civil.Date{Year: 2023, Month: time.December, Day: 31}, "2023-12"},
		{civil.Date{Year: 2024, Month: time.October, Day: 1}, "2024-10"},
	}

	for _, tt := range tests {
		if got := MonthKey(tt.date); got != tt.want {
			t.Errorf("MonthKey(%v) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestClockOf_DropsSubSecond(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 5, 7, 123456789, time.UTC)
	got := ClockOf(ts)
	want := civil.Time{Hour: 9, Minute: 5, Second: 7}
	if got != want {
		t.Errorf("ClockOf = %v, want %v", got, want)
	}
}
