// Package dates localizes loosely formatted email timestamps into the
// reporting timezone.
package dates

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// layouts is the ordered list of known Date header shapes, tried in sequence.
// The zoneless layout parses as UTC, which is the assumption for headers that
// carry no timezone at all.
var layouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05",
}

// Normalizer converts free-form date strings into instants in a fixed
// reporting timezone. Parsing is fail-soft: a record stamped "now" beats a
// dropped transaction.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
	log zerolog.Logger
}

// New builds a Normalizer for the named civil timezone, e.g. "US/Pacific".
func New(timezone string, log zerolog.Logger) (*Normalizer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load reporting timezone %q: %w", timezone, err)
	}
	return &Normalizer{loc: loc, now: time.Now, log: log}, nil
}

// Normalize parses raw into an instant and converts it to the reporting
// timezone. An empty or unparsable input yields the current instant there.
func (n *Normalizer) Normalize(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return n.now().In(n.loc)
	}

	t, err := n.parse(raw)
	if err != nil {
		n.log.Error().Str("date", raw).Err(err).Msg("Error parsing date")
		return n.now().In(n.loc)
	}
	return t.In(n.loc)
}

// Location returns the reporting timezone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

func (n *Normalizer) parse(raw string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	// Permissive fallback for everything the fixed layouts reject.
	t, err := mail.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", raw, err)
	}
	return t, nil
}
