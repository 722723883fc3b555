package email

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// fallbackPattern is the looser second attempt: a dollar amount somewhere
// before "at" or "to" and an alphanumeric merchant token run.
const fallbackPattern = `\$([0-9.]+).*?(?:at|to) ([A-Za-z0-9\s*]+)`

// Extraction is the all-or-nothing result of a successful extraction: both
// fields populated, amount non-negative.
type Extraction struct {
	Merchant string
	Amount   decimal.Decimal
}

// Extractor applies an ordered list of patterns to an email body: the
// configurable primary pattern first, then the fixed fallback.
type Extractor struct {
	primary  *regexp.Regexp
	fallback *regexp.Regexp
}

// NewExtractor compiles the primary pattern. The pattern must capture the
// amount (group 1, digits and dots) and the merchant (group 2).
func NewExtractor(primaryPattern string) (*Extractor, error) {
	primary, err := regexp.Compile(primaryPattern)
	if err != nil {
		return nil, fmt.Errorf("compile amount/merchant pattern: %w", err)
	}
	return &Extractor{
		primary:  primary,
		fallback: regexp.MustCompile(fallbackPattern),
	}, nil
}

// Extract recovers the merchant and amount from a parsed message. It fails
// with ErrNoTextContent when there is no body to search, and with
// ErrNoTransactionFound when neither pattern yields a usable match.
func (e *Extractor) Extract(msg *Message) (Extraction, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return Extraction{}, ErrNoTextContent
	}

	for _, pattern := range []*regexp.Regexp{e.primary, e.fallback} {
		m := pattern.FindStringSubmatch(msg.Body)
		if len(m) < 3 {
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimPrefix(m[1], "$"))
		if err != nil || amount.IsNegative() {
			continue
		}
		merchant := strings.TrimSpace(m[2])
		if merchant == "" {
			continue
		}
		return Extraction{Merchant: merchant, Amount: amount}, nil
	}

	return Extraction{}, ErrNoTransactionFound
}
