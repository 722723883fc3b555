// Package report generates the prior day's spending report and folds its
// total into the running monthly aggregate.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"spendwatch/internal/domain"
	"spendwatch/internal/query"
	"spendwatch/internal/store"
)

// dailyQuery selects yesterday's records from the logical data relation in
// time order; the report inherits that ordering.
const dailyQuery = `SELECT date, time, merchant, amount FROM data WHERE date = @report_date ORDER BY time`

const (
	noTransactionsSubject = "Daily Spending Report: No Transactions"
	noTransactionsBody    = "No transactions found in the past 24 hours."
)

// Publisher delivers a notification to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic, subject, body string) error
}

// Generator runs one report per invocation: query yesterday's records, fold
// the daily total into the month, format and send. The run is terminal on
// first completion or first unrecoverable error; a failed query updates
// nothing and sends nothing.
type Generator struct {
	engine       query.Engine
	totals       *store.MonthlyTotals
	publisher    Publisher
	topic        string
	loc          *time.Location
	pollInterval time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

func NewGenerator(engine query.Engine, totals *store.MonthlyTotals, publisher Publisher, topic string, loc *time.Location, log zerolog.Logger) *Generator {
	return &Generator{
		engine:       engine,
		totals:       totals,
		publisher:    publisher,
		topic:        topic,
		loc:          loc,
		pollInterval: time.Second,
		now:          time.Now,
		log:          log,
	}
}

// Run executes the daily report for yesterday relative to the invocation
// time in the reporting timezone.
func (g *Generator) Run(ctx context.Context) error {
	yesterday := civil.DateOf(g.now().In(g.loc)).AddDays(-1)
	monthKey := domain.MonthKey(yesterday)

	executionID, err := g.engine.Submit(ctx, dailyQuery, []query.Parameter{
		{Name: "report_date", Value: yesterday.String()},
	})
	if err != nil {
		return fmt.Errorf("submit daily query: %w", err)
	}

	status, err := g.awaitQuery(ctx, executionID)
	if err != nil {
		return err
	}
	if status.State != query.StateSucceeded {
		g.log.Error().Str("execution_id", executionID).Str("state", string(status.State)).
			Str("reason", status.Reason).Msg("Daily query did not succeed")
		return fmt.Errorf("daily query %s ended %s: %s", executionID, status.State, status.Reason)
	}

	rows, err := g.engine.Results(ctx, executionID)
	if err != nil {
		return fmt.Errorf("fetch daily query results: %w", err)
	}

	lines, dailyTotal, err := foldRows(rows)
	if err != nil {
		return err
	}

	monthlyTotal := g.totals.Accumulate(ctx, monthKey, dailyTotal)

	if len(lines) == 0 {
		if err := g.publisher.Publish(ctx, g.topic, noTransactionsSubject, noTransactionsBody); err != nil {
			return fmt.Errorf("send report: %w", err)
		}
		g.log.Info().Msg("Sent daily spending report with no transactions")
		return nil
	}

	subject, body := formatReport(yesterday, lines, dailyTotal, monthlyTotal)
	if err := g.publisher.Publish(ctx, g.topic, subject, body); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	g.log.Info().Int("transactions", len(lines)).Str("daily_total", dailyTotal.StringFixed(2)).
		Msg("Sent daily spending report")
	return nil
}

// awaitQuery polls the execution with a fixed backoff until it reaches a
// terminal state. Query latency is seconds here, not the bottleneck, so no
// exponential backoff.
func (g *Generator) awaitQuery(ctx context.Context, executionID string) (query.Status, error) {
	for {
		status, err := g.engine.Poll(ctx, executionID)
		if err != nil {
			return query.Status{}, fmt.Errorf("poll daily query %s: %w", executionID, err)
		}
		if status.State.Terminal() {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return query.Status{}, ctx.Err()
		case <-time.After(g.pollInterval):
		}
	}
}

// foldRows renders each result row into a report line and sums the amounts.
// Rows are (date, time, merchant, amount) as string cells.
func foldRows(rows [][]string) ([]string, decimal.Decimal, error) {
	var lines []string
	total := decimal.Zero

	for i, row := range rows {
		if len(row) < 4 {
			return nil, decimal.Zero, fmt.Errorf("result row %d has %d columns, want 4", i, len(row))
		}
		amount, err := decimal.NewFromString(row[3])
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("result row %d amount %q: %w", i, row[3], err)
		}

		clock, err := time.Parse("15:04:05", row[1])
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("result row %d time %q: %w", i, row[1], err)
		}

		lines = append(lines, fmt.Sprintf("%s - $%s at %s",
			strings.ToLower(clock.Format("03:04PM")), amount.StringFixed(2), row[2]))
		total = total.Add(amount)
	}

	return lines, total, nil
}

func formatReport(day civil.Date, lines []string, dailyTotal, monthlyTotal decimal.Decimal) (subject, body string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily Spending Report for %s\n\n", day)
	b.WriteString("Transactions:\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nTotal Spent: $%s\n", dailyTotal.StringFixed(2))
	fmt.Fprintf(&b, "Total Spent This Month: $%s", monthlyTotal.StringFixed(2))

	subject = fmt.Sprintf("MTD $%s | D $%s – Daily Spending Report",
		monthlyTotal.Truncate(0), dailyTotal.Truncate(0))
	return subject, b.String()
}
