// Package bigquery implements the query.Engine contract on BigQuery jobs.
package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"spendwatch/internal/query"
)

// Engine runs queries as BigQuery jobs. Job states map onto the generic
// state set: Pending is QUEUED, Running is RUNNING, Done splits into
// SUCCEEDED or FAILED on the job error.
type Engine struct {
	client        *bigquery.Client
	dataset       string
	resultDataset string
}

// NewEngine creates an engine over the given project and default dataset.
// resultDataset, when non-empty, names the dataset that staging tables for
// query results are written into.
func NewEngine(ctx context.Context, projectID, dataset, resultDataset string) (*Engine, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Engine{client: client, dataset: dataset, resultDataset: resultDataset}, nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}

// Submit starts the query and returns the job ID.
func (e *Engine) Submit(ctx context.Context, sql string, params []query.Parameter) (string, error) {
	q := e.client.Query(sql)
	q.DefaultDatasetID = e.dataset
	for _, p := range params {
		q.Parameters = append(q.Parameters, bigquery.QueryParameter{Name: p.Name, Value: p.Value})
	}
	if e.resultDataset != "" {
		table := "results_" + strings.ReplaceAll(uuid.NewString(), "-", "_")
		q.Dst = e.client.Dataset(e.resultDataset).Table(table)
	}

	job, err := q.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("submit query: %w", err)
	}
	return job.ID(), nil
}

// Poll reports the job's status.
func (e *Engine) Poll(ctx context.Context, executionID string) (query.Status, error) {
	job, err := e.client.JobFromID(ctx, executionID)
	if err != nil {
		return query.Status{}, fmt.Errorf("look up job %s: %w", executionID, err)
	}
	status, err := job.Status(ctx)
	if err != nil {
		return query.Status{}, fmt.Errorf("job %s status: %w", executionID, err)
	}

	switch status.State {
	case bigquery.Pending:
		return query.Status{State: query.StateQueued}, nil
	case bigquery.Running:
		return query.Status{State: query.StateRunning}, nil
	case bigquery.Done:
		if err := status.Err(); err != nil {
			return query.Status{State: query.StateFailed, Reason: err.Error()}, nil
		}
		return query.Status{State: query.StateSucceeded}, nil
	default:
		return query.Status{State: query.StateQueued}, nil
	}
}

// Results reads all rows of a completed job, formatting every cell as a
// string the way the report generator consumes them.
func (e *Engine) Results(ctx context.Context, executionID string) ([][]string, error) {
	job, err := e.client.JobFromID(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("look up job %s: %w", executionID, err)
	}
	it, err := job.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read job %s results: %w", executionID, err)
	}

	var rows [][]string
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate job %s results: %w", executionID, err)
		}

		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatValue(v bigquery.Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case civil.Date:
		return t.String()
	case civil.Time:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
