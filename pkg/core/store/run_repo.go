package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fleet_pricing/pkg/models"

	"github.com/jackc/pgx/v5"
)

// RunRepo handles storage of completed pricing runs.
type RunRepo struct{}

// NewRunRepo creates a new repository instance.
func NewRunRepo() *RunRepo {
	return &RunRepo{}
}

// RunRecord is one persisted pricing run: the request as received and the
// response as returned.
type RunRecord struct {
	RunID     string                  `json:"run_id"`
	Client    string                  `json:"client,omitempty"`
	Request   *models.PricingRequest  `json:"request"`
	Response  *models.PricingResponse `json:"response"`
	CreatedAt time.Time               `json:"created_at"`
}

// RunSummary is the list view of a run.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Client    string    `json:"client,omitempty"`
	FinalFee  float64   `json:"final_fee_per_vehicle_per_month"`
	NPV       float64   `json:"npv"`
	CreatedAt time.Time `json:"created_at"`
}

// Save persists a run, keyed by its run ID. It uses an upsert strategy so a
// re-priced run replaces its earlier result.
func (r *RunRepo) Save(ctx context.Context, client string, req *models.PricingRequest, resp *models.PricingResponse) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	respJSON, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	// Schema assumption:
	// CREATE TABLE IF NOT EXISTS pricing_runs (
	//   run_id UUID PRIMARY KEY,
	//   client TEXT,
	//   request_json JSONB,
	//   response_json JSONB,
	//   created_at TIMESTAMPTZ
	// );

	query := `
		INSERT INTO pricing_runs (run_id, client, request_json, response_json, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id)
		DO UPDATE SET
			client = EXCLUDED.client,
			request_json = EXCLUDED.request_json,
			response_json = EXCLUDED.response_json,
			created_at = EXCLUDED.created_at;
	`

	_, err = pool.Exec(ctx, query, resp.RunID, client, reqJSON, respJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save pricing run: %w", err)
	}

	return nil
}

// Load retrieves a run by ID.
func (r *RunRepo) Load(ctx context.Context, runID string) (*RunRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT client, request_json, response_json, created_at
		FROM pricing_runs WHERE run_id = $1
	`

	var (
		record   RunRecord
		reqJSON  []byte
		respJSON []byte
	)
	err := pool.QueryRow(ctx, query, runID).Scan(&record.Client, &reqJSON, &respJSON, &record.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no pricing run found for id %s", runID)
		}
		return nil, fmt.Errorf("failed to load pricing run: %w", err)
	}
	record.RunID = runID

	if err := json.Unmarshal(reqJSON, &record.Request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored request: %w", err)
	}
	if err := json.Unmarshal(respJSON, &record.Response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored response: %w", err)
	}

	return &record, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]RunSummary, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, client,
			COALESCE((response_json->'result'->>'final_fee_per_vehicle_per_month')::float8, 0),
			COALESCE((response_json->'result'->'npv_breakdown_at_base_fee'->>'npv')::float8, 0),
			created_at
		FROM pricing_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.Client, &s.FinalFee, &s.NPV, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pricing run row: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
