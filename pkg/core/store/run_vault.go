package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fleet_pricing/pkg/models"
)

// RunVault is hybrid storage for pricing runs: DB (primary) plus file
// system (fallback/local). With no database configured the CLI still keeps
// a local history under .cache/pricing_runs.
type RunVault struct {
	repo    *RunRepo
	fileDir string
}

// NewRunVault creates a vault. If no database pool is initialized and dir
// is empty, runs land in the default local cache directory.
func NewRunVault(dir string) *RunVault {
	if GetPool() == nil && dir == "" {
		dir = filepath.Join(".cache", "pricing_runs")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check RunVault dir: %v\n", err)
		}
	}
	return &RunVault{repo: NewRunRepo(), fileDir: dir}
}

// Save persists a run to whichever backends are configured. A file write
// failure is fatal only when no database took the record.
func (v *RunVault) Save(ctx context.Context, client string, req *models.PricingRequest, resp *models.PricingResponse) error {
	savedToDB := false
	if GetPool() != nil {
		if err := v.repo.Save(ctx, client, req, resp); err != nil {
			return err
		}
		savedToDB = true
	}

	if v.fileDir != "" {
		record := RunRecord{
			RunID:     resp.RunID,
			Client:    client,
			Request:   req,
			Response:  resp,
			CreatedAt: time.Now(),
		}
		fileBytes, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal run record: %w", err)
		}
		if err := os.WriteFile(v.runPath(resp.RunID), fileBytes, 0644); err != nil {
			if !savedToDB {
				return fmt.Errorf("failed to save run to file cache: %w", err)
			}
			fmt.Printf("[WARNING] File cache write failed for run %s: %v\n", resp.RunID, err)
		}
	}

	return nil
}

// Load retrieves a run by ID, trying the database first.
func (v *RunVault) Load(ctx context.Context, runID string) (*RunRecord, error) {
	if GetPool() != nil {
		return v.repo.Load(ctx, runID)
	}

	if v.fileDir != "" {
		return v.loadFromFile(v.runPath(runID))
	}

	return nil, fmt.Errorf("no storage backend configured")
}

// ListRecent returns recent run summaries, newest first.
func (v *RunVault) ListRecent(ctx context.Context, limit int) ([]RunSummary, error) {
	if GetPool() != nil {
		return v.repo.ListRecent(ctx, limit)
	}
	if v.fileDir == "" {
		return nil, fmt.Errorf("no storage backend configured")
	}
	if limit <= 0 {
		limit = 20
	}

	entries, err := os.ReadDir(v.fileDir)
	if err != nil {
		return nil, nil
	}

	var summaries []RunSummary
	for _, f := range entries {
		if filepath.Ext(f.Name()) != ".json" {
			continue
		}
		record, err := v.loadFromFile(filepath.Join(v.fileDir, f.Name()))
		if err != nil || record.Response == nil {
			continue
		}
		summaries = append(summaries, RunSummary{
			RunID:     record.RunID,
			Client:    record.Client,
			FinalFee:  record.Response.Result.FinalFee,
			NPV:       record.Response.Result.Breakdown.NPV,
			CreatedAt: record.CreatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (v *RunVault) runPath(runID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, runID)
	return filepath.Join(v.fileDir, safe+".json")
}

func (v *RunVault) loadFromFile(path string) (*RunRecord, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no pricing run found at %s", path)
	}
	var record RunRecord
	if err := json.Unmarshal(fileBytes, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &record, nil
}
