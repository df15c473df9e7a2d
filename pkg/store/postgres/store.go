package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/cost-sentinel/pkg/models/store"
)

// ErrConnectivity marks failures of the connectivity probe; callers treat it
// as fatal to the persistence phase only.
var ErrConnectivity = errors.New("database connectivity check failed")

// Store persists monitoring output. All cost inserts use ON CONFLICT DO
// NOTHING on their natural business key, so re-running a window is safe.
type Store interface {
	TestConnectivity(ctx context.Context) bool
	InsertServiceCosts(ctx context.Context, records []store.ServiceCost) (int64, error)
	InsertRegionCosts(ctx context.Context, records []store.RegionCost) (int64, error)
	InsertRegionServiceCosts(ctx context.Context, records []store.RegionServiceCost) (int64, error)
	InsertTagCosts(ctx context.Context, records []store.TagCost) (int64, error)
	InsertLowUsage(ctx context.Context, records []store.LowUsageResource) (int64, error)
	InsertRun(ctx context.Context, run store.MonitoringRun) (int64, error)
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

type monitorStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &monitorStore{db: db}, nil
}

func (s *monitorStore) TestConnectivity(ctx context.Context) bool {
	logger := zerolog.Ctx(ctx)

	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		logger.Error().Err(err).Msg("connectivity probe failed")
		return false
	}
	return one == 1
}

func (s *monitorStore) InsertServiceCosts(ctx context.Context, records []store.ServiceCost) (int64, error) {
	query := `
		INSERT INTO azure_service_costs (date_period, service_name, cost_amount, month_label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date_period, service_name, month_label) DO NOTHING`

	return s.batchInsert(ctx, query, len(records), func(i int) []any {
		r := records[i]
		return []any{r.DatePeriod, r.ServiceName, r.CostAmount, r.MonthLabel}
	})
}

func (s *monitorStore) InsertRegionCosts(ctx context.Context, records []store.RegionCost) (int64, error) {
	query := `
		INSERT INTO azure_region_costs (date_period, region_name, cost_amount, month_label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date_period, region_name, month_label) DO NOTHING`

	return s.batchInsert(ctx, query, len(records), func(i int) []any {
		r := records[i]
		return []any{r.DatePeriod, r.RegionName, r.CostAmount, r.MonthLabel}
	})
}

func (s *monitorStore) InsertRegionServiceCosts(ctx context.Context, records []store.RegionServiceCost) (int64, error) {
	query := `
		INSERT INTO azure_region_service_costs (date_period, region_name, service_name, cost_amount, month_label)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date_period, region_name, service_name, month_label) DO NOTHING`

	return s.batchInsert(ctx, query, len(records), func(i int) []any {
		r := records[i]
		return []any{r.DatePeriod, r.RegionName, r.ServiceName, r.CostAmount, r.MonthLabel}
	})
}

func (s *monitorStore) InsertTagCosts(ctx context.Context, records []store.TagCost) (int64, error) {
	query := `
		INSERT INTO azure_tag_costs (date_period, month_label, tag_key, tag_value, cost_amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date_period, month_label, tag_key, tag_value) DO NOTHING`

	return s.batchInsert(ctx, query, len(records), func(i int) []any {
		r := records[i]
		return []any{r.DatePeriod, r.MonthLabel, r.TagKey, r.TagValue, r.CostAmount}
	})
}

func (s *monitorStore) InsertLowUsage(ctx context.Context, records []store.LowUsageResource) (int64, error) {
	query := `
		INSERT INTO azure_low_usage_resources (
			run_date, service_name, resource_id, resource_name, resource_region,
			metric_name, average_usage, threshold_value, unit, stat_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_date, resource_id, metric_name) DO NOTHING`

	return s.batchInsert(ctx, query, len(records), func(i int) []any {
		r := records[i]
		return []any{
			r.RunDate, r.ServiceName, r.ResourceID, r.ResourceName, r.ResourceRegion,
			r.MetricName, r.AverageUsage, r.ThresholdValue, r.Unit, r.StatType,
		}
	})
}

func (s *monitorStore) InsertRun(ctx context.Context, run store.MonitoringRun) (int64, error) {
	query := `
		INSERT INTO azure_cost_monitoring_runs (
			run_date, start_date, end_date, last_month_start, last_month_end,
			total_current_cost, total_last_month_cost, low_usage_count,
			execution_status, error_message, execution_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	errorMessage := sql.NullString{String: run.ErrorMessage, Valid: run.ErrorMessage != ""}

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		run.RunDate, run.StartDate, run.EndDate, run.LastMonthStart, run.LastMonthEnd,
		run.TotalCurrentCost, run.TotalLastMonthCost, run.LowUsageCount,
		run.ExecutionStatus, errorMessage, run.ExecutionTimeMS,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert monitoring run: %w", err)
	}
	return id, nil
}

// Cleanup deletes rows older than the retention cutoff from all data tables
// and returns the total removed.
func (s *monitorStore) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	logger := zerolog.Ctx(ctx)
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Format("2006-01-02")

	statements := []string{
		"DELETE FROM azure_service_costs WHERE date_period < $1",
		"DELETE FROM azure_region_costs WHERE date_period < $1",
		"DELETE FROM azure_region_service_costs WHERE date_period < $1",
		"DELETE FROM azure_tag_costs WHERE date_period < $1",
		"DELETE FROM azure_low_usage_resources WHERE run_date < $1",
	}

	var total int64
	for _, stmt := range statements {
		result, err := s.db.ExecContext(ctx, stmt, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleanup old data: %w", err)
		}
		deleted, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("cleanup old data: %w", err)
		}
		total += deleted
	}

	logger.Info().Int64("deleted", total).Str("cutoff", cutoff).Msg("retention cleanup complete")
	return total, nil
}

// batchInsert prepares the statement once and executes it per record,
// summing affected rows; conflicts count as zero, which keeps re-runs
// reporting only genuinely new rows.
func (s *monitorStore) batchInsert(ctx context.Context, query string, count int, args func(i int) []any) (int64, error) {
	if count == 0 {
		return 0, nil
	}

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i := 0; i < count; i++ {
		result, err := stmt.ExecContext(ctx, args(i)...)
		if err != nil {
			return inserted, fmt.Errorf("insert record: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("insert record: %w", err)
		}
		inserted += affected
	}

	zerolog.Ctx(ctx).Info().Int64("inserted", inserted).Int("batch", count).Msg("batch insert complete")
	return inserted, nil
}
