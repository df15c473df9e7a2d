package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cost-sentinel/pkg/models/store"
)

type fixture struct {
	mock  sqlmock.Sqlmock
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	st, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return &fixture{mock: mock, store: st}
}

const serviceCostQuery = `
		INSERT INTO azure_service_costs (date_period, service_name, cost_amount, month_label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date_period, service_name, month_label) DO NOTHING`

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestInsertServiceCosts_InsertsEachRecord(t *testing.T) {
	f := setupFixture(t)

	prep := f.mock.ExpectPrepare(regexp.QuoteMeta(serviceCostQuery))
	prep.ExpectExec().
		WithArgs("2024-05-01", "Virtual Machines", 12.5, "current").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("2024-05-02", "Virtual Machines", 0.0, "current").
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := f.store.InsertServiceCosts(context.Background(), []store.ServiceCost{
		{DatePeriod: "2024-05-01", ServiceName: "Virtual Machines", CostAmount: 12.5, MonthLabel: "current"},
		{DatePeriod: "2024-05-02", ServiceName: "Virtual Machines", CostAmount: 0, MonthLabel: "current"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestInsertServiceCosts_ConflictRowsNotCounted(t *testing.T) {
	f := setupFixture(t)

	prep := f.mock.ExpectPrepare(regexp.QuoteMeta(serviceCostQuery))
	// ON CONFLICT DO NOTHING reports zero affected rows for a duplicate.
	prep.ExpectExec().
		WithArgs("2024-05-01", "Virtual Machines", 12.5, "current").
		WillReturnResult(sqlmock.NewResult(0, 0))

	count, err := f.store.InsertServiceCosts(context.Background(), []store.ServiceCost{
		{DatePeriod: "2024-05-01", ServiceName: "Virtual Machines", CostAmount: 12.5, MonthLabel: "current"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestInsertServiceCosts_EmptyBatchSkipsPrepare(t *testing.T) {
	f := setupFixture(t)

	count, err := f.store.InsertServiceCosts(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestInsertRegionServiceCosts_KeyedByAllDimensions(t *testing.T) {
	f := setupFixture(t)

	query := `
		INSERT INTO azure_region_service_costs (date_period, region_name, service_name, cost_amount, month_label)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date_period, region_name, service_name, month_label) DO NOTHING`
	prep := f.mock.ExpectPrepare(regexp.QuoteMeta(query))
	prep.ExpectExec().
		WithArgs("2024-05-01", "westeurope", "Storage", 1.75, "last_month").
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := f.store.InsertRegionServiceCosts(context.Background(), []store.RegionServiceCost{
		{DatePeriod: "2024-05-01", RegionName: "westeurope", ServiceName: "Storage", CostAmount: 1.75, MonthLabel: "last_month"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertTagCosts(t *testing.T) {
	f := setupFixture(t)

	query := `
		INSERT INTO azure_tag_costs (date_period, month_label, tag_key, tag_value, cost_amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date_period, month_label, tag_key, tag_value) DO NOTHING`
	prep := f.mock.ExpectPrepare(regexp.QuoteMeta(query))
	prep.ExpectExec().
		WithArgs("2024-05-01", "current", "Team", "data-eng", 9.99).
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := f.store.InsertTagCosts(context.Background(), []store.TagCost{
		{DatePeriod: "2024-05-01", MonthLabel: "current", TagKey: "Team", TagValue: "data-eng", CostAmount: 9.99},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertLowUsage(t *testing.T) {
	f := setupFixture(t)
	runDate := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	prep := f.mock.ExpectPrepare("INSERT INTO azure_low_usage_resources")
	prep.ExpectExec().
		WithArgs(runDate, "virtualMachines", "res-1", "vm-a", "westeurope",
			"Percentage CPU", 2.35, 10.0, "Percent", "Average").
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := f.store.InsertLowUsage(context.Background(), []store.LowUsageResource{{
		RunDate:        runDate,
		ServiceName:    "virtualMachines",
		ResourceID:     "res-1",
		ResourceName:   "vm-a",
		ResourceRegion: "westeurope",
		MetricName:     "Percentage CPU",
		AverageUsage:   2.35,
		ThresholdValue: 10.0,
		Unit:           "Percent",
		StatType:       "Average",
	}})

	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertRun_ReturnsGeneratedID(t *testing.T) {
	f := setupFixture(t)
	runDate := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	f.mock.ExpectQuery("INSERT INTO azure_cost_monitoring_runs").
		WithArgs(runDate, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			42.5, 100.0, 3, "success", sqlmock.AnyArg(), int64(1234)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := f.store.InsertRun(context.Background(), store.MonitoringRun{
		RunDate:            runDate,
		StartDate:          runDate.AddDate(0, 0, -14),
		EndDate:            runDate,
		LastMonthStart:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		LastMonthEnd:       time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		TotalCurrentCost:   42.5,
		TotalLastMonthCost: 100.0,
		LowUsageCount:      3,
		ExecutionStatus:    "success",
		ExecutionTimeMS:    1234,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestInsertRun_QueryFailure(t *testing.T) {
	f := setupFixture(t)

	f.mock.ExpectQuery("INSERT INTO azure_cost_monitoring_runs").
		WillReturnError(errors.New("relation does not exist"))

	_, err := f.store.InsertRun(context.Background(), store.MonitoringRun{ExecutionStatus: "failed"})

	assert.Error(t, err)
}

func TestCleanup_DeletesAcrossAllTables(t *testing.T) {
	f := setupFixture(t)

	for _, table := range []string{
		"azure_service_costs",
		"azure_region_costs",
		"azure_region_service_costs",
		"azure_tag_costs",
	} {
		f.mock.ExpectExec("DELETE FROM " + table + " WHERE date_period").
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))
	}
	f.mock.ExpectExec("DELETE FROM azure_low_usage_resources WHERE run_date").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := f.store.Cleanup(context.Background(), 90)

	require.NoError(t, err)
	assert.Equal(t, int64(9), deleted)
}

func TestTestConnectivity(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		f := setupFixture(t)
		f.mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		assert.True(t, f.store.TestConnectivity(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		f := setupFixture(t)
		f.mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))

		assert.False(t, f.store.TestConnectivity(context.Background()))
	})
}
