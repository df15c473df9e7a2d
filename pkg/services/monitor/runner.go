package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/de-tools/cost-sentinel/pkg/adapters"
	"github.com/de-tools/cost-sentinel/pkg/models/domain"
	"github.com/de-tools/cost-sentinel/pkg/store/postgres"
)

const DefaultRetentionDays = 90

type CostExplorer interface {
	Query(ctx context.Context, window domain.Window, grouping domain.Grouping) []domain.CostRow
}

type Classifier interface {
	Classify(ctx context.Context, window domain.Window) []domain.LowUsageFinding
}

type Config struct {
	TagKeys       []string // tag keys to break costs down by; empty disables tag costs
	RetentionDays int
}

// Runner drives one full monitoring invocation: window computation, cost
// queries, low-usage classification, totals, persistence, cleanup. Provider
// failures are absorbed below it; only persistence errors surface, and even
// those leave a best-effort failure record behind.
type Runner struct {
	costs      CostExplorer
	classifier Classifier
	store      postgres.Store
	config     Config
	now        func() time.Time
}

func NewRunner(costs CostExplorer, classifier Classifier, store postgres.Store, config Config) *Runner {
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultRetentionDays
	}
	return &Runner{
		costs:      costs,
		classifier: classifier,
		store:      store,
		config:     config,
		now:        time.Now,
	}
}

// windowData is everything collected for a single window.
type windowData struct {
	window            domain.Window
	serviceRows       []domain.CostRow
	regionRows        []domain.CostRow
	regionServiceRows []domain.CostRow
	tagRows           map[string][]domain.CostRow
	findings          []domain.LowUsageFinding
	total             decimal.Decimal
}

type runData struct {
	today     time.Time
	current   windowData
	lastMonth windowData
}

func (r *Runner) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	startedAt := r.now()
	today := truncateToDay(startedAt)

	logger.Info().Msg("starting cost monitoring run")
	machine := newRunMachine(logger)

	data := &runData{today: today}
	data.current.window = CurrentMonthWindow(today)
	data.lastMonth.window = PreviousMonthWindow(today)
	advance(ctx, machine, triggerWindowsComputed)
	logger.Info().
		Str("current_start", data.current.window.Start.Format("2006-01-02")).
		Str("current_end", data.current.window.End.Format("2006-01-02")).
		Str("last_month_start", data.lastMonth.window.Start.Format("2006-01-02")).
		Str("last_month_end", data.lastMonth.window.End.Format("2006-01-02")).
		Msg("analysis windows computed")

	r.collectCosts(ctx, &data.current)
	r.collectCosts(ctx, &data.lastMonth)
	advance(ctx, machine, triggerCostsFetched)

	data.current.findings = r.classifier.Classify(ctx, data.current.window)
	data.lastMonth.findings = r.classifier.Classify(ctx, data.lastMonth.window)
	advance(ctx, machine, triggerUsageClassified)

	data.current.total = sumCosts(data.current.serviceRows)
	data.lastMonth.total = sumCosts(data.lastMonth.serviceRows)
	advance(ctx, machine, triggerTotalsComputed)

	summary := r.successSummary(data, startedAt)
	if err := r.persist(ctx, data, summary); err != nil {
		advance(ctx, machine, triggerFailed)
		r.writeFailure(ctx, data, startedAt, err)
		return err
	}
	advance(ctx, machine, triggerPersisted)

	r.cleanup(ctx)
	advance(ctx, machine, triggerDone)

	logger.Info().
		Str("current_total", summary.TotalCurrentCost.StringFixed(2)).
		Str("last_month_total", summary.TotalLastMonthCost.StringFixed(2)).
		Int("low_usage_count", summary.LowUsageCount).
		Int64("execution_time_ms", summary.ExecutionTimeMS).
		Msg("cost monitoring run complete")
	return nil
}

func (r *Runner) collectCosts(ctx context.Context, wd *windowData) {
	wd.serviceRows = r.costs.Query(ctx, wd.window, domain.Grouping{Kind: domain.GroupByService})
	wd.regionRows = r.costs.Query(ctx, wd.window, domain.Grouping{Kind: domain.GroupByRegion})
	wd.regionServiceRows = r.costs.Query(ctx, wd.window, domain.Grouping{Kind: domain.GroupByRegionService})

	if len(r.config.TagKeys) == 0 {
		return
	}
	wd.tagRows = make(map[string][]domain.CostRow, len(r.config.TagKeys))
	for _, key := range r.config.TagKeys {
		wd.tagRows[key] = r.costs.Query(ctx, wd.window, domain.Grouping{Kind: domain.GroupByTag, TagKey: key})
	}
}

func (r *Runner) successSummary(data *runData, startedAt time.Time) domain.RunSummary {
	return domain.RunSummary{
		RunDate:            data.today,
		Current:            data.current.window,
		LastMonth:          data.lastMonth.window,
		TotalCurrentCost:   data.current.total,
		TotalLastMonthCost: data.lastMonth.total,
		LowUsageCount:      len(data.current.findings),
		Status:             domain.RunSuccess,
		ExecutionTimeMS:    r.now().Sub(startedAt).Milliseconds(),
	}
}

// persist writes both windows and the run summary. The first error aborts the
// phase; the already-computed results stay with the caller for the failure
// record.
func (r *Runner) persist(ctx context.Context, data *runData, summary domain.RunSummary) error {
	logger := zerolog.Ctx(ctx)

	if !r.store.TestConnectivity(ctx) {
		return postgres.ErrConnectivity
	}

	if err := r.persistWindow(ctx, &data.current, domain.WindowCurrent, data.today); err != nil {
		return err
	}
	if err := r.persistWindow(ctx, &data.lastMonth, domain.WindowLastMonth, data.today); err != nil {
		return err
	}

	runID, err := r.store.InsertRun(ctx, adapters.MapRunSummaryToMonitoringRun(summary))
	if err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}

	logger.Info().Int64("run_id", runID).Msg("run summary persisted")
	return nil
}

func (r *Runner) persistWindow(
	ctx context.Context,
	wd *windowData,
	label domain.WindowLabel,
	runDate time.Time,
) error {
	if _, err := r.store.InsertServiceCosts(ctx, adapters.MapCostRowsToServiceCosts(wd.serviceRows, label)); err != nil {
		return fmt.Errorf("insert %s service costs: %w", label, err)
	}
	if _, err := r.store.InsertRegionCosts(ctx, adapters.MapCostRowsToRegionCosts(wd.regionRows, label)); err != nil {
		return fmt.Errorf("insert %s region costs: %w", label, err)
	}
	if _, err := r.store.InsertRegionServiceCosts(ctx, adapters.MapCostRowsToRegionServiceCosts(wd.regionServiceRows, label)); err != nil {
		return fmt.Errorf("insert %s region+service costs: %w", label, err)
	}
	for tagKey, rows := range wd.tagRows {
		if _, err := r.store.InsertTagCosts(ctx, adapters.MapCostRowsToTagCosts(rows, label, tagKey)); err != nil {
			return fmt.Errorf("insert %s tag costs for %s: %w", label, tagKey, err)
		}
	}
	if _, err := r.store.InsertLowUsage(ctx, adapters.MapFindingsToLowUsageResources(wd.findings, runDate)); err != nil {
		return fmt.Errorf("insert %s low usage findings: %w", label, err)
	}
	return nil
}

// writeFailure records a best-effort failed run row before the error
// propagates to the invoker.
func (r *Runner) writeFailure(ctx context.Context, data *runData, startedAt time.Time, cause error) {
	logger := zerolog.Ctx(ctx)

	summary := domain.RunSummary{
		RunDate:            data.today,
		Current:            data.current.window,
		LastMonth:          data.lastMonth.window,
		TotalCurrentCost:   decimal.Zero,
		TotalLastMonthCost: decimal.Zero,
		Status:             domain.RunFailed,
		ErrorMessage:       cause.Error(),
		ExecutionTimeMS:    r.now().Sub(startedAt).Milliseconds(),
	}

	if _, err := r.store.InsertRun(ctx, adapters.MapRunSummaryToMonitoringRun(summary)); err != nil {
		logger.Error().Err(err).Msg("failed to record failed run")
	}
}

func (r *Runner) cleanup(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	deleted, err := r.store.Cleanup(ctx, r.config.RetentionDays)
	if err != nil {
		logger.Warn().Err(err).Msg("retention cleanup failed (non-critical)")
		return
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("cleaned up old records")
	}
}

func sumCosts(rows []domain.CostRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(decimal.NewFromFloat(row.Cost))
	}
	return total
}
