package adapters

import (
	"time"

	"github.com/samber/lo"

	"github.com/de-tools/cost-sentinel/pkg/models/domain"
	"github.com/de-tools/cost-sentinel/pkg/models/store"
)

func MapCostRowsToServiceCosts(rows []domain.CostRow, label domain.WindowLabel) []store.ServiceCost {
	return lo.Map(rows, func(row domain.CostRow, _ int) store.ServiceCost {
		return store.ServiceCost{
			DatePeriod:  row.Date,
			ServiceName: row.Dimension,
			CostAmount:  row.Cost,
			MonthLabel:  string(label),
		}
	})
}

func MapCostRowsToRegionCosts(rows []domain.CostRow, label domain.WindowLabel) []store.RegionCost {
	return lo.Map(rows, func(row domain.CostRow, _ int) store.RegionCost {
		return store.RegionCost{
			DatePeriod: row.Date,
			RegionName: row.Dimension,
			CostAmount: row.Cost,
			MonthLabel: string(label),
		}
	})
}

func MapCostRowsToRegionServiceCosts(rows []domain.CostRow, label domain.WindowLabel) []store.RegionServiceCost {
	return lo.Map(rows, func(row domain.CostRow, _ int) store.RegionServiceCost {
		return store.RegionServiceCost{
			DatePeriod:  row.Date,
			RegionName:  row.Region,
			ServiceName: row.Service,
			CostAmount:  row.Cost,
			MonthLabel:  string(label),
		}
	})
}

func MapCostRowsToTagCosts(rows []domain.CostRow, label domain.WindowLabel, tagKey string) []store.TagCost {
	return lo.Map(rows, func(row domain.CostRow, _ int) store.TagCost {
		tagValue := row.Dimension
		if tagValue == "" {
			tagValue = "UnTagged"
		}
		return store.TagCost{
			DatePeriod: row.Date,
			MonthLabel: string(label),
			TagKey:     tagKey,
			TagValue:   tagValue,
			CostAmount: row.Cost,
		}
	})
}

func MapFindingsToLowUsageResources(findings []domain.LowUsageFinding, runDate time.Time) []store.LowUsageResource {
	return lo.Map(findings, func(f domain.LowUsageFinding, _ int) store.LowUsageResource {
		return store.LowUsageResource{
			RunDate:        runDate,
			ServiceName:    f.Service,
			ResourceID:     f.ResourceID,
			ResourceName:   f.ResourceName,
			ResourceRegion: f.ResourceRegion,
			MetricName:     f.Metric,
			AverageUsage:   f.AverageUsage,
			ThresholdValue: f.Threshold,
			Unit:           f.Unit,
			StatType:       string(f.Stat),
		}
	})
}

func MapRunSummaryToMonitoringRun(summary domain.RunSummary) store.MonitoringRun {
	return store.MonitoringRun{
		RunDate:            summary.RunDate,
		StartDate:          summary.Current.Start,
		EndDate:            summary.Current.End,
		LastMonthStart:     summary.LastMonth.Start,
		LastMonthEnd:       summary.LastMonth.End,
		TotalCurrentCost:   summary.TotalCurrentCost.InexactFloat64(),
		TotalLastMonthCost: summary.TotalLastMonthCost.InexactFloat64(),
		LowUsageCount:      summary.LowUsageCount,
		ExecutionStatus:    string(summary.Status),
		ErrorMessage:       summary.ErrorMessage,
		ExecutionTimeMS:    summary.ExecutionTimeMS,
	}
}
