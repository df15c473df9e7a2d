package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatType is the aggregation applied to a metric time series,
// both in the provider request and in the client-side reduction.
type StatType string

const (
	StatAverage StatType = "Average"
	StatSum     StatType = "Sum"
	StatMaximum StatType = "Maximum"
	StatMinimum StatType = "Minimum"
)

// MetricSpec describes one utilization signal for a resource type and the
// threshold below which the resource counts as idle.
type MetricSpec struct {
	Metric    string  // e.g. "Percentage CPU"
	Stat      StatType
	Threshold float64
	Unit      string // e.g. "Percent", "Bytes", "Count"
}

// Resource is a read-only snapshot of a discovered subscription resource.
type Resource struct {
	ID       string // full provider resource ID
	Name     string
	Type     string // e.g. "Microsoft.Compute/virtualMachines"
	Location string
	Group    string // resource group, parsed from the ID
}

type GroupingKind string

const (
	GroupByService       GroupingKind = "service"
	GroupByRegion        GroupingKind = "region"
	GroupByRegionService GroupingKind = "region_service"
	GroupByTag           GroupingKind = "tag"
)

// Grouping is a tagged cost-query dimension set. The query layer translates
// the tag into provider grouping columns and the store routes rows by it;
// nothing downstream guesses the dimensionality from field names.
type Grouping struct {
	Kind   GroupingKind
	TagKey string // set only for GroupByTag
}

// CostRow is one normalized cost record. Single-dimension groupings populate
// Dimension; the region+service grouping populates Region and Service.
type CostRow struct {
	Date      string // ISO date
	Dimension string
	Region    string
	Service   string
	Cost      float64
}

// Window is a closed calendar date range. Cost Management queries use an
// exclusive upper bound, exposed via QueryEnd.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) QueryEnd() time.Time {
	return w.End.AddDate(0, 0, 1)
}

type WindowLabel string

const (
	WindowCurrent   WindowLabel = "current"
	WindowLastMonth WindowLabel = "last_month"
)

// LowUsageFinding is one (resource, metric) pair whose observed reading fell
// below the policy threshold over a window.
type LowUsageFinding struct {
	Service        string // short service name, e.g. "virtualMachines"
	ResourceID     string
	ResourceName   string
	ResourceRegion string
	Metric         string
	AverageUsage   float64
	Threshold      float64
	Unit           string
	Stat           StatType
}

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunSummary is the terminal record of one pipeline invocation.
type RunSummary struct {
	RunDate            time.Time
	Current            Window
	LastMonth          Window
	TotalCurrentCost   decimal.Decimal
	TotalLastMonthCost decimal.Decimal
	LowUsageCount      int
	Status             RunStatus
	ErrorMessage       string
	ExecutionTimeMS    int64
}
