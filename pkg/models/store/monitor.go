package store

import "time"

// Row shapes as persisted; one struct per table we write.

type ServiceCost struct {
	DatePeriod  string
	ServiceName string
	CostAmount  float64
	MonthLabel  string
}

type RegionCost struct {
	DatePeriod string
	RegionName string
	CostAmount float64
	MonthLabel string
}

type RegionServiceCost struct {
	DatePeriod  string
	RegionName  string
	ServiceName string
	CostAmount  float64
	MonthLabel  string
}

type TagCost struct {
	DatePeriod string
	MonthLabel string
	TagKey     string
	TagValue   string
	CostAmount float64
}

type LowUsageResource struct {
	RunDate        time.Time
	ServiceName    string
	ResourceID     string
	ResourceName   string
	ResourceRegion string
	MetricName     string
	AverageUsage   float64
	ThresholdValue float64
	Unit           string
	StatType       string
}

type MonitoringRun struct {
	RunDate            time.Time
	StartDate          time.Time
	EndDate            time.Time
	LastMonthStart     time.Time
	LastMonthEnd       time.Time
	TotalCurrentCost   float64
	TotalLastMonthCost float64
	LowUsageCount      int
	ExecutionStatus    string
	ErrorMessage       string
	ExecutionTimeMS    int64
}
