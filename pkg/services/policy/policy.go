package policy

import "github.com/de-tools/cost-sentinel/pkg/models/domain"

// serviceMetrics is the tuning table for low-usage detection: per resource
// type, the signals worth checking and the thresholds below which a resource
// counts as idle. Order matters; callers cap how many specs they evaluate,
// so the strongest signal for each type comes first.
var serviceMetrics = map[string][]domain.MetricSpec{
	"Microsoft.Compute/virtualMachines": {
		{Metric: "Percentage CPU", Stat: domain.StatAverage, Threshold: 10.0, Unit: "Percent"},
		{Metric: "Network In", Stat: domain.StatAverage, Threshold: 1000000, Unit: "Bytes"},
		{Metric: "Disk Read Bytes", Stat: domain.StatAverage, Threshold: 1000000, Unit: "Bytes"},
	},
	"Microsoft.DBforPostgreSQL/servers": {
		{Metric: "cpu_percent", Stat: domain.StatAverage, Threshold: 15.0, Unit: "Percent"},
		{Metric: "connections_active", Stat: domain.StatAverage, Threshold: 5, Unit: "Count"},
		{Metric: "io_consumption_percent", Stat: domain.StatAverage, Threshold: 10.0, Unit: "Percent"},
	},
	"Microsoft.Storage/storageAccounts": {
		{Metric: "Transactions", Stat: domain.StatSum, Threshold: 1000, Unit: "Count"},
		{Metric: "UsedCapacity", Stat: domain.StatAverage, Threshold: 1000000000, Unit: "Bytes"},
	},
	"Microsoft.Web/sites": {
		{Metric: "HttpRequests", Stat: domain.StatSum, Threshold: 100, Unit: "Count"},
		{Metric: "AverageResponseTime", Stat: domain.StatAverage, Threshold: 1000, Unit: "Milliseconds"},
	},
	"Microsoft.ContainerService/managedClusters": {
		{Metric: "cpuUsageNanoCores", Stat: domain.StatAverage, Threshold: 1000000000, Unit: "NanoCores"},
		{Metric: "memoryWorkingSetBytes", Stat: domain.StatAverage, Threshold: 1000000000, Unit: "Bytes"},
	},
	"Microsoft.Network/loadBalancers": {
		{Metric: "ByteCount", Stat: domain.StatSum, Threshold: 1000000, Unit: "Bytes"},
		{Metric: "PacketCount", Stat: domain.StatSum, Threshold: 1000, Unit: "Count"},
	},
}

var defaultMetrics = []domain.MetricSpec{
	{Metric: "Requests", Stat: domain.StatSum, Threshold: 10, Unit: "Count"},
	{Metric: "Errors", Stat: domain.StatSum, Threshold: 1, Unit: "Count"},
}

// MetricsFor returns the ordered metric specs for a resource type. It is
// total: unknown types get the default request/error pair.
func MetricsFor(resourceType string) []domain.MetricSpec {
	if specs, ok := serviceMetrics[resourceType]; ok {
		return specs
	}
	return defaultMetrics
}
