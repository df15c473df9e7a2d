package lowusage

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/de-tools/cost-sentinel/pkg/models/domain"
	"github.com/de-tools/cost-sentinel/pkg/services/policy"
)

const DefaultMaxMetricsPerResource = 5

type Discoverer interface {
	Discover(ctx context.Context) []domain.Resource
}

type ScalarFetcher interface {
	FetchScalar(
		ctx context.Context,
		resourceID string,
		metricName string,
		window domain.Window,
		stat domain.StatType,
	) (float64, bool)
}

type Classifier struct {
	discoverer Discoverer
	fetcher    ScalarFetcher
	maxMetrics int
}

func NewClassifier(discoverer Discoverer, fetcher ScalarFetcher, maxMetricsPerResource int) *Classifier {
	if maxMetricsPerResource <= 0 {
		maxMetricsPerResource = DefaultMaxMetricsPerResource
	}
	return &Classifier{
		discoverer: discoverer,
		fetcher:    fetcher,
		maxMetrics: maxMetricsPerResource,
	}
}

// Classify evaluates every discovered resource against its policy metrics
// over the window and returns a finding for each (resource, metric) pair
// whose reading fell below the threshold. A missing reading never counts as
// low usage, and each pair is attempted exactly once; a failed fetch is
// absorbed by the fetcher and skipped here, so siblings always proceed.
func (c *Classifier) Classify(ctx context.Context, window domain.Window) []domain.LowUsageFinding {
	logger := zerolog.Ctx(ctx)

	resources := c.discoverer.Discover(ctx)
	logger.Info().Int("resources", len(resources)).Msg("analyzing resources for usage patterns")

	var findings []domain.LowUsageFinding
	for _, resource := range resources {
		specs := policy.MetricsFor(resource.Type)
		if len(specs) > c.maxMetrics {
			specs = specs[:c.maxMetrics]
		}

		for _, spec := range specs {
			reading, ok := c.fetcher.FetchScalar(ctx, resource.ID, spec.Metric, window, spec.Stat)
			if !ok {
				continue
			}
			if reading >= spec.Threshold {
				continue
			}

			findings = append(findings, domain.LowUsageFinding{
				Service:        shortServiceName(resource.Type),
				ResourceID:     resource.ID,
				ResourceName:   resource.Name,
				ResourceRegion: resource.Location,
				Metric:         spec.Metric,
				AverageUsage:   math.Round(reading*100) / 100,
				Threshold:      spec.Threshold,
				Unit:           spec.Unit,
				Stat:           spec.Stat,
			})

			logger.Info().
				Str("resource", resource.Name).
				Str("metric", spec.Metric).
				Float64("reading", reading).
				Float64("threshold", spec.Threshold).
				Msg("low usage detected")
		}
	}

	logger.Info().Int("findings", len(findings)).Msg("usage analysis complete")
	return findings
}

// shortServiceName reduces "Microsoft.Compute/virtualMachines" to
// "virtualMachines".
func shortServiceName(resourceType string) string {
	if idx := strings.LastIndex(resourceType, "/"); idx >= 0 {
		return resourceType[idx+1:]
	}
	return resourceType
}
