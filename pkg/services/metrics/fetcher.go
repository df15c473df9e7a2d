package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/rs/zerolog"

	"github.com/de-tools/cost-sentinel/pkg/models/domain"
)

// MetricsClient is the slice of armmonitor.MetricsClient we use.
type MetricsClient interface {
	List(
		ctx context.Context,
		resourceURI string,
		options *armmonitor.MetricsClientListOptions,
	) (armmonitor.MetricsClientListResponse, error)
}

type Fetcher struct {
	client MetricsClient
}

func NewFetcher(client MetricsClient) *Fetcher {
	return &Fetcher{client: client}
}

// FetchScalar requests daily samples of one metric over the window and
// reduces them client-side with the requested statistic. It returns
// (value, true) when a reading was obtainable and (0, false) otherwise;
// absence is distinct from a reading of zero. Request failures are absorbed
// with a warning, never surfaced to the caller.
func (f *Fetcher) FetchScalar(
	ctx context.Context,
	resourceID string,
	metricName string,
	window domain.Window,
	stat domain.StatType,
) (float64, bool) {
	logger := zerolog.Ctx(ctx)

	timespan := fmt.Sprintf("%s/%s",
		window.Start.Format(time.RFC3339),
		window.End.Format(time.RFC3339),
	)
	interval := "P1D"
	aggregation := string(stat)

	resp, err := f.client.List(ctx, resourceID, &armmonitor.MetricsClientListOptions{
		Timespan:    &timespan,
		Interval:    &interval,
		Metricnames: &metricName,
		Aggregation: &aggregation,
	})
	if err != nil {
		logger.Warn().Err(err).
			Str("resource_id", resourceID).
			Str("metric", metricName).
			Msg("metric query failed")
		return 0, false
	}

	values := sampleValues(resp.Value, stat)
	if len(values) == 0 {
		return 0, false
	}
	return reduce(values, stat), true
}

// sampleValues collects the non-null points of the first returned series,
// reading the point field that matches the requested aggregation.
func sampleValues(metrics []*armmonitor.Metric, stat domain.StatType) []float64 {
	if len(metrics) == 0 || metrics[0] == nil || len(metrics[0].Timeseries) == 0 {
		return nil
	}
	series := metrics[0].Timeseries[0]
	if series == nil {
		return nil
	}

	var values []float64
	for _, point := range series.Data {
		if point == nil {
			continue
		}
		var v *float64
		switch stat {
		case domain.StatAverage:
			v = point.Average
		case domain.StatSum:
			v = point.Total
		case domain.StatMaximum:
			v = point.Maximum
		case domain.StatMinimum:
			v = point.Minimum
		}
		if v != nil {
			values = append(values, *v)
		}
	}
	return values
}

func reduce(values []float64, stat domain.StatType) float64 {
	switch stat {
	case domain.StatSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	case domain.StatMaximum:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case domain.StatMinimum:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	default: // Average
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
}
