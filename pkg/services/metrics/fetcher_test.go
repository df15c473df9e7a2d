package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cost-sentinel/pkg/models/domain"
)

type fakeMetricsClient struct {
	lastURI     string
	lastOptions *armmonitor.MetricsClientListOptions
	response    armmonitor.MetricsClientListResponse
	err         error
}

func (f *fakeMetricsClient) List(
	_ context.Context,
	resourceURI string,
	options *armmonitor.MetricsClientListOptions,
) (armmonitor.MetricsClientListResponse, error) {
	f.lastURI = resourceURI
	f.lastOptions = options
	return f.response, f.err
}

func seriesResponse(points ...*armmonitor.MetricValue) armmonitor.MetricsClientListResponse {
	return armmonitor.MetricsClientListResponse{
		Response: armmonitor.Response{
			Value: []*armmonitor.Metric{{
				Timeseries: []*armmonitor.TimeSeriesElement{{Data: points}},
			}},
		},
	}
}

func testWindow() domain.Window {
	return domain.Window{
		Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchScalar_AverageExcludesNullPoints(t *testing.T) {
	client := &fakeMetricsClient{response: seriesResponse(
		&armmonitor.MetricValue{Average: to.Ptr(2.0)},
		&armmonitor.MetricValue{}, // null sample, excluded rather than zeroed
		&armmonitor.MetricValue{Average: to.Ptr(4.0)},
	)}
	fetcher := NewFetcher(client)

	value, ok := fetcher.FetchScalar(context.Background(), "res-1", "Percentage CPU", testWindow(), domain.StatAverage)

	require.True(t, ok)
	assert.Equal(t, 3.0, value)
	assert.Equal(t, "res-1", client.lastURI)
	assert.Equal(t, "Percentage CPU", *client.lastOptions.Metricnames)
	assert.Equal(t, "P1D", *client.lastOptions.Interval)
	assert.Equal(t, "Average", *client.lastOptions.Aggregation)
}

func TestFetchScalar_SumMaxMinReductions(t *testing.T) {
	tests := []struct {
		stat domain.StatType
		want float64
	}{
		{domain.StatSum, 9.0},
		{domain.StatMaximum, 5.0},
		{domain.StatMinimum, 1.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.stat), func(t *testing.T) {
			point := func(v float64) *armmonitor.MetricValue {
				return &armmonitor.MetricValue{
					Total:   to.Ptr(v),
					Maximum: to.Ptr(v),
					Minimum: to.Ptr(v),
				}
			}
			client := &fakeMetricsClient{response: seriesResponse(point(3), point(1), point(5))}
			fetcher := NewFetcher(client)

			value, ok := fetcher.FetchScalar(context.Background(), "res-1", "Transactions", testWindow(), tt.stat)

			require.True(t, ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestFetchScalar_EmptySeriesIsAbsenceNotZero(t *testing.T) {
	tests := []struct {
		name     string
		response armmonitor.MetricsClientListResponse
	}{
		{"no metrics", armmonitor.MetricsClientListResponse{}},
		{"no timeseries", armmonitor.MetricsClientListResponse{
			Response: armmonitor.Response{Value: []*armmonitor.Metric{{}}},
		}},
		{"no data points", seriesResponse()},
		{"only null points", seriesResponse(&armmonitor.MetricValue{}, &armmonitor.MetricValue{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := NewFetcher(&fakeMetricsClient{response: tt.response})

			_, ok := fetcher.FetchScalar(context.Background(), "res-1", "Requests", testWindow(), domain.StatAverage)

			assert.False(t, ok)
		})
	}
}

func TestFetchScalar_RequestFailureIsAbsence(t *testing.T) {
	fetcher := NewFetcher(&fakeMetricsClient{err: errors.New("metric not found")})

	_, ok := fetcher.FetchScalar(context.Background(), "res-1", "Requests", testWindow(), domain.StatSum)

	assert.False(t, ok)
}
