package costquery

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/rs/zerolog"

	"github.com/de-tools/cost-sentinel/pkg/models/domain"
)

// QueryClient is the slice of armcostmanagement.QueryClient we use.
type QueryClient interface {
	Usage(
		ctx context.Context,
		scope string,
		parameters armcostmanagement.QueryDefinition,
		options *armcostmanagement.QueryClientUsageOptions,
	) (armcostmanagement.QueryClientUsageResponse, error)
}

type Explorer struct {
	client QueryClient
	scope  string
}

func NewExplorer(client QueryClient, scope string) *Explorer {
	return &Explorer{
		client: client,
		scope:  scope,
	}
}

// Query issues one ActualCost query at daily granularity for the window and
// grouping, and returns normalized rows. Provider failures degrade to an
// empty result with an error log; they never abort the run.
func (e *Explorer) Query(ctx context.Context, window domain.Window, grouping domain.Grouping) []domain.CostRow {
	logger := zerolog.Ctx(ctx)

	timeFrom := window.Start
	timeTo := window.QueryEnd()

	params := armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: &timeFrom,
			To:   &timeTo,
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("PreTaxCost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: groupingColumns(grouping),
		},
	}

	result, err := e.client.Usage(ctx, e.scope, params, nil)
	if err != nil {
		logger.Error().Err(err).
			Str("grouping", string(grouping.Kind)).
			Msg("cost management query failed")
		return nil
	}

	if result.Properties == nil {
		return nil
	}
	return Normalize(ctx, result.Properties.Rows)
}

// groupingColumns translates a tagged grouping into the provider columns.
// The region+service order here is a contract with Normalize: region is
// requested before service, so row element 1 is always the region.
func groupingColumns(grouping domain.Grouping) []*armcostmanagement.QueryGrouping {
	dimension := armcostmanagement.QueryColumnTypeDimension

	switch grouping.Kind {
	case domain.GroupByService:
		return []*armcostmanagement.QueryGrouping{
			{Name: to.Ptr("ServiceName"), Type: &dimension},
		}
	case domain.GroupByRegion:
		return []*armcostmanagement.QueryGrouping{
			{Name: to.Ptr("ResourceLocation"), Type: &dimension},
		}
	case domain.GroupByRegionService:
		return []*armcostmanagement.QueryGrouping{
			{Name: to.Ptr("ResourceLocation"), Type: &dimension},
			{Name: to.Ptr("ServiceName"), Type: &dimension},
		}
	case domain.GroupByTag:
		return []*armcostmanagement.QueryGrouping{
			{Name: to.Ptr(grouping.TagKey), Type: to.Ptr(armcostmanagement.QueryColumnTypeTagKey)},
		}
	}
	return nil
}
