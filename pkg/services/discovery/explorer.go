package discovery

import (
	"context"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/rs/zerolog"

	"github.com/de-tools/cost-sentinel/pkg/models/domain"
)

const DefaultMaxResources = 100

// ResourcePager matches the runtime pager over armresources list responses.
type ResourcePager interface {
	More() bool
	NextPage(ctx context.Context) (armresources.ClientListResponse, error)
}

type Explorer struct {
	newPager     func() ResourcePager
	maxResources int
}

func NewExplorer(newPager func() ResourcePager, maxResources int) *Explorer {
	if maxResources <= 0 {
		maxResources = DefaultMaxResources
	}
	return &Explorer{
		newPager:     newPager,
		maxResources: maxResources,
	}
}

// Discover enumerates the subscription's resources, stopping eagerly once the
// cap is reached rather than paging through the whole account. Enumeration
// failure yields an empty result with an error log; it is never fatal.
func (e *Explorer) Discover(ctx context.Context) []domain.Resource {
	logger := zerolog.Ctx(ctx)

	var resources []domain.Resource
	pager := e.newPager()
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("resource enumeration failed")
			return nil
		}

		for _, raw := range page.Value {
			if raw == nil || raw.ID == nil || *raw.ID == "" {
				continue
			}

			resources = append(resources, domain.Resource{
				ID:       *raw.ID,
				Name:     deref(raw.Name),
				Type:     deref(raw.Type),
				Location: deref(raw.Location),
				Group:    resourceGroupFromID(*raw.ID),
			})

			if len(resources) >= e.maxResources {
				logger.Info().Int("count", len(resources)).Msg("resource cap reached, truncating discovery")
				return resources
			}
		}
	}

	logger.Info().Int("count", len(resources)).Msg("discovered resources")
	return resources
}

// resourceGroupFromID pulls the resource group out of an ARM ID of the form
// /subscriptions/{sub}/resourceGroups/{group}/providers/...
func resourceGroupFromID(id string) string {
	segments := strings.Split(id, "/")
	if len(segments) > 4 {
		return segments[4]
	}
	return "Unknown"
}

func deref(s *string) string {
	if s == nil {
		return "Unknown"
	}
	return *s
}
