package portal

import (
	"context"
	"net/url"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
)

// Analytics reads usage statistics for the account's subscribed APIs.
type Analytics struct {
	client *apiclient.Client
}

// NewAnalytics creates the analytics service.
func NewAnalytics(client *apiclient.Client) *Analytics {
	return &Analytics{client: client}
}

// Summary returns aggregate usage across all subscribed APIs.
// timeRange is a backend-defined window such as "7d" or "30d"; empty uses
// the backend default.
func (a *Analytics) Summary(ctx context.Context, timeRange string) (AnalyticsSummary, error) {
	query := url.Values{}
	if timeRange != "" {
		query.Set("timeRange", timeRange)
	}
	var summary AnalyticsSummary
	if err := a.client.Get(ctx, "/v1/analytics", query, &summary); err != nil {
		return AnalyticsSummary{}, err
	}
	return summary, nil
}

// ForAPI returns the per-API breakdown for one subscribed API.
func (a *Analytics) ForAPI(ctx context.Context, apiName, timeRange string) (APIAnalytics, error) {
	query := url.Values{}
	if timeRange != "" {
		query.Set("timeRange", timeRange)
	}
	var stats APIAnalytics
	if err := a.client.Get(ctx, "/v1/analytics/"+apiName, query, &stats); err != nil {
		return APIAnalytics{}, err
	}
	return stats, nil
}
