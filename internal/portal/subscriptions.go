package portal

import (
	"context"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
)

// Subscriptions manages which hosted APIs the account may call.
type Subscriptions struct {
	client *apiclient.Client
}

// NewSubscriptions creates the subscription service.
func NewSubscriptions(client *apiclient.Client) *Subscriptions {
	return &Subscriptions{client: client}
}

// List returns the account's active subscriptions.
func (s *Subscriptions) List(ctx context.Context) ([]Subscription, error) {
	var subs []Subscription
	if err := s.client.Get(ctx, "/auth/api-subscriptions", nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Subscribe enables one hosted API for the account.
func (s *Subscriptions) Subscribe(ctx context.Context, apiName string) error {
	body := map[string]string{"apiName": apiName}
	return s.client.Post(ctx, "/auth/api-subscriptions", body, nil)
}

// Unsubscribe disables one hosted API for the account.
func (s *Subscriptions) Unsubscribe(ctx context.Context, apiName string) error {
	return s.client.Delete(ctx, "/auth/api-subscriptions/"+apiName, nil)
}

// Available returns the platform's full API offering, independent of what
// the account is subscribed to.
func (s *Subscriptions) Available(ctx context.Context) ([]AvailableAPI, error) {
	var apis []AvailableAPI
	if err := s.client.Get(ctx, "/v1/available-apis", nil, &apis); err != nil {
		return nil, err
	}
	return apis, nil
}
