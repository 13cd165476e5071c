package portal

import (
	"context"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
)

// Tokens manages the account's API tokens.
type Tokens struct {
	client *apiclient.Client
}

// NewTokens creates the token service.
func NewTokens(client *apiclient.Client) *Tokens {
	return &Tokens{client: client}
}

// List returns the account's tokens. Secret values are redacted.
func (t *Tokens) List(ctx context.Context) ([]APIToken, error) {
	var tokens []APIToken
	if err := t.client.Get(ctx, "/auth/tokens", nil, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Create mints a new named token. The returned Token field carries the
// secret; this is the only time the backend reveals it.
func (t *Tokens) Create(ctx context.Context, name string) (APIToken, error) {
	if name == "" {
		return APIToken{}, ErrEmptyTokenName
	}
	var token APIToken
	err := t.client.Post(ctx, "/auth/tokens", map[string]string{"name": name}, &token)
	if err != nil {
		return APIToken{}, err
	}
	return token, nil
}

// Delete revokes a token by ID.
func (t *Tokens) Delete(ctx context.Context, id string) error {
	return t.client.Delete(ctx, "/auth/tokens/"+id, nil)
}
