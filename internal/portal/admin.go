package portal

import (
	"context"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
	"github.com/swaroop-labs/portalctl/internal/guard"
)

// Admin exposes the role check and the super-admin user operations.
type Admin struct {
	client *apiclient.Client
}

// NewAdmin creates the admin service.
func NewAdmin(client *apiclient.Client) *Admin {
	return &Admin{client: client}
}

// CheckAdmin asks the backend whether the current session holds the
// support-admin role. It satisfies guard.RoleChecker, so the privileged
// gate consults the server and never a cached flag.
func (a *Admin) CheckAdmin(ctx context.Context) (guard.Verdict, error) {
	var resp struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := a.client.Get(ctx, "/support/check-admin", nil, &resp); err != nil {
		return guard.Verdict{}, err
	}
	return guard.Verdict{IsAdmin: resp.IsAdmin}, nil
}

// ListUsers returns every account (super-admin).
func (a *Admin) ListUsers(ctx context.Context) ([]AdminUser, error) {
	var users []AdminUser
	if err := a.client.Get(ctx, "/super-admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetAdmin grants or revokes the support-admin role (super-admin).
func (a *Admin) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	body := map[string]bool{"isAdmin": isAdmin}
	return a.client.Patch(ctx, "/super-admin/users/"+userID, body, nil)
}
