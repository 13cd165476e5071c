package portal

import (
	"context"
	"fmt"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/session"
)

// Auth handles account authentication and profile refresh.
type Auth struct {
	client  *apiclient.Client
	session *session.Session
	logger  *logging.Logger
}

// NewAuth creates the authentication service.
func NewAuth(client *apiclient.Client, sess *session.Session, logger *logging.Logger) *Auth {
	return &Auth{client: client, session: sess, logger: logger}
}

// Login exchanges credentials for a bearer token and establishes the
// session. The identifier may be a username or an email address.
func (a *Auth) Login(ctx context.Context, usernameOrEmail, password string) (session.Profile, error) {
	body := map[string]string{
		"usernameOrEmail": usernameOrEmail,
		"password":        password,
	}
	var resp loginResponse
	if err := a.client.Post(ctx, "/auth/login", body, &resp); err != nil {
		return session.Profile{}, err
	}

	cred := session.Credential{Token: resp.Token, Profile: resp.User}
	if err := a.session.Establish(ctx, cred); err != nil {
		return session.Profile{}, fmt.Errorf("establishing session: %w", err)
	}

	a.logger.Info("logged in", "username", resp.User.Username)
	return resp.User, nil
}

// SignupRequest is the new-account form.
type SignupRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new account. The account still has to log in; the
// backend does not return a token here.
func (a *Auth) Signup(ctx context.Context, req SignupRequest) error {
	return a.client.Post(ctx, "/auth/signup", req, nil)
}

// ForgotPassword requests a password-reset email.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	return a.client.Post(ctx, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ForgotUsername requests a username-reminder email.
func (a *Auth) ForgotUsername(ctx context.Context, email string) error {
	return a.client.Post(ctx, "/auth/forgot-username", map[string]string{"email": email}, nil)
}

// ResetPassword completes a password reset using the emailed token.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "newPassword": newPassword}
	return a.client.Post(ctx, "/auth/reset-password", body, nil)
}

// Me fetches the authoritative profile for the current session.
func (a *Auth) Me(ctx context.Context) (session.Profile, error) {
	var profile session.Profile
	if err := a.client.Get(ctx, "/auth/me", nil, &profile); err != nil {
		return session.Profile{}, err
	}
	return profile, nil
}

// RefreshProfile fetches the profile and writes it through to the session
// snapshot, keeping the token.
func (a *Auth) RefreshProfile(ctx context.Context) (session.Profile, error) {
	profile, err := a.Me(ctx)
	if err != nil {
		return session.Profile{}, err
	}
	if err := a.session.RefreshProfile(ctx, profile); err != nil {
		return session.Profile{}, fmt.Errorf("saving refreshed profile: %w", err)
	}
	return profile, nil
}

// Logout ends the session locally. The bearer token is stateless on the
// backend, so there is no server call to make.
func (a *Auth) Logout(ctx context.Context) {
	a.session.Invalidate(ctx)
	a.logger.Info("logged out")
}
