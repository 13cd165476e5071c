package devstub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
)

// Config tunes the stub server.
type Config struct {
	// JWTSecret signs issued bearers. Defaults to a fixed dev value.
	JWTSecret string

	// TokenTTL is the bearer lifetime. Defaults to 24h.
	TokenTTL time.Duration
}

func (c *Config) applyDefaults() {
	if c.JWTSecret == "" {
		c.JWTSecret = "portalstub-dev-secret"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
}

// Server is the stub backend.
type Server struct {
	cfg    Config
	logger *logging.Logger
	state  *state
	hub    *hub
	router http.Handler
}

// New creates a stub server with empty state.
func New(cfg Config, logger *logging.Logger) *Server {
	cfg.applyDefaults()
	s := &Server{
		cfg:    cfg,
		logger: logger,
		state:  newState(),
		hub:    newHub(logger),
	}
	s.router = s.buildRouter()
	return s
}

// AddUser seeds an account and returns its ID.
func (s *Server) AddUser(username, name, email, password string, credits int64, isAdmin, isSuperAdmin bool) string {
	return s.state.addAccount(username, name, email, password, credits, isAdmin, isSuperAdmin)
}

// Handler returns the HTTP handler for mounting on a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter wires every route. The /api prefix matches the production
// backend; /ws lives outside it.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Open endpoints
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/forgot-password", s.handleForgotPassword)
		r.Post("/auth/forgot-username", s.handleForgotUsername)
		r.Post("/auth/reset-password", s.handleResetPassword)
		r.Get("/v1/available-apis", s.handleAvailableAPIs)

		// Bearer-protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)

			r.Route("/auth/tokens", func(r chi.Router) {
				r.Get("/", s.handleListTokens)
				r.Post("/", s.handleCreateToken)
				r.Delete("/{id}", s.handleDeleteToken)
			})

			r.Route("/auth/api-subscriptions", func(r chi.Router) {
				r.Get("/", s.handleListSubscriptions)
				r.Post("/", s.handleSubscribe)
				r.Delete("/{apiName}", s.handleUnsubscribe)
			})

			r.Get("/auth/transactions", s.handleTransactions)
			r.Get("/v1/analytics", s.handleAnalytics)
			r.Get("/v1/analytics/{apiName}", s.handleAPIAnalytics)

			r.Route("/support", func(r chi.Router) {
				r.Get("/tickets", s.handleListTickets)
				r.Post("/tickets", s.handleCreateTicket)
				r.Post("/tickets/{id}/messages", s.handleAddTicketMessage)
				r.Get("/check-admin", s.handleCheckAdmin)

				r.Group(func(r chi.Router) {
					r.Use(s.requireAdmin)
					r.Get("/admin/tickets", s.handleAdminListTickets)
					r.Patch("/admin/tickets/{id}/status", s.handleSetTicketStatus)
					r.Patch("/admin/tickets/{id}/priority", s.handleSetTicketPriority)
				})
			})

			r.Post("/payments/initiate", s.handleInitiatePayment)

			r.Group(func(r chi.Router) {
				r.Use(s.requireSuperAdmin)
				r.Get("/super-admin/users", s.handleListUsers)
				r.Patch("/super-admin/users/{id}", s.handleSetUserAdmin)
			})
		})
	})

	// WebSocket: bearer rides as ?token= because the handshake carries no
	// Authorization header.
	r.Get("/ws", s.handleWebSocket)

	return r
}

// ctxKey keys request-scoped values.
type ctxKey int

const ctxKeyUserID ctxKey = iota

// userID extracts the authenticated user from the request context.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}

// issueToken mints a bearer for the given user.
func (s *Server) issueToken(id string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// verifyToken validates a bearer and returns the user ID.
func (s *Server) verifyToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("missing subject claim")
	}
	if _, found := s.state.get(claims.Subject); !found {
		return "", fmt.Errorf("unknown user")
	}
	return claims.Subject, nil
}

// authMiddleware validates the Authorization bearer.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		id, err := s.verifyToken(header[len(prefix):])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates the support-admin endpoints.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := s.state.get(userID(r))
		if !ok || !acct.IsAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireSuperAdmin gates the user-management endpoints.
func (s *Server) requireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := s.state.get(userID(r))
		if !ok || !acct.IsSuperAdmin {
			writeError(w, http.StatusForbidden, "super-admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs one line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// recoveryMiddleware converts panics into 500s.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "panic", rec, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the backend's error body shape.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
