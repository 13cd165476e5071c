package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
	"github.com/swaroop-labs/portalctl/internal/guard"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/session"
)

// newPortal spins up a fake backend and wires a fresh session + client
// against it.
func newPortal(t *testing.T, handler http.HandlerFunc) (*apiclient.Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.New(session.NewMemoryStore(), logging.Default())
	client := apiclient.New(srv.URL, 5*time.Second, sess, logging.Default())
	return client, sess
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestAuth_LoginEstablishesSession(t *testing.T) {
	client, sess := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding login body: %v", err)
		}
		if body["usernameOrEmail"] != "asha" || body["password"] != "hunter2" {
			t.Errorf("login body = %v", body)
		}
		writeJSON(t, w, map[string]any{
			"token": "tok-123",
			"user": map[string]any{
				"id": "usr-1", "username": "asha", "email": "asha@example.com",
				"credits": 250, "isAdmin": false,
			},
		})
	})
	auth := NewAuth(client, sess, logging.Default())

	profile, err := auth.Login(context.Background(), "asha", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if profile.Username != "asha" || profile.Credits != 250 {
		t.Errorf("profile = %+v", profile)
	}

	token, ok := sess.Token(context.Background())
	if !ok || token != "tok-123" {
		t.Errorf("session token = %q, %v; want tok-123, true", token, ok)
	}
}

func TestAuth_LoginFailureLeavesSessionEmpty(t *testing.T) {
	client, sess := newPortal(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(t, w, map[string]string{"message": "invalid credentials"})
	})
	auth := NewAuth(client, sess, logging.Default())

	_, err := auth.Login(context.Background(), "asha", "wrong")
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want ErrUnauthorized", err)
	}
	if _, ok := sess.Token(context.Background()); ok {
		t.Error("session holds a token after a failed login")
	}
}

func TestAuth_RefreshProfileWritesThrough(t *testing.T) {
	client, sess := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, map[string]any{
			"id": "usr-1", "username": "asha", "email": "asha@example.com",
			"credits": 900,
		})
	})
	if err := sess.Establish(context.Background(), session.Credential{
		Token:   "tok-123",
		Profile: session.Profile{ID: "usr-1", Username: "asha", Email: "asha@example.com", Credits: 250},
	}); err != nil {
		t.Fatalf("establishing session: %v", err)
	}
	auth := NewAuth(client, sess, logging.Default())

	profile, err := auth.RefreshProfile(context.Background())
	if err != nil {
		t.Fatalf("RefreshProfile() error = %v", err)
	}
	if profile.Credits != 900 {
		t.Errorf("refreshed credits = %d, want 900", profile.Credits)
	}

	cred, ok := sess.Current(context.Background())
	if !ok {
		t.Fatal("session lost after refresh")
	}
	if cred.Token != "tok-123" || cred.Profile.Credits != 900 {
		t.Errorf("session credential = %+v; want same token, updated profile", cred)
	}
}

func TestTokens_CreateRequiresName(t *testing.T) {
	client, _ := newPortal(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for an empty name")
	})

	_, err := NewTokens(client).Create(context.Background(), "")
	if !errors.Is(err, ErrEmptyTokenName) {
		t.Errorf("Create(\"\") error = %v, want ErrEmptyTokenName", err)
	}
}

func TestTransactions_QueryParamsEncoded(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	client, _ := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		for param, want := range map[string]string{
			"page":      "2",
			"limit":     "25",
			"type":      "purchase",
			"sortBy":    "createdAt",
			"sortOrder": "desc",
			"startDate": "2026-01-01T00:00:00Z",
		} {
			if got := q.Get(param); got != want {
				t.Errorf("query %s = %q, want %q", param, got, want)
			}
		}
		if q.Has("endDate") {
			t.Error("zero endDate should be omitted")
		}
		writeJSON(t, w, TransactionPage{Total: 40})
	})

	page, err := NewTransactions(client).List(context.Background(), TransactionQuery{
		Page: 2, Limit: 25, Type: "purchase",
		SortBy: "createdAt", SortOrder: "desc", StartDate: start,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 40 {
		t.Errorf("Total = %d, want 40", page.Total)
	}
}

func TestBonusCredits(t *testing.T) {
	tests := []struct {
		credits int64
		want    int64
	}{
		{credits: 100, want: 0},
		{credits: 499, want: 0},
		{credits: 500, want: 50},
		{credits: 999, want: 99},
		{credits: 1000, want: 150},
		{credits: 2000, want: 300},
	}
	for _, tt := range tests {
		if got := BonusCredits(tt.credits); got != tt.want {
			t.Errorf("BonusCredits(%d) = %d, want %d", tt.credits, got, tt.want)
		}
	}
}

func TestPayments_CompletionCallbackRunsAfterSuccess(t *testing.T) {
	var mu sync.Mutex
	var seenKeys []string
	client, _ := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		key, _ := body["idempotencyKey"].(string)
		if key == "" {
			t.Error("missing idempotency key")
		}
		mu.Lock()
		seenKeys = append(seenKeys, key)
		mu.Unlock()
		writeJSON(t, w, PaymentOrder{OrderID: "ord-1", Amount: 10, Credits: 1000, Currency: "INR"})
	})

	payments := NewPayments(client, logging.Default())
	var refreshed int
	payments.OnCompleted(func(context.Context) { refreshed++ })

	order, err := payments.Initiate(context.Background(), 10, 1000)
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if order.BonusCredits != 150 {
		t.Errorf("BonusCredits = %d, want 150", order.BonusCredits)
	}
	if refreshed != 1 {
		t.Errorf("completion callbacks ran %d times, want 1", refreshed)
	}

	if _, err := payments.Initiate(context.Background(), 10, 1000); err != nil {
		t.Fatalf("second Initiate() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seenKeys) != 2 || seenKeys[0] == seenKeys[1] {
		t.Errorf("idempotency keys %v, want two distinct keys", seenKeys)
	}
}

func TestPayments_NoCallbackOnFailure(t *testing.T) {
	client, _ := newPortal(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	payments := NewPayments(client, logging.Default())
	var refreshed int
	payments.OnCompleted(func(context.Context) { refreshed++ })

	if _, err := payments.Initiate(context.Background(), 10, 500); err == nil {
		t.Fatal("Initiate() succeeded against a failing gateway")
	}
	if refreshed != 0 {
		t.Errorf("completion callbacks ran %d times on failure, want 0", refreshed)
	}

	if _, err := payments.Initiate(context.Background(), -1, 500); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Initiate(-1) error = %v, want ErrInvalidAmount", err)
	}
}

func TestTickets_CreateSendsMultipartForm(t *testing.T) {
	client, _ := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		if got := r.FormValue("subject"); got != "API returns 500" {
			t.Errorf("subject = %q", got)
		}
		if got := r.FormValue("priority"); got != "high" {
			t.Errorf("priority = %q", got)
		}
		files := r.MultipartForm.File["attachments"]
		if len(files) != 1 || files[0].Filename != "trace.log" {
			t.Fatalf("attachments = %v, want one trace.log", files)
		}
		writeJSON(t, w, Ticket{ID: "tkt-1", Subject: "API returns 500", Status: "open"})
	})

	ticket, err := NewTickets(client).Create(context.Background(), CreateTicketRequest{
		Subject:  "API returns 500",
		Category: "technical",
		Priority: "high",
		Message:  "Started failing this morning.",
		Attachments: []Attachment{
			{Filename: "trace.log", Data: []byte("stack trace here")},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ticket.ID != "tkt-1" || ticket.Status != "open" {
		t.Errorf("ticket = %+v", ticket)
	}
}

func TestAdmin_CheckAdminVerdicts(t *testing.T) {
	tests := []struct {
		name    string
		isAdmin bool
	}{
		{name: "granted", isAdmin: true},
		{name: "denied", isAdmin: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/support/check-admin" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				writeJSON(t, w, map[string]bool{"isAdmin": tt.isAdmin})
			})

			verdict, err := NewAdmin(client).CheckAdmin(context.Background())
			if err != nil {
				t.Fatalf("CheckAdmin() error = %v", err)
			}
			if verdict.IsAdmin != tt.isAdmin {
				t.Errorf("verdict.IsAdmin = %v, want %v", verdict.IsAdmin, tt.isAdmin)
			}
		})
	}
}

// Compile-time check: the admin service feeds the privileged gate directly.
var _ guard.RoleChecker = (*Admin)(nil)
