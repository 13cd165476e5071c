package devstub

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
	"github.com/swaroop-labs/portalctl/internal/guard"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/portal"
	"github.com/swaroop-labs/portalctl/internal/realtime"
	"github.com/swaroop-labs/portalctl/internal/session"
)

// harness is a stub server plus a fully wired SDK stack pointed at it.
type harness struct {
	stub *Server
	srv  *httptest.Server

	sess   *session.Session
	client *apiclient.Client
	auth   *portal.Auth
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logging.Default()

	stub := New(Config{}, logger)
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)

	sess := session.New(session.NewMemoryStore(), logger)
	client := apiclient.New(srv.URL, 5*time.Second, sess, logger)
	return &harness{
		stub:   stub,
		srv:    srv,
		sess:   sess,
		client: client,
		auth:   portal.NewAuth(client, sess, logger),
	}
}

func (h *harness) wsURL() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
}

func (h *harness) login(t *testing.T, usernameOrEmail, password string) session.Profile {
	t.Helper()
	profile, err := h.auth.Login(context.Background(), usernameOrEmail, password)
	if err != nil {
		t.Fatalf("Login(%s) error = %v", usernameOrEmail, err)
	}
	return profile
}

func TestStub_LoginAndProfileRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("asha", "Asha V", "asha@example.com", "hunter2", 250, false, false)

	profile := h.login(t, "asha@example.com", "hunter2")
	if profile.Username != "asha" || profile.Credits != 250 {
		t.Errorf("profile = %+v", profile)
	}

	me, err := h.auth.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if me.ID != profile.ID {
		t.Errorf("Me().ID = %s, want %s", me.ID, profile.ID)
	}
}

func TestStub_BadLoginRejected(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("asha", "", "asha@example.com", "hunter2", 0, false, false)

	_, err := h.auth.Login(context.Background(), "asha", "wrong")
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestStub_ForgedBearerInvalidatesSession(t *testing.T) {
	h := newHarness(t)
	if err := h.sess.Establish(context.Background(), session.Credential{
		Token:   "forged-token",
		Profile: session.Profile{ID: "usr-x", Username: "evil", Email: "e@example.com"},
	}); err != nil {
		t.Fatalf("establishing session: %v", err)
	}

	_, err := h.auth.Me(context.Background())
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("Me() error = %v, want ErrUnauthorized", err)
	}
	if _, ok := h.sess.Current(context.Background()); ok {
		t.Error("session survived a server-side 401")
	}
}

func TestStub_SubscriptionLifecycle(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("asha", "", "asha@example.com", "hunter2", 100, false, false)
	h.login(t, "asha", "hunter2")
	subs := portal.NewSubscriptions(h.client)
	ctx := context.Background()

	available, err := subs.Available(ctx)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if len(available) < 4 {
		t.Fatalf("available APIs = %d, want at least 4", len(available))
	}

	if err := subs.Subscribe(ctx, "image-compression"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := subs.Subscribe(ctx, "image-compression"); err == nil {
		t.Error("duplicate Subscribe() succeeded")
	}
	if err := subs.Subscribe(ctx, "no-such-api"); err == nil {
		t.Error("Subscribe(no-such-api) succeeded")
	}

	active, err := subs.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 1 || active[0].APIName != "image-compression" {
		t.Errorf("subscriptions = %+v", active)
	}

	if err := subs.Unsubscribe(ctx, "image-compression"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
}

func TestStub_PurchasePostsLedgerAndPushesEvent(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("asha", "", "asha@example.com", "hunter2", 0, false, false)
	h.login(t, "asha", "hunter2")
	ctx := context.Background()

	// Realtime channel listening for the ledger push.
	channel := realtime.New(realtime.Options{
		URL:            h.wsURL(),
		Token:          h.sess.Token,
		ReconnectDelay: 50 * time.Millisecond,
		Logger:         logging.Default(),
	})
	var pushes atomic.Int32
	channel.On("transaction_posted", func(realtime.Event) { pushes.Add(1) })
	if err := channel.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer channel.Close()

	payments := portal.NewPayments(h.client, logging.Default())
	order, err := payments.Initiate(ctx, 1000, 1000)
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if order.BonusCredits != 150 {
		t.Errorf("BonusCredits = %d, want 150", order.BonusCredits)
	}

	page, err := portal.NewTransactions(h.client).List(ctx, portal.TransactionQuery{Type: "purchase"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 1 {
		t.Errorf("purchase transactions = %d, want 1", page.Total)
	}

	profile, err := h.auth.RefreshProfile(ctx)
	if err != nil {
		t.Fatalf("RefreshProfile() error = %v", err)
	}
	if profile.Credits != 1150 {
		t.Errorf("credits after purchase = %d, want 1150", profile.Credits)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pushes.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if pushes.Load() == 0 {
		t.Error("no transaction_posted push received")
	}
}

func TestStub_SubscriptionChangePushesEvent(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("asha", "", "asha@example.com", "hunter2", 0, false, false)
	h.login(t, "asha", "hunter2")
	ctx := context.Background()

	channel := realtime.New(realtime.Options{
		URL:            h.wsURL(),
		Token:          h.sess.Token,
		ReconnectDelay: 50 * time.Millisecond,
		Logger:         logging.Default(),
	})
	var pushes atomic.Int32
	channel.On("subscription_changed", func(realtime.Event) { pushes.Add(1) })
	if err := channel.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer channel.Close()

	subs := portal.NewSubscriptions(h.client)
	if err := subs.Subscribe(ctx, "image-compression"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := subs.Unsubscribe(ctx, "image-compression"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}

	// One push per mutation: subscribe and unsubscribe.
	deadline := time.Now().Add(2 * time.Second)
	for pushes.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := pushes.Load(); got != 2 {
		t.Errorf("subscription_changed pushes = %d, want 2", got)
	}
}

func TestStub_PrivilegedGateAgainstServer(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("root", "", "root@example.com", "s3cret", 0, true, true)
	h.stub.AddUser("asha", "", "asha@example.com", "hunter2", 0, false, false)

	// Plain user: gate denies whatever the client might have cached.
	h.login(t, "asha", "hunter2")
	nav := &stubNavigator{}
	gate := guard.NewPrivilegedGate(portal.NewAdmin(h.client), nav, logging.Default())
	if state := gate.Resolve(context.Background()); state != guard.Denied {
		t.Errorf("Resolve() for plain user = %v, want Denied", state)
	}

	// Admin user: granted, and the admin surface works.
	h.login(t, "root", "s3cret")
	gate = guard.NewPrivilegedGate(portal.NewAdmin(h.client), &stubNavigator{}, logging.Default())
	if state := gate.Resolve(context.Background()); state != guard.Granted {
		t.Errorf("Resolve() for admin = %v, want Granted", state)
	}
	users, err := portal.NewAdmin(h.client).ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("users = %d, want 2", len(users))
	}
}

func TestStub_AdminEndpointsForbiddenForPlainUser(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("asha", "", "asha@example.com", "hunter2", 0, false, false)
	h.login(t, "asha", "hunter2")

	_, err := portal.NewTickets(h.client).AdminList(context.Background())
	if !errors.Is(err, apiclient.ErrForbidden) {
		t.Errorf("AdminList() error = %v, want ErrForbidden", err)
	}
	// A 403 is not a 401: the session must survive.
	if _, ok := h.sess.Current(context.Background()); !ok {
		t.Error("session lost on a 403")
	}
}

func TestStub_TicketConversation(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("support", "", "support@example.com", "s3cret", 0, true, false)
	h.stub.AddUser("asha", "", "asha@example.com", "hunter2", 0, false, false)
	ctx := context.Background()

	h.login(t, "asha", "hunter2")
	tickets := portal.NewTickets(h.client)
	ticket, err := tickets.Create(ctx, portal.CreateTicketRequest{
		Subject:  "Signature extraction returns empty crop",
		Category: "technical",
		Priority: "high",
		Message:  "Worked yesterday, broken today.",
		Attachments: []portal.Attachment{
			{Filename: "sample.png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(ticket.Messages) != 1 || len(ticket.Messages[0].Attachments) != 1 {
		t.Fatalf("ticket = %+v, want one message with one attachment", ticket)
	}

	// Support replies and escalates.
	h.login(t, "support", "s3cret")
	updated, err := tickets.AddMessage(ctx, ticket.ID, "Looking into it.", nil)
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if len(updated.Messages) != 2 || !updated.Messages[1].FromSupport {
		t.Errorf("reply = %+v, want a support-flagged second message", updated.Messages)
	}
	if err := tickets.SetStatus(ctx, ticket.ID, "in-progress"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if err := tickets.SetStatus(ctx, ticket.ID, "bogus"); err == nil {
		t.Error("SetStatus(bogus) succeeded")
	}

	// The reporter sees the updated conversation.
	h.login(t, "asha", "hunter2")
	mine, err := tickets.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(mine) != 1 || mine[0].Status != "in-progress" {
		t.Errorf("tickets = %+v, want one in-progress ticket", mine)
	}
}

type stubNavigator struct{ routes []guard.Route }

func (n *stubNavigator) GoTo(route guard.Route) { n.routes = append(n.routes, route) }
