// portalctl is the terminal client for the Swaroop API developer portal.
//
// It speaks the portal's REST and WebSocket contract: manage the session,
// API tokens and subscriptions, inspect the credit ledger and usage, raise
// support tickets, and watch live updates. Run without arguments for the
// command list.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
	"github.com/swaroop-labs/portalctl/internal/guard"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/config"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/database"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/portal"
	"github.com/swaroop-labs/portalctl/internal/session"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired SDK for command handlers.
type app struct {
	cfg    *config.Config
	logger *logging.Logger

	session *session.Session
	client  *apiclient.Client

	auth          *portal.Auth
	tokens        *portal.Tokens
	subscriptions *portal.Subscriptions
	transactions  *portal.Transactions
	analytics     *portal.Analytics
	tickets       *portal.Tickets
	payments      *portal.Payments
	admin         *portal.Admin
}

// run wires the application and dispatches the subcommand.
func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("portalctl", flag.ContinueOnError)
	configPath := flags.String("config", config.DefaultPath(), "path to config file")
	flags.Usage = printUsage
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		printUsage()
		return nil
	}

	cfg, err := config.Load(*configPath, true)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, version)
	logger.Debug("starting portalctl", "version", version, "commit", commit)

	db, err := database.Open(database.Config{
		Path:        cfg.State.Path,
		BusyTimeout: cfg.State.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("closing state database", "error", closeErr)
		}
	}()

	store, err := session.NewSQLiteStore(db.DB)
	if err != nil {
		return fmt.Errorf("preparing credential store: %w", err)
	}
	sess := session.New(store, logger)
	sess.OnInvalidate(func() {
		fmt.Fprintln(os.Stderr, "Session ended. Run 'portalctl login' to sign in again.")
	})

	client := apiclient.New(cfg.Backend.BaseURL, cfg.GetRequestTimeout(), sess, logger)
	a := &app{
		cfg:           cfg,
		logger:        logger,
		session:       sess,
		client:        client,
		auth:          portal.NewAuth(client, sess, logger),
		tokens:        portal.NewTokens(client),
		subscriptions: portal.NewSubscriptions(client),
		transactions:  portal.NewTransactions(client),
		analytics:     portal.NewAnalytics(client),
		tickets:       portal.NewTickets(client),
		payments:      portal.NewPayments(client, logger),
		admin:         portal.NewAdmin(client),
	}
	// Balance changes on purchase; keep the local snapshot in step.
	a.payments.OnCompleted(func(ctx context.Context) {
		if _, refreshErr := a.auth.RefreshProfile(ctx); refreshErr != nil {
			logger.Warn("refreshing profile after purchase", "error", refreshErr)
		}
	})

	return a.dispatch(ctx, flags.Arg(0), flags.Args()[1:])
}

// messageNavigator satisfies guard.Navigator for a CLI: a forced
// navigation becomes a printed instruction.
type messageNavigator struct{}

func (messageNavigator) GoTo(route guard.Route) {
	switch route {
	case guard.RouteLogin:
		fmt.Fprintln(os.Stderr, "This command requires a session. Run 'portalctl login' first.")
	case guard.RouteHome:
		fmt.Fprintln(os.Stderr, "This command requires the support-admin role.")
	}
}

// requireAuth resolves the authenticated gate before a protected command.
func (a *app) requireAuth(ctx context.Context) error {
	gate := guard.NewAuthGate(a.session, messageNavigator{}, a.logger)
	if !gate.Allow(ctx) {
		return fmt.Errorf("not logged in")
	}
	return nil
}

// requireAdmin resolves the privileged gate against the server. The cached
// admin flag is never consulted; a failed check denies.
func (a *app) requireAdmin(ctx context.Context) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	gate := guard.NewPrivilegedGate(a.admin, messageNavigator{}, a.logger)
	if gate.Resolve(ctx) != guard.Granted {
		return fmt.Errorf("admin role required")
	}
	return nil
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		a.auth.Logout(ctx)
		return nil
	case "signup":
		return a.cmdSignup(ctx, args)
	case "forgot-password":
		return a.cmdForgotPassword(ctx, args)
	case "reset-password":
		return a.cmdResetPassword(ctx, args)
	case "me":
		return a.cmdMe(ctx)
	case "tokens":
		return a.cmdTokens(ctx, args)
	case "subs":
		return a.cmdSubscriptions(ctx, args)
	case "apis":
		return a.cmdAPIs(ctx)
	case "pricing":
		return a.cmdPricing()
	case "transactions":
		return a.cmdTransactions(ctx, args)
	case "analytics":
		return a.cmdAnalytics(ctx, args)
	case "tickets":
		return a.cmdTickets(ctx, args)
	case "buy":
		return a.cmdBuy(ctx, args)
	case "admin":
		return a.cmdAdmin(ctx, args)
	case "watch":
		return a.cmdWatch(ctx)
	case "version":
		fmt.Printf("portalctl %s (%s)\n", version, commit)
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `portalctl - Swaroop API developer portal client

Usage: portalctl [-config PATH] COMMAND [ARGS]

Account:
  login            Sign in (prompts for credentials)
  logout           End the local session
  signup           Register a new account
  forgot-password  Request a password-reset email
  reset-password   Complete a password reset
  me               Show the current profile

Platform:
  apis             List available hosted APIs
  pricing          Show credit packages
  tokens           Manage API tokens (list|create|delete)
  subs             Manage subscriptions (list|add|remove)
  transactions     Show the credit ledger
  analytics        Show usage statistics
  buy              Purchase a credit package
  watch            Follow live updates until interrupted

Support:
  tickets          Support tickets (list|create|reply)
  admin            Admin operations (tickets|status|priority|users|set-admin)
`)
}
