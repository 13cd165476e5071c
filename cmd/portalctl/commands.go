package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
	"github.com/swaroop-labs/portalctl/internal/catalog"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/portal"
	"github.com/swaroop-labs/portalctl/internal/realtime"
	"github.com/swaroop-labs/portalctl/internal/session"
	"github.com/swaroop-labs/portalctl/internal/views"
)

// prompt reads one line from stdin.
func prompt(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	user := flags.String("user", "", "username or email (prompted if omitted)")
	password := flags.String("password", "", "password (prompted if omitted)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	var err error
	if *user == "" {
		if *user, err = prompt("Username or email"); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = prompt("Password"); err != nil {
			return err
		}
	}

	profile, err := a.auth.Login(ctx, *user, *password)
	if err != nil {
		return loginFailure(err)
	}
	fmt.Printf("Logged in as %s (%s). Credits: %d\n", profile.Username, profile.Email, profile.Credits)
	return nil
}

// loginFailure turns API errors into the message a user should see.
func loginFailure(err error) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("login failed: %s", apiErr.UserMessage())
	}
	return fmt.Errorf("login failed: %w", err)
}

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("signup", flag.ContinueOnError)
	username := flags.String("user", "", "username")
	name := flags.String("name", "", "display name")
	email := flags.String("email", "", "email address")
	password := flags.String("password", "", "password (prompted if omitted)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return fmt.Errorf("signup requires -user and -email")
	}
	var err error
	if *password == "" {
		if *password, err = prompt("Password"); err != nil {
			return err
		}
	}

	if err := a.auth.Signup(ctx, portal.SignupRequest{
		Username: *username,
		Name:     *name,
		Email:    *email,
		Password: *password,
	}); err != nil {
		return err
	}
	fmt.Println("Account created. Run 'portalctl login' to sign in.")
	return nil
}

func (a *app) cmdForgotPassword(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: portalctl forgot-password EMAIL")
	}
	if err := a.auth.ForgotPassword(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("If the account exists, a reset email has been sent.")
	return nil
}

func (a *app) cmdResetPassword(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: portalctl reset-password RESET_TOKEN")
	}
	password, err := prompt("New password")
	if err != nil {
		return err
	}
	if err := a.auth.ResetPassword(ctx, args[0], password); err != nil {
		return err
	}
	fmt.Println("Password updated.")
	return nil
}

func (a *app) cmdMe(ctx context.Context) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	profile, err := a.auth.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	printProfile(profile)
	return nil
}

func printProfile(p session.Profile) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Username:\t%s\n", p.Username)
	if p.Name != "" {
		fmt.Fprintf(w, "Name:\t%s\n", p.Name)
	}
	fmt.Fprintf(w, "Email:\t%s\n", p.Email)
	fmt.Fprintf(w, "Credits:\t%d\n", p.Credits)
	if p.IsAdmin {
		fmt.Fprintf(w, "Role:\tsupport-admin\n")
	}
	w.Flush() //nolint:errcheck // Stdout table output
}

func (a *app) cmdTokens(ctx context.Context, args []string) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		tokens, err := a.tokens.List(ctx)
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			fmt.Println("No API tokens. Create one with 'portalctl tokens create NAME'.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED")
		for _, token := range tokens {
			fmt.Fprintf(w, "%s\t%s\t%s\n", token.ID, token.Name, token.CreatedAt.Format(time.DateOnly))
		}
		return w.Flush()
	case "create":
		if len(args) != 2 {
			return fmt.Errorf("usage: portalctl tokens create NAME")
		}
		token, err := a.tokens.Create(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Token created: %s\n", token.Token)
		fmt.Println("Store it now; it will not be shown again.")
		return nil
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: portalctl tokens delete ID")
		}
		if err := a.tokens.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Token revoked.")
		return nil
	default:
		return fmt.Errorf("unknown tokens subcommand %q", sub)
	}
}

func (a *app) cmdSubscriptions(ctx context.Context, args []string) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		subs, err := a.subscriptions.List(ctx)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			fmt.Println("No subscriptions. See 'portalctl apis' for the catalogue.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "API\tSINCE")
		for _, s := range subs {
			fmt.Fprintf(w, "%s\t%s\n", s.APIName, s.SubscribedAt.Format(time.DateOnly))
		}
		return w.Flush()
	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: portalctl subs add API_NAME")
		}
		if err := a.subscriptions.Subscribe(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Subscribed to %s.\n", args[1])
		return nil
	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: portalctl subs remove API_NAME")
		}
		if err := a.subscriptions.Unsubscribe(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Unsubscribed from %s.\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown subs subcommand %q", sub)
	}
}

// cmdAPIs prefers the live offering and falls back to the embedded
// catalogue when the backend is unreachable or the user is logged out.
func (a *app) cmdAPIs(ctx context.Context) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENDPOINT\tCREDITS/CALL\tDESCRIPTION")

	if apis, err := a.subscriptions.Available(ctx); err == nil {
		for _, api := range apis {
			fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\n", api.Name, api.Endpoint, api.PricePerCall, api.Description)
		}
		return w.Flush()
	}

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	for _, api := range cat.APIs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", api.Name, api.Path, api.CreditsPerCall, api.Description)
	}
	return w.Flush()
}

func (a *app) cmdPricing() error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tPRICE\tCREDITS\tBONUS")
	for _, pkg := range cat.Packages {
		fmt.Fprintf(w, "%s\t%.0f\t%d\t+%d\n", pkg.DisplayName, pkg.Amount, pkg.Credits, pkg.BonusCredits())
	}
	return w.Flush()
}

func (a *app) cmdTransactions(ctx context.Context, args []string) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	flags := flag.NewFlagSet("transactions", flag.ContinueOnError)
	page := flags.Int("page", 1, "page number")
	limit := flags.Int("limit", 20, "entries per page")
	txType := flags.String("type", "", "filter: purchase, usage or bonus")
	if err := flags.Parse(args); err != nil {
		return err
	}

	result, err := a.transactions.List(ctx, portal.TransactionQuery{
		Page:      *page,
		Limit:     *limit,
		Type:      *txType,
		SortBy:    "createdAt",
		SortOrder: "desc",
	})
	if err != nil {
		return err
	}
	if result.Total == 0 {
		fmt.Println("No transactions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tCREDITS\tAMOUNT\tDESCRIPTION")
	for _, txn := range result.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%+d\t%.2f\t%s\n",
			txn.CreatedAt.Format(time.DateOnly), txn.Type, txn.Credits, txn.Amount, txn.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("Page %d of %d entries.\n", *page, result.Total)
	return nil
}

func (a *app) cmdAnalytics(ctx context.Context, args []string) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	flags := flag.NewFlagSet("analytics", flag.ContinueOnError)
	timeRange := flags.String("range", "7d", "time range, e.g. 7d or 30d")
	apiName := flags.String("api", "", "single API breakdown")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *apiName != "" {
		stats, err := a.analytics.ForAPI(ctx, *apiName, *timeRange)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d calls, %d credits used\n", stats.APIName, stats.Calls, stats.Credits)
		return nil
	}

	summary, err := a.analytics.Summary(ctx, *timeRange)
	if err != nil {
		return err
	}
	fmt.Printf("Total calls: %d\nCredits used: %d\n", summary.TotalCalls, summary.TotalCredits)
	for _, point := range summary.Series {
		fmt.Printf("  %s  %d calls\n", point.Date, point.Calls)
	}
	return nil
}

func (a *app) cmdTickets(ctx context.Context, args []string) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		tickets, err := a.tickets.List(ctx)
		if err != nil {
			return err
		}
		printTickets(tickets)
		return nil
	case "create":
		flags := flag.NewFlagSet("tickets create", flag.ContinueOnError)
		subject := flags.String("subject", "", "ticket subject")
		category := flags.String("category", "technical", "category")
		priority := flags.String("priority", "medium", "low, medium, high or urgent")
		message := flags.String("message", "", "ticket body")
		attach := flags.String("attach", "", "path of a file to attach")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		if *subject == "" || *message == "" {
			return fmt.Errorf("tickets create requires -subject and -message")
		}

		req := portal.CreateTicketRequest{
			Subject:  *subject,
			Category: *category,
			Priority: *priority,
			Message:  *message,
		}
		if *attach != "" {
			data, err := os.ReadFile(*attach)
			if err != nil {
				return fmt.Errorf("reading attachment: %w", err)
			}
			req.Attachments = append(req.Attachments, portal.Attachment{
				Filename: filepath.Base(*attach),
				Data:     data,
			})
		}

		ticket, err := a.tickets.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("Ticket %s created.\n", ticket.ID)
		return nil
	case "reply":
		if len(args) < 3 {
			return fmt.Errorf("usage: portalctl tickets reply TICKET_ID MESSAGE")
		}
		if _, err := a.tickets.AddMessage(ctx, args[1], strings.Join(args[2:], " "), nil); err != nil {
			return err
		}
		fmt.Println("Reply sent.")
		return nil
	default:
		return fmt.Errorf("unknown tickets subcommand %q", sub)
	}
}

func printTickets(tickets []portal.Ticket) {
	if len(tickets) == 0 {
		fmt.Println("No tickets.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tSUBJECT")
	for _, tkt := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tkt.ID, tkt.Status, tkt.Priority, tkt.Subject)
	}
	w.Flush() //nolint:errcheck // Stdout table output
}

func (a *app) cmdBuy(ctx context.Context, args []string) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: portalctl buy PACKAGE (see 'portalctl pricing')")
	}

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	pkg, ok := cat.Package(strings.ToLower(args[0]))
	if !ok {
		return fmt.Errorf("unknown package %q", args[0])
	}

	order, err := a.payments.Initiate(ctx, pkg.Amount, pkg.Credits)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s: %d credits (+%d bonus) for %.0f %s\n",
		order.OrderID, order.Credits, order.BonusCredits, order.Amount, order.Currency)
	return nil
}

func (a *app) cmdAdmin(ctx context.Context, args []string) error {
	if err := a.requireAdmin(ctx); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: portalctl admin tickets|status|priority|users|set-admin")
	}

	switch args[0] {
	case "tickets":
		tickets, err := a.tickets.AdminList(ctx)
		if err != nil {
			return err
		}
		printTickets(tickets)
		return nil
	case "status":
		if len(args) != 3 {
			return fmt.Errorf("usage: portalctl admin status TICKET_ID STATUS")
		}
		return a.tickets.SetStatus(ctx, args[1], args[2])
	case "priority":
		if len(args) != 3 {
			return fmt.Errorf("usage: portalctl admin priority TICKET_ID PRIORITY")
		}
		return a.tickets.SetPriority(ctx, args[1], args[2])
	case "users":
		users, err := a.admin.ListUsers(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCREDITS\tADMIN")
		for _, user := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\n", user.ID, user.Username, user.Email, user.Credits, user.IsAdmin)
		}
		return w.Flush()
	case "set-admin":
		if len(args) != 3 {
			return fmt.Errorf("usage: portalctl admin set-admin USER_ID true|false")
		}
		return a.admin.SetAdmin(ctx, args[1], args[2] == "true")
	default:
		return fmt.Errorf("unknown admin subcommand %q", args[0])
	}
}

// cmdWatch follows live updates until interrupted: pushed events trigger
// re-fetches, with a periodic sweep as a fallback.
func (a *app) cmdWatch(ctx context.Context) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}

	channel := realtime.New(realtime.Options{
		URL:            a.cfg.WebSocketURL(),
		Token:          a.session.Token,
		ReconnectDelay: a.cfg.GetReconnectDelay(),
		MaxAttempts:    a.cfg.Realtime.MaxAttempts,
		MaxMessageSize: int64(a.cfg.Realtime.MaxMessageSize),
		PingInterval:   time.Duration(a.cfg.Realtime.PingInterval) * time.Second,
		PongTimeout:    time.Duration(a.cfg.Realtime.PongTimeout) * time.Second,
		Logger:         a.logger,
	})
	watcher := views.NewWatcher(channel, a.cfg.GetRefreshInterval(), a.logger)

	profile := views.NewRefresher(
		func(ctx context.Context) (session.Profile, error) { return a.auth.RefreshProfile(ctx) },
		func(p session.Profile) { fmt.Printf("[%s] credits: %d\n", now(), p.Credits) },
		a.logger,
	)
	tickets := views.NewRefresher(
		a.tickets.List,
		func(tkts []portal.Ticket) { fmt.Printf("[%s] open tickets: %d\n", now(), countOpen(tkts)) },
		a.logger,
	)
	subs := views.NewRefresher(
		a.subscriptions.List,
		func(s []portal.Subscription) { fmt.Printf("[%s] subscriptions: %d\n", now(), len(s)) },
		a.logger,
	)

	watcher.Bind("transaction_posted", refreshOf(profile, a.logger))
	watcher.Bind("subscription_changed", refreshOf(subs, a.logger))
	watcher.Bind("ticket_updated", refreshOf(tickets, a.logger))

	fmt.Println("Watching for updates. Ctrl+C to stop.")
	err := watcher.Run(ctx)
	if ctx.Err() != nil {
		fmt.Println("Stopped.")
		return nil
	}
	return err
}

// refreshOf adapts a typed refresher to the watcher's callback shape.
func refreshOf[T any](r *views.Refresher[T], logger *logging.Logger) views.RefreshFunc {
	return func(ctx context.Context) {
		if err := r.Refresh(ctx); err != nil {
			logger.Warn("refresh failed", "error", err)
		}
	}
}

func countOpen(tickets []portal.Ticket) int {
	open := 0
	for _, tkt := range tickets {
		if tkt.Status == "open" || tkt.Status == "in-progress" {
			open++
		}
	}
	return open
}

func now() string {
	return time.Now().Format(time.TimeOnly)
}
