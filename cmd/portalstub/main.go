// portalstub runs the local stand-in for the developer-portal backend.
//
// It serves the full REST and WebSocket contract over in-memory state and
// seeds a few demo accounts, so portalctl can be exercised end to end with
// no production backend in reach. State is lost on exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swaroop-labs/portalctl/internal/devstub"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/config"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	addr := flag.String("addr", "localhost:5000", "listen address")
	secret := flag.String("jwt-secret", "", "JWT signing secret (random default)")
	flag.Parse()

	logger := logging.New(config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}, version)

	stub := devstub.New(devstub.Config{JWTSecret: *secret}, logger)

	// Demo accounts: a plain user, a support admin, and a super admin.
	stub.AddUser("demo", "Demo User", "demo@example.com", "demo1234", 250, false, false)
	stub.AddUser("support", "Support Admin", "support@example.com", "support1234", 0, true, false)
	stub.AddUser("root", "Super Admin", "root@example.com", "root1234", 0, true, true)
	logger.Info("seeded demo accounts", "users", []string{"demo", "support", "root"})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           stub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("portalstub listening", "addr", *addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
