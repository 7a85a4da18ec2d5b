package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	authrepo "github.com/ovaphlow/pitchfork/service-task-go/internal/auth/repo"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/router"
	taskrepo "github.com/ovaphlow/pitchfork/service-task-go/internal/task/repo"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "task-api",
		Short:        "Task tracking service",
		SilenceUsage: true,
	}
	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd())
	// bare invocation serves
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

func newServeCmd() *cobra.Command {
	var addr string
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(sugar *zap.SugaredLogger, db *sqlx.DB) error {
				if migrate {
					if err := ensureTables(cmd.Context(), db); err != nil {
						return err
					}
				}
				tokens, err := auth.NewJWTIssuer(auth.TokenConfigFromEnv())
				if err != nil {
					return fmt.Errorf("token issuer: %w", err)
				}
				return serveHTTP(sugar, db, tokens, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("HTTP_ADDR", "0.0.0.0:8431"), "listen address")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create tables before serving")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users and tasks tables if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(sugar *zap.SugaredLogger, db *sqlx.DB) error {
				if err := ensureTables(cmd.Context(), db); err != nil {
					return err
				}
				sugar.Info("tables ensured")
				return nil
			})
		},
	}
}

// withDeps initializes the logger and database, runs fn and tears both down.
func withDeps(fn func(*zap.SugaredLogger, *sqlx.DB) error) error {
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg := database.ConfigFromEnv()
	db, err := database.Connect(cfg)
	if err != nil {
		sugar.Errorw("db connect", "driver", cfg.Driver, "err", err)
		return err
	}
	defer db.Close()

	return fn(sugar, db)
}

func ensureTables(ctx context.Context, db *sqlx.DB) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := authrepo.NewUserRepo(db).EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure users: %w", err)
	}
	if err := taskrepo.NewTaskRepo(db).EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure tasks: %w", err)
	}
	return nil
}

func serveHTTP(sugar *zap.SugaredLogger, db *sqlx.DB, tokens *auth.JWTIssuer, addr string) error {
	sugar.Infow("starting task api", "addr", addr)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           router.RegisterRoutes(sugar, db, tokens),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	if err := db.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
