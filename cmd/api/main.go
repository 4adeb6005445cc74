package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vantrell/userhub/internal/account"
	accountrepo "github.com/vantrell/userhub/internal/account/repo"
	"github.com/vantrell/userhub/internal/auth"
	"github.com/vantrell/userhub/internal/config"
	"github.com/vantrell/userhub/internal/notify"
	"github.com/vantrell/userhub/internal/rbac"
	rbacrepo "github.com/vantrell/userhub/internal/rbac/repo"
	"github.com/vantrell/userhub/internal/router"
	"github.com/vantrell/userhub/pkg/database"
	"github.com/vantrell/userhub/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting userhub")

	cfg, err := config.FromEnv()
	if err != nil {
		sugar.Fatalf("load config: %v", err)
	}

	// init db
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	accounts := accountrepo.NewAccountRepo(db)
	audits := rbacrepo.NewAuditRepo(db)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := accounts.EnsureTable(ctx); err != nil {
			sugar.Fatalf("ensure users table: %v", err)
		}
		if err := audits.EnsureTable(ctx); err != nil {
			sugar.Fatalf("ensure role_change_logs table: %v", err)
		}
	}

	hasher := auth.BcryptHasher{}
	tokens := auth.NewTokenService(cfg.SecretKey, cfg.AccessTokenTTL)

	var sender notify.Sender
	if cfg.MailSender == "smtp" {
		sender = notify.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			BaseURL:  cfg.ServerBaseURL,
		}
	} else {
		sender = notify.LogSender{BaseURL: cfg.ServerBaseURL, Logger: sugar}
	}

	accountSvc := account.NewService(accounts, hasher, sender, sugar)
	authSvc := auth.NewService(accounts, hasher, cfg.MaxLoginAttempts)
	rbacSvc := rbac.NewService(audits, sugar)

	handler := router.RegisterRoutes(router.Deps{
		Accounts: account.NewHandler(accountSvc, cfg.ServerBaseURL, sugar),
		Auth:     auth.NewHandler(authSvc, tokens, accountSvc, sugar),
		Roles:    rbac.NewHandler(rbacSvc, sugar),
		Tokens:   tokens,
		Logger:   sugar,
	})

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
	}

	// run server in background
	go func() {
		sugar.Infow("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
