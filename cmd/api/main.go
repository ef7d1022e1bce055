package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lakespend/lakespend/internal/api/handlers"
	"github.com/lakespend/lakespend/internal/api/router"
	"github.com/lakespend/lakespend/internal/budget"
	"github.com/lakespend/lakespend/internal/compliance"
	"github.com/lakespend/lakespend/internal/config"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/validator"
	"github.com/lakespend/lakespend/internal/platform/databricks"
	"github.com/lakespend/lakespend/internal/policy"
	"github.com/lakespend/lakespend/internal/store"
	"github.com/lakespend/lakespend/internal/tags"
	"github.com/lakespend/lakespend/internal/worker"
)

// @title LakeSpend API
// @version 1.0
// @description Tag management and tag compliance for Databricks workspaces
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	appLog := logger.Get()
	validator.Init()

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		appLog.Fatal("failed opening scan database: " + err.Error())
	}
	defer st.Close()

	platform := databricks.NewClient(databricks.Config{
		Host:           cfg.Databricks.Host,
		Token:          cfg.Databricks.Token,
		AccountHost:    cfg.Databricks.AccountHost,
		AccountID:      cfg.Databricks.AccountID,
		Timeout:        cfg.Databricks.Timeout,
		RatePerSecond:  cfg.Databricks.RatePerSecond,
		RateBurst:      cfg.Databricks.RateBurst,
		MaxRetries:     cfg.Databricks.MaxRetries,
		RetryBaseDelay: cfg.Databricks.RetryBaseDelay,
	}, appLog)

	tagSvc := tags.NewService(platform, appLog)

	var policyStore budget.PolicyStore
	if api, err := platform.BudgetPolicies(); err == nil {
		policyStore = api
	} else {
		appLog.Info("budget policy management disabled (set DATABRICKS_ACCOUNT_ID to enable)")
	}
	budgetSvc := budget.NewService(policyStore, tagSvc, appLog)

	var pol *policy.Policy
	if cfg.Policy.Path != "" {
		pol, err = policy.Load(cfg.Policy.Path)
		if err != nil {
			appLog.Fatal("failed loading tag policy: " + err.Error())
		}
		appLog.WithFields(map[string]interface{}{
			"path":          cfg.Policy.Path,
			"required_tags": pol.RequiredTags,
		}).Info("tag policy loaded")
	}
	complianceSvc := compliance.NewService(tagSvc, pol, appLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Scan.Enabled {
		if pol == nil {
			appLog.Fatal("scheduled scans require a tag policy (set POLICY_PATH)")
		}
		scheduler := worker.NewScanScheduler(complianceSvc, st, cfg.Scan.Schedule, appLog)
		if err := scheduler.Start(ctx); err != nil {
			appLog.Fatal("failed starting scan scheduler: " + err.Error())
		}
		defer scheduler.Stop()
	}

	h := &router.Handlers{
		Health:     handlers.NewHealthHandler(st, appLog),
		Auth:       handlers.NewAuthHandler(cfg.Auth.APIKey, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, appLog),
		Tags:       handlers.NewTagsHandler(tagSvc, appLog),
		Compliance: handlers.NewComplianceHandler(complianceSvc, st, appLog),
		Budget:     handlers.NewBudgetHandler(budgetSvc, appLog),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, appLog, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLog.WithFields(map[string]interface{}{
			"addr":         srv.Addr,
			"auth_enabled": cfg.AuthEnabled(),
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("server failed: " + err.Error())
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.ErrorWithErr(err, "graceful shutdown failed")
	}
}
