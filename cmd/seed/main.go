package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/org-finance-ledger/internal/auth"
	"github.com/sheikh-saqib/org-finance-ledger/internal/client"
	"github.com/sheikh-saqib/org-finance-ledger/internal/config"
	"github.com/sheikh-saqib/org-finance-ledger/internal/logging"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
	"github.com/sheikh-saqib/org-finance-ledger/internal/seed"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.LoadSeed()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, zap.String("service", "ledger-seed"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recipients := cfg.Recipients
	if len(recipients) == 0 {
		recipients = []models.Address{cfg.Owner}
	}

	plan := seed.DemoPlan(recipients[0])
	if cfg.RandomCount > 0 {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		plan = append(plan, seed.RandomPlan(rng, cfg.RandomCount, recipients)...)
	}

	authority, err := auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("token authority", zap.Error(err))
	}
	token, _, err := authority.Issue(cfg.Owner)
	if err != nil {
		logger.Fatal("issue owner token", zap.Error(err))
	}

	c := client.New(cfg.TargetURL, token, nil)
	sum := seed.New(c, logger).Run(ctx, plan)

	// Partial seeding is still a successful deployment.
	if sum.Succeeded == 0 && sum.Attempted > 0 {
		logger.Warn("no seed entry was recorded", zap.String("target", cfg.TargetURL))
	}
}
