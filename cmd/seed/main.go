// seed loads the demo accounts and tickets, or removes them again with
// --rollback.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var rollback bool

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.BoolVar(&rollback, "rollback", false, "remove the demo data instead of inserting it")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		return err
	}

	s := &seeder{
		accounts:   repository.NewAccountRepository(pg.PoolHandle()),
		tickets:    repository.NewTicketRepository(pg.PoolHandle()),
		history:    repository.NewTicketHistoryRepository(pg.PoolHandle()),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}

	if rollback {
		logger.Info("starting seed rollback")
		if err := s.Rollback(ctx); err != nil {
			return err
		}
		logger.Info("seeding rolled back successfully")
		return nil
	}

	logger.Info("seeding started")
	if err := s.Seed(ctx); err != nil {
		return err
	}
	logger.Info("seeded successfully", zap.Int("accounts", len(demoAccounts)), zap.Int("tickets", len(demoSubjects)))
	return nil
}
