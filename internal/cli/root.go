package cli

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/vaccine-scheduler/internal/account"
	"github.com/hackgods/vaccine-scheduler/internal/config"
	"github.com/hackgods/vaccine-scheduler/internal/db"
	redisclient "github.com/hackgods/vaccine-scheduler/internal/redis"
	"github.com/hackgods/vaccine-scheduler/internal/scheduling"
)

// NewRootCommand creates the scheduler CLI entry point.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scheduler",
		Short:        "Vaccine appointment scheduler",
		Long:         "Interactive scheduler coordinating patients, caregivers, vaccine stock and appointments against a shared Postgres store.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context())
		},
	}
	return cmd
}

func runInteractive(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgCtx, cancelPg := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	var locker redisclient.Locker
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		locker = redisclient.NewRedisDayLocker(rdb, cfg.LockTTL)
	}

	store := scheduling.NewPgStore(pool)
	sched := scheduling.NewService(store, locker)
	accounts := account.NewService(account.NewPgRepository(pool))

	sess := NewSession(accounts, sched, os.Stdin, os.Stdout)
	return sess.Run(ctx)
}
