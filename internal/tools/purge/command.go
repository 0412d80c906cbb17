// Package purge implements the destructive credential wipe. It removes every
// account and login challenge so the next boot re-enters first-run setup.
//
// Exit codes: 0 success, 1 failure, 2 confirmation missing.
package purge

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/tools/common"
	"github.com/forsetihq/flowd/internal/tools/ui"
)

const confirmEnv = "PURGE_CONFIRM"

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
	confirm bool
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all accounts and login challenges",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.confirm && os.Getenv(confirmEnv) != "1" {
				ui.Warn("refusing to purge without confirmation; pass --yes-really or set " + confirmEnv + "=1")
				os.Exit(2)
			}
			details, err := run(opts, "purge credentials", func(ctx context.Context) ([]string, error) {
				return purge(opts.envFile)
			})
			if opts.ci {
				common.EmitOutcome("purge credentials", details, err)
			}
			if err != nil {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.Flags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.Flags().BoolVar(&opts.confirm, "yes-really", false, "confirm the destructive wipe")
	return cmd
}

func purge(envFile string) ([]string, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	challenges := db.Where("1 = 1").Delete(&domain.LoginChallenge{})
	if challenges.Error != nil {
		return nil, fmt.Errorf("delete challenges: %w", challenges.Error)
	}
	accounts := db.Where("1 = 1").Delete(&domain.Account{})
	if accounts.Error != nil {
		return nil, fmt.Errorf("delete accounts: %w", accounts.Error)
	}
	return []string{
		fmt.Sprintf("accounts deleted: %d", accounts.RowsAffected),
		fmt.Sprintf("challenges deleted: %d", challenges.RowsAffected),
		"next start enters first-run setup",
	}, nil
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}
