package demo

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/tools/common"
	"github.com/forsetihq/flowd/internal/tools/ui"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Demo store maintenance",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(newResetCommand(opts))
	return cmd
}

// newResetCommand forces a store rebuild out of band, for hosts where the
// scheduled reset cannot run.
func newResetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Wipe and rebuild the demo store now",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "demo reset", func(ctx context.Context) ([]string, error) {
				if err := common.LoadEnvFile(opts.envFile); err != nil {
					return nil, err
				}
				cfg, err := config.Load()
				if err != nil {
					return nil, err
				}
				if !cfg.DemoMode {
					return nil, fmt.Errorf("demo mode is not enabled")
				}
				store, err := database.NewStore(cfg)
				if err != nil {
					return nil, err
				}
				defer func() { _ = store.Close() }()
				if err := store.Reset(); err != nil {
					return nil, err
				}
				return []string{"store wiped and remigrated"}, nil
			})
			if opts.ci {
				common.EmitOutcome("demo reset", details, err)
			}
			if err != nil {
				os.Exit(1)
			}
			return nil
		},
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}
