package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gluesync/internal/source"
)

func newReplayCmd(opts *rootOptions) *cobra.Command {
	var stopOnError bool

	cmd := &cobra.Command{
		Use:   "replay PATH",
		Short: "Apply a JSON-lines file of notifications to Glue",
		Long: `Replay reads notifications, one JSON object per line, from a local file,
from stdin ("-"), or from an S3 object (s3://bucket/key) and applies them in
order. Invalid records and failed notifications are counted and skipped
unless --stop-on-error is set.`,
		Example: `  gluesync replay events.jsonl
  gluesync replay s3://metastore-archive/2024/06/01.jsonl --stop-on-error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.loadApp(ctx, cmd, nil)
			if err != nil {
				return err
			}

			stopHost := runHost(ctx, a)
			src := source.NewFileSource(args[0], source.FileOptions{S3: a.S3, StopOnError: stopOnError}, a.Logger)
			stats, runErr := src.Run(ctx, a.Host)
			stopHost()

			if opts.output == "json" {
				if err := printJSON(cmd.OutOrStdout(), stats); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "applied: %d  failed: %d  invalid: %d\n",
					stats.Applied, stats.Failed, stats.Invalid)
			}

			if runErr != nil {
				return runErr
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%d notification(s) failed", stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Stop at the first invalid or failed notification")
	return cmd
}
