// Package cli implements the gluesync command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gluesync/internal/app"
	"gluesync/internal/config"
	"gluesync/internal/gluecatalog"
	"gluesync/internal/source"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions carries values resolved from persistent flags plus optional
// client overrides used by tests.
type rootOptions struct {
	configPath string
	envFile    string
	output     string

	glue     gluecatalog.GlueAPI
	s3       source.S3API
	onListen func(addr string)
}

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd(&rootOptions{})
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]any{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gluesync",
		Short:         "Mirror Hive metastore changes into AWS Glue",
		Long:          "gluesync applies Hive metastore notifications to the AWS Glue Data Catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyFlagEnv(cmd.Flags(), flagEnv); err != nil {
				return err
			}
			return validateOutputFormat(opts.output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format (text, json)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newReplayCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	return rootCmd
}

// flagEnv maps persistent flags to the environment variables that set them
// when the flag is not given. Precedence: flag > env > default.
var flagEnv = map[string]string{
	"config":   "GLUESYNC_CONFIG",
	"env-file": "GLUESYNC_ENV_FILE",
	"output":   "GLUESYNC_OUTPUT",
}

func applyFlagEnv(fs *pflag.FlagSet, env map[string]string) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := env[f.Name]
		if !ok || f.Changed || err != nil {
			return
		}
		if v := os.Getenv(key); v != "" {
			if setErr := fs.Set(f.Name, v); setErr != nil {
				err = fmt.Errorf("%s: %w", key, setErr)
			}
		}
	})
	return err
}

func validateOutputFormat(output string) error {
	if output != "text" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'text' or 'json'", output)
	}
	return nil
}

// loadApp resolves configuration, builds the logger and wires the app.
// Logs go to the command's stderr.
func (o *rootOptions) loadApp(ctx context.Context, cmd *cobra.Command, mutate func(*config.Config)) (*app.App, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := app.NewLogger(cfg, cmd.ErrOrStderr()).With("command", cmd.Name())
	app.LogWarnings(logger, cfg)

	a, err := app.New(ctx, app.Deps{Cfg: cfg, Glue: o.glue, S3: o.s3, Logger: logger})
	if err != nil {
		return nil, err
	}
	logger.Info("gluesync configured",
		"version", version,
		"glue_prefix", cfg.Glue.Prefix,
		"region", cfg.Glue.Region,
		"skip_archive_default", cfg.Glue.SkipArchiveDefault,
	)
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runHost starts the host worker and returns a stop function that cancels
// it and waits for the queue to drain.
func runHost(ctx context.Context, a *app.App) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- a.Host.Run(ctx) }()
	return func() {
		cancel()
		if err := <-done; err != nil {
			a.Logger.Warn("host stopped with error", "error", err)
		}
	}
}
