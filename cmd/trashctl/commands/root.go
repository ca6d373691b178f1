// Package commands implements the trashctl command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"recyclebin/internal/app"
	"recyclebin/internal/cli/output"
	"recyclebin/internal/config"
	"recyclebin/internal/core/security"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/pkg/logger"
)

// Runtime is what the commands operate on.
type Runtime struct {
	Service *lifecycle.Service

	// History is nil unless the Postgres audit log is enabled
	History app.HistoryReader

	Close func()
}

// Options customises the command tree. Zero values use stdout/stderr and
// build the runtime from configuration.
type Options struct {
	Out io.Writer
	Err io.Writer

	Open func(ctx context.Context, configPath string) (*Runtime, error)
}

type cli struct {
	opts Options

	configPath string
	actorID    string
	actorEmail string
	format     string

	rt      *Runtime
	printer *output.Printer
}

// New builds the root command.
func New(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Open == nil {
		opts.Open = openRuntime
	}
	c := &cli{opts: opts}

	root := &cobra.Command{
		Use:   "trashctl",
		Short: "Inspect and manage soft-deleted records",
		Long: `trashctl lists, restores and permanently deletes records in the recycle bin.

Configuration is read from --config and RECYCLEBIN_* environment variables,
the same way the server reads it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) { c.teardown() },
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to config.yaml")
	flags.StringVar(&c.actorID, "actor-id", "", "id recorded as the acting principal")
	flags.StringVar(&c.actorEmail, "actor-email", "", "email recorded as the acting principal")
	flags.StringVarP(&c.format, "output", "o", "table", "output format: table, json or yaml")

	root.AddCommand(
		c.entitiesCmd(),
		c.listCmd(),
		c.trashCmd(),
		c.restoreCmd(),
		c.purgeCmd(),
		c.bulkRestoreCmd(),
		c.bulkPurgeCmd(),
		c.historyCmd(),
	)
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(c.format)
	if err != nil {
		return err
	}
	c.printer = output.NewPrinter(c.opts.Out, format)

	rt, err := c.opts.Open(cmd.Context(), c.configPath)
	if err != nil {
		return err
	}
	c.rt = rt
	return nil
}

func (c *cli) teardown() {
	if c.rt != nil && c.rt.Close != nil {
		c.rt.Close()
	}
	c.rt = nil
}

// principal is nil when neither actor flag is set, which records a
// system-initiated change.
func (c *cli) principal() *security.Principal {
	if c.actorID == "" && c.actorEmail == "" {
		return nil
	}
	return &security.Principal{ID: c.actorID, Email: c.actorEmail}
}

func openRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Encoding:    "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn("memory driver selected: the trash starts empty and nothing is persisted")
	}

	return &Runtime{
		Service: a.Service,
		History: a.History,
		Close: func() {
			a.Close()
			_ = log.Sync()
		},
	}, nil
}
