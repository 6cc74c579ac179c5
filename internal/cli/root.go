package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hometasks/internal/config"
	"hometasks/internal/gateway"
	"hometasks/internal/logging"
	"hometasks/internal/task"
)

// state is shared by every subcommand once the root pre-run has loaded it.
type state struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *logrus.Logger
	now func() time.Time
}

func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(version, time.Now)
}

func newRootCmd(version string, now func() time.Time) *cobra.Command {
	st := &state{now: now}

	root := &cobra.Command{
		Use:   "hometasks",
		Short: "Household recurring task tracker",
		Long: `hometasks keeps a list of recurring household chores in a single table
(CSV, JSON, YAML, SQLite, Postgres or a Google Sheet) and serves a small dashboard.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&st.configPath, "config", "c", "", "config file (default "+config.DefaultPath+" if present)")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "override log.level")
	root.PersistentFlags().StringVar(&st.logFormat, "log-format", "", "override log.format (json or text)")

	root.AddCommand(newServeCmd(st))
	root.AddCommand(newAddCmd(st))
	root.AddCommand(newListCmd(st))
	root.AddCommand(newCompleteCmd(st))
	root.AddCommand(newDeleteCmd(st))
	root.AddCommand(newSnapshotCmd(st))
	root.AddCommand(newMigrateCmd(st))
	root.AddCommand(newConfigCmd(st))
	return root
}

// Execute runs the root command
func Execute(version string) error {
	root := NewRootCmd(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (st *state) load(logOut io.Writer) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.Log.Level = st.logLevel
	}
	if st.logFormat != "" {
		cfg.Log.Format = st.logFormat
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return err
	}
	st.cfg, st.log = cfg, log
	return nil
}

func (st *state) openGateway(ctx context.Context) (gateway.Gateway, error) {
	gw, err := gateway.Open(ctx, st.cfg.GatewayOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return gw, nil
}

// withService opens the store, builds a task service and runs fn with it.
func (st *state) withService(ctx context.Context, fn func(*task.Service) error) error {
	gw, err := st.openGateway(ctx)
	if err != nil {
		return err
	}
	defer gateway.Close(gw)

	loc, err := st.cfg.Location()
	if err != nil {
		return err
	}
	svc := task.NewService(task.NewStore(gw, st.log, nil),
		task.WithClock(st.now),
		task.WithLocation(loc),
		task.WithDefaultRecurrence(st.cfg.Tasks.DefaultRecurrenceDays),
		task.WithLogger(st.log),
	)
	return fn(svc)
}
