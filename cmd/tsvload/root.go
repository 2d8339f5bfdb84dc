package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tsvload/internal/config"
	"tsvload/internal/gologger"
	"tsvload/internal/metrics"
	"tsvload/internal/metrics/datadog"
	"tsvload/internal/metrics/prompush"

	// register every backend; storage.kind picks one at runtime.
	_ "tsvload/internal/storage/all"
)

// app carries what the subcommands share once the root has loaded config.
type app struct {
	cfgFile string
	verbose bool

	v   *viper.Viper
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tsvload",
		Short:         "Schema-driven TSV bulk loader",
		Long:          color.CyanString("tsvload - stream large TSV extracts into SQLite, Postgres or SQL Server"),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML or JSON)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.String("dsn", "", "store DSN (overrides storage.dsn)")
	pf.String("kind", "", "store kind: sqlite, postgres or mssql (overrides storage.kind)")

	root.AddCommand(
		newLoadCmd(a),
		newSchemaCmd(a),
		newInitCmd(a),
		newFetchCmd(a),
		newValidateCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{"storage.dsn": "dsn", "storage.kind": "kind"} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	a.v, a.cfg = v, cfg
	a.log = gologger.New(gologger.Options{
		Level:  level,
		Pretty: cfg.Log.Pretty,
		Out:    cmd.ErrOrStderr(),
	})
	if a.verbose && v.ConfigFileUsed() != "" {
		a.log.Debug().Str("file", v.ConfigFileUsed()).Msg("using config file")
	}
	return nil
}

// setupMetrics installs the configured backend and returns its flush hook.
func (a *app) setupMetrics() func() {
	m := a.cfg.Metrics
	var closeFn func() error
	switch m.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(m.Job, m.PushgatewayURL)
		if err != nil {
			a.log.Warn().Err(err).Msg("metrics: pushgateway backend unavailable; metrics disabled")
			return func() {}
		}
		metrics.SetBackend(b)
		a.log.Debug().Str("url", m.PushgatewayURL).Str("job", m.Job).Msg("metrics: pushgateway enabled")
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.StatsdAddr,
			Namespace:  m.Namespace,
			GlobalTags: append([]string{"job:" + m.Job}, m.Tags...),
		})
		if err != nil {
			a.log.Warn().Err(err).Msg("metrics: datadog backend unavailable; metrics disabled")
			return func() {}
		}
		metrics.SetBackend(b)
		closeFn = b.Close
		a.log.Debug().Str("addr", m.StatsdAddr).Msg("metrics: datadog enabled")
	default:
		return func() {}
	}
	return func() {
		if err := metrics.Flush(); err != nil {
			a.log.Warn().Err(err).Msg("metrics: flush failed")
		}
		if closeFn != nil {
			if err := closeFn(); err != nil {
				a.log.Warn().Err(err).Msg("metrics: close failed")
			}
		}
	}
}
