package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/keymap/internal/config"
	"github.com/psantana5/keymap/internal/keymap"
	"github.com/psantana5/keymap/internal/metrics"
	"github.com/psantana5/keymap/pkg/logging"
	"github.com/psantana5/keymap/pkg/util"
)

var (
	cfgFile      string
	outputFormat string
)

// env is rebuilt by setup before every command runs
var env *environment

// countedInfo is the Info whose complaints already feed env's metrics
var countedInfo *util.Info

type environment struct {
	info    *util.Info
	cfg     *config.Config
	level   logging.Level
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"log-level":    "log_level",
	"log-json":     "log_json",
	"store":        "store",
	"db":           "db_path",
	"metrics-file": "metrics_file",
	"addr":         "serve.addr",
	"rate-limit":   "serve.rate_limit",
	"burst":        "serve.burst",
	"log-dir":      "serve.log_dir",
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "keymap [file...]",
	Short: "Line-oriented key/value interpreter",
	Long: `keymap reads each file (or standard input when no file, or "-", is given)
and executes one command per line against an ordered key/value map:

  # comment      ignored
  key            print "key = value", or "key: key not found"
  key =          delete key
  key = value    set key, then print "key = value"
  =              print every pair in key order
  = value        print every pair whose value is value

Every input line is echoed first as "<file>: <line number>: <line>".
Files that cannot be opened are reported and skipped; the exit status is
then 1.`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runKeymap,
}

// Execute runs the command tree. info must come straight from main;
// errors are reported through it and reflected in its exit status.
// The metrics file is written last so it counts that final complaint.
func Execute(ctx context.Context, info *util.Info) {
	env = nil
	if err := rootCmd.ExecuteContext(util.WithInfo(ctx, info)); err != nil {
		info.Complainf("%v", err)
	}
	writeMetrics()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.keymap/config.yaml)")
	flags.StringVar(&outputFormat, "output", "table", "output format for dump: table or json")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Bool("log-json", false, "emit logs as JSON")
	flags.String("store", keymap.StoreMemory, "store backend: memory or sqlite")
	flags.String("db", "keymap.db", "SQLite database path (sqlite store only)")
	flags.String("metrics-file", "", "write Prometheus metrics to this file on exit")
}

// setup resolves configuration and builds the logger and metrics
func setup(cmd *cobra.Command, args []string) error {
	info := util.InfoFrom(cmd.Context())

	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(cmd, v); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(info.ExecName(), level, cfg.LogJSON).
		WithField("run_id", info.RunID()).
		WithField("command", cmd.Name())

	env = &environment{info: info, cfg: cfg, level: level, logger: logger, metrics: metrics.New()}
	if countedInfo != info {
		info.OnComplaint(countComplaint)
		countedInfo = info
	}
	logger.Debug("configuration loaded", map[string]interface{}{
		"config_file": v.ConfigFileUsed(),
		"store":       cfg.Store,
	})
	return nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func (e *environment) openStore() (keymap.Store, error) {
	store, err := keymap.OpenStore(e.cfg.Store, e.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if n, err := store.Len(); err == nil {
		e.metrics.SetStoreKeys(n)
	}
	return store, nil
}

func runKeymap(cmd *cobra.Command, args []string) error {
	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	it := &keymap.Interpreter{
		Store:   store,
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
		Info:    env.info,
		Logger:  env.logger,
		Metrics: env.metrics,
	}
	return it.Run(cmd.Context(), args)
}

// countComplaint is registered once per Info and counts into the metrics
// of whichever run is current.
func countComplaint() {
	if env != nil {
		env.metrics.ObserveComplaint()
	}
}

// writeMetrics dumps the metrics of this run when metrics_file is set
func writeMetrics() {
	if env == nil || env.cfg.MetricsFile == "" {
		return
	}

	f, err := os.Create(env.cfg.MetricsFile)
	if err != nil {
		env.info.SyscallError(env.cfg.MetricsFile, err)
		return
	}
	defer f.Close()

	if err := env.metrics.WriteText(f); err != nil {
		env.info.Complainf("failed to write metrics: %v", err)
	}
}
