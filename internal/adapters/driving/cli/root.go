// Package cli implements the ddb2es command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/config/file"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/throttle"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/app"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/config"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/services"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

var (
	version = "dev"

	cfgFile string
	verbose bool

	// configPath is the file actually read: --config, or the default
	// file when it exists.
	configPath string

	v   *viper.Viper
	cfg *config.Config
)

// Runtime constructors. Tests swap these for in-memory fakes.
var (
	newSink    = app.NewSink
	newMetrics = app.NewMetrics
	newScanner = app.NewScanner
)

var rootCmd = &cobra.Command{
	Use:   "ddb2es",
	Short: "Mirror a DynamoDB table into a search index",
	Long: `ddb2es keeps a search index in step with a DynamoDB table.

Change events from the table's stream are translated into bulk index and
delete operations. A backfill scans the whole table once to seed the index.

Settings come from environment variables (ES_INDEX, ES_HOST, ...), a TOML
file and command flags. The file is the one given with --config, or
~/.ddb2es/config.toml when it exists.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(ver string) {
	version = ver
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	v = viper.New()
	if err := bindFlags(cmd); err != nil {
		return err
	}

	configPath = cfgFile
	if configPath == "" {
		configPath = defaultConfigFile()
	}

	loaded, err := config.Load(v, configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	logger.SetVerbose(verbose)
	return nil
}

func defaultConfigFile() string {
	path, err := file.DefaultPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// skipConfig replaces loadConfig on commands that must work without a
// valid configuration.
func skipConfig(*cobra.Command, []string) error {
	return nil
}

// flagKeys maps command flags to config keys.
var flagKeys = map[string]string{
	"index":           "es_index",
	"host":            "es_host",
	"sink":            "sink",
	"table":           "ddb_table",
	"page-size":       "scan_page_size",
	"workers":         "backfill_workers",
	"flush-threshold": "flush_threshold",
	"addr":            "http_addr",
}

func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// addTargetFlags registers the flags shared by every command that writes
// to the index.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("index", "", "target index (ES_INDEX)")
	cmd.Flags().String("host", "", "search cluster endpoint (ES_HOST)")
	cmd.Flags().String("sink", "", "sink kind: opensearch or sqlite (SINK)")
}

// runtime is the write side shared by sync, backfill and serve.
type runtime struct {
	sink         *throttle.Sink
	processor    *services.SyncService
	closeMetrics func() error
}

func openRuntime(ctx context.Context) (*runtime, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening sink: %w", err)
	}

	m, closeMetrics, err := newMetrics(cfg)
	if err != nil {
		sink.Close()
		return nil, fmt.Errorf("creating metrics client: %w", err)
	}

	return &runtime{
		sink:         sink,
		processor:    app.NewSyncService(cfg, sink, m),
		closeMetrics: closeMetrics,
	}, nil
}

func (r *runtime) Close() {
	if err := r.closeMetrics(); err != nil {
		logger.Warn("Closing metrics client: %v", err)
	}
	if err := r.sink.Close(); err != nil {
		logger.Warn("Closing sink: %v", err)
	}
}
