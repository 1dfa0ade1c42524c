package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/throttle"
	httpapi "github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driving/http"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/config"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept stream events over HTTP",
	Long: `Starts an HTTP server that applies stream events posted to
/api/v1/records. GET /health/self reports liveness.

Edits to the sink rate limit in the config file take effect without a
restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addTargetFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if configPath != "" {
		v.OnConfigChange(reloadLimits(v, rt.sink))
		v.WatchConfig()
	}

	return httpapi.NewServer(rt.processor).Run(ctx, cfg.HTTPAddr)
}

// reloadLimits re-reads the sink rate limit whenever the config file changes.
func reloadLimits(v *viper.Viper, sink *throttle.Sink) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		logger.Info("Config file changed: %s", e.Name)
		updated, err := config.Decode(v)
		if err != nil {
			logger.Error(err, "Reloading config")
			return
		}
		if updated.SinkRateLimit < 0 {
			logger.Warn("Ignoring negative sink_rate_limit %v", updated.SinkRateLimit)
			return
		}
		sink.SetLimit(updated.SinkRateLimit, updated.SinkRateBurst)
	}
}
