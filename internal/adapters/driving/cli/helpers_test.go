package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/metrics"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/storage/memory"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/throttle"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/config"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
)

// testEnv holds the fakes behind a command run.
type testEnv struct {
	sink    *memory.Sink
	scanner *memory.Scanner
}

// setupCLITest points every runtime constructor at in-memory fakes and
// configures the environment for the "users" index.
func setupCLITest(t *testing.T) *testEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("ES_INDEX", "users")
	t.Setenv("SINK", config.SinkSQLite)
	t.Setenv("DDB_TABLE", "users")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ES_ID", "")
	t.Setenv("KEY_SCHEMA", "")

	env := &testEnv{
		sink:    memory.NewSink(),
		scanner: memory.NewScanner([]string{"pk"}),
	}

	oldSink, oldMetrics, oldScanner := newSink, newMetrics, newScanner
	newSink = func(context.Context, *config.Config) (*throttle.Sink, error) {
		return throttle.New(env.sink, throttle.Config{}), nil
	}
	newMetrics = func(*config.Config) (driven.Metrics, func() error, error) {
		return metrics.NoOp{}, func() error { return nil }, nil
	}
	newScanner = func(context.Context, *config.Config) (driven.TableScanner, error) {
		return env.scanner, nil
	}

	t.Cleanup(func() {
		newSink, newMetrics, newScanner = oldSink, oldMetrics, oldScanner
		cfgFile = ""
		verbose = false
		resetFlags(rootCmd)
	})
	return env
}

// resetFlags restores every flag to its default so values do not leak
// between Execute calls on the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
