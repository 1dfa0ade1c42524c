// Command ddb2es-lambda is the stream trigger: it applies each delivered
// batch of change records to the index.
package main

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/viper"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driving/lambda"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/app"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/config"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(viper.New(), "")
	if err != nil {
		logger.Fatal(err, "Loading config")
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		logger.Fatal(err, "Initialising logger")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal(err, "Invalid config")
	}

	// The sink and metrics client live as long as the execution environment.
	sink, err := app.NewSink(ctx, cfg)
	if err != nil {
		logger.Fatal(err, "Opening sink")
	}
	m, _, err := app.NewMetrics(cfg)
	if err != nil {
		logger.Fatal(err, "Creating metrics client")
	}

	handler := lambda.NewHandler(app.NewSyncService(cfg, sink, m))
	awslambda.Start(handler.Handle)
}
