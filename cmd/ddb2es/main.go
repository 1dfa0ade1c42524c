package main

import (
	"os"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driving/cli"
)

// Set by the release build.
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
