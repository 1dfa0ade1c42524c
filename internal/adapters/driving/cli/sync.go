package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driving/streamevent"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync [event-file]",
	Short: "Apply a stream event to the index",
	Long: `Reads a DynamoDB stream event (the JSON a Lambda trigger receives) and
applies it to the index as one bulk request. The event is read from the
given file, or from standard input when no file is named.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	addTargetFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	payload, err := readEvent(cmd, args)
	if err != nil {
		return err
	}

	records, decodeErrs, err := streamevent.Decode(payload)
	if err != nil {
		return err
	}
	for _, e := range decodeErrs {
		logger.Warn("Skipping record: %v", e)
	}

	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.processor.Process(cmd.Context(), records)

	cmd.Printf("Received %d records (%d unreadable)\n", len(records)+len(decodeErrs), len(decodeErrs))
	cmd.Printf("Translated %d, skipped %d\n", report.Translated, report.TranslationErrors)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Submitted %d operations, %d failed\n", report.Submission.Submitted, report.Submission.Failed)
	return nil
}

func readEvent(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading event from stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading event file: %w", err)
	}
	return data, nil
}
