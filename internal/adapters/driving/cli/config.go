package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/config/file"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/config"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := cfg.TOML()
		if err != nil {
			return err
		}
		cmd.Print(string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for backfill and sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.ValidateBackfill(); err != nil {
			cmd.Printf("Configuration is valid for sync (backfill: %v)\n", err)
			return nil
		}
		cmd.Println("Configuration is valid")
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save a setting to the config file",
	Long: `Saves a setting to the config file (--config, or ~/.ddb2es/config.toml).
Keys are the lower-case names printed by "config show".`,
	Args:              cobra.ExactArgs(2),
	PersistentPreRunE: skipConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !config.IsKey(key) {
			return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, key)
		}

		store, err := file.NewConfigStore(cfgFile)
		if err != nil {
			return err
		}
		if err := store.Set(key, value); err != nil {
			return fmt.Errorf("saving %s: %w", key, err)
		}
		cmd.Printf("Set %s in %s\n", key, store.Path())
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short:             "Remove a setting from the config file",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: skipConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := file.NewConfigStore(cfgFile)
		if err != nil {
			return err
		}
		if err := store.Unset(args[0]); err != nil {
			return fmt.Errorf("removing %s: %w", args[0], err)
		}
		cmd.Printf("Removed %s from %s\n", args[0], store.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}
