package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/sitechat/internal/storage"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage provider API keys in the key/value store",
	Long: `Provider API keys resolve from the environment first, then the key/value
store, then the config file. Known names: deepseek_api_key, anthropic_api_key, gemini_api_key.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Store an API key",
	Args:  cobra.ExactArgs(2),
	RunE:  runKeySet,
}

var keyDescription string

func init() {
	keySetCmd.Flags().StringVar(&keyDescription, "description", "", "Optional description")
	keyCmd.AddCommand(keySetCmd)
}

func runKeySet(cmd *cobra.Command, args []string) error {
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer storageManager.Close()

	if err := storageManager.KeyValueStorage().Set(cmd.Context(), args[0], args[1], keyDescription); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored key %s\n", args[0])
	return nil
}
