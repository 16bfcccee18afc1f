package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Multiple --config flags supported, later files win
	serverPort  int
	serverHost  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "sitechat",
	Short: "Website-grounded chat assistant",
	Long: `SiteChat renders a tenant's website, stores its text content and answers
visitor questions grounded in that content.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Interrupts cancel in-flight scrapes and chats
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig runs before every command:
// defaults -> config files -> env -> CLI flags, then logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("sitechat.toml"); err == nil {
			configFiles = append(configFiles, "sitechat.toml")
		} else if _, err := os.Stat("deployments/local/sitechat.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/sitechat.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration %v: %w", configFiles, err)
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)

	logger = common.InitLogger(config)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("storage_type", config.Storage.Type).
		Str("crawler_engine", config.Crawler.Engine).
		Str("llm_provider", config.LLM.Provider).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	return nil
}
