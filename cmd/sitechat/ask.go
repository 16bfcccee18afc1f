package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ternarybob/sitechat/internal/app"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask a question grounded in the tenant's website",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var askTenant string

func init() {
	askCmd.Flags().StringVar(&askTenant, "tenant", "", "Tenant identifier")
	askCmd.MarkFlagRequired("tenant")
}

func runAsk(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	result, err := application.ChatService.Chat(cmd.Context(), askTenant, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Answer)
	return nil
}
