package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/sitechat/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the tenant's conversation in order",
	RunE:  runHistory,
}

var historyTenant string

func init() {
	historyCmd.Flags().StringVar(&historyTenant, "tenant", "", "Tenant identifier")
	historyCmd.MarkFlagRequired("tenant")
}

func runHistory(cmd *cobra.Command, args []string) error {
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer storageManager.Close()

	turns, err := storageManager.ConversationStorage().List(cmd.Context(), historyTenant)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(turns) == 0 {
		fmt.Fprintf(out, "No conversation recorded for tenant %s\n", historyTenant)
		return nil
	}
	for _, turn := range turns {
		fmt.Fprintf(out, "[%d] %s %s: %s\n", turn.Seq, turn.CreatedAt.Format("2006-01-02 15:04:05"), turn.Role, turn.Content)
	}
	return nil
}
