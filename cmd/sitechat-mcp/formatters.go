package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/sitechat/internal/models"
)

// formatConversation renders turns as a markdown transcript
func formatConversation(tenantID string, turns []*models.ChatTurn) string {
	if len(turns) == 0 {
		return fmt.Sprintf("No conversation recorded for tenant %s", tenantID)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Conversation for %s (%d turns)\n\n", tenantID, len(turns)))

	for _, turn := range turns {
		sb.WriteString(fmt.Sprintf("**%s** (%s)", turn.Role, turn.CreatedAt.Format("2006-01-02 15:04:05")))
		if turn.Metadata != nil && turn.Metadata.ModelID != "" {
			sb.WriteString(fmt.Sprintf(" _%s_", turn.Metadata.ModelID))
		}
		sb.WriteString("\n\n")
		sb.WriteString(turn.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
