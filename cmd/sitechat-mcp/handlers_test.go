package main

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
)

// mockWebsite implements interfaces.WebsiteService for tests
type mockWebsite struct {
	ScrapeFunc func(ctx context.Context, tenantID, url string) (*interfaces.ScrapeResult, error)
}

func (m *mockWebsite) Scrape(ctx context.Context, tenantID, url string) (*interfaces.ScrapeResult, error) {
	return m.ScrapeFunc(ctx, tenantID, url)
}

func (m *mockWebsite) Snapshot(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error) {
	return nil, models.ErrSnapshotNotFound
}

// mockChat implements interfaces.ChatService for tests
type mockChat struct {
	ChatFunc    func(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error)
	HistoryFunc func(ctx context.Context, tenantID string) ([]*models.ChatTurn, error)
}

func (m *mockChat) Chat(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error) {
	return m.ChatFunc(ctx, tenantID, message)
}

func (m *mockChat) History(ctx context.Context, tenantID string) ([]*models.ChatTurn, error) {
	return m.HistoryFunc(ctx, tenantID)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleScrapeWebsite(t *testing.T) {
	website := &mockWebsite{ScrapeFunc: func(ctx context.Context, tenantID, url string) (*interfaces.ScrapeResult, error) {
		return &interfaces.ScrapeResult{ItemCount: 4}, nil
	}}
	handler := handleScrapeWebsite(website, arbor.NewLogger())

	result, err := handler(context.Background(), callRequest("scrape_website", map[string]any{
		"tenant_id": "tenant-a",
		"url":       "https://example.com",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Stored 4 content items")

	result, err = handler(context.Background(), callRequest("scrape_website", map[string]any{"tenant_id": "tenant-a"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleAskWebsite(t *testing.T) {
	chat := &mockChat{ChatFunc: func(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error) {
		if message == "fail" {
			return nil, &models.UpstreamError{Provider: "deepseek", StatusCode: 500}
		}
		return &interfaces.ChatResult{Answer: "We sell shoes."}, nil
	}}
	handler := handleAskWebsite(chat, arbor.NewLogger())

	result, err := handler(context.Background(), callRequest("ask_website", map[string]any{
		"tenant_id": "tenant-a",
		"message":   "What do you sell?",
	}))
	require.NoError(t, err)
	assert.Equal(t, "We sell shoes.", resultText(t, result))

	result, err = handler(context.Background(), callRequest("ask_website", map[string]any{
		"tenant_id": "tenant-a",
		"message":   "fail",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetConversation(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	chat := &mockChat{HistoryFunc: func(ctx context.Context, tenantID string) ([]*models.ChatTurn, error) {
		return []*models.ChatTurn{
			{Role: models.TurnRoleUser, Content: "first", CreatedAt: created},
			{Role: models.TurnRoleAssistant, Content: "second", CreatedAt: created, Metadata: &models.TurnMetadata{ModelID: "deepseek-chat"}},
			{Role: models.TurnRoleUser, Content: "third", CreatedAt: created},
		}, nil
	}}
	handler := handleGetConversation(chat, arbor.NewLogger())

	result, err := handler(context.Background(), callRequest("get_conversation", map[string]any{
		"tenant_id": "tenant-a",
		"limit":     2,
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.NotContains(t, text, "first")
	assert.Contains(t, text, "_deepseek-chat_")
	assert.Contains(t, text, "(2 turns)")
}

func TestFormatConversation_Empty(t *testing.T) {
	assert.Equal(t, "No conversation recorded for tenant tenant-a", formatConversation("tenant-a", nil))
}
