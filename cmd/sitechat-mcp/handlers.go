package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
)

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

// handleScrapeWebsite implements the scrape_website tool
func handleScrapeWebsite(websiteService interfaces.WebsiteService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := request.RequireString("tenant_id")
		if err != nil || tenantID == "" {
			return errorResult("Error: tenant_id parameter is required"), nil
		}
		url, err := request.RequireString("url")
		if err != nil || url == "" {
			return errorResult("Error: url parameter is required"), nil
		}

		result, err := websiteService.Scrape(ctx, tenantID, url)
		if err != nil {
			logger.Error().Err(err).Str("tenant_id", tenantID).Str("url", url).Msg("Scrape failed")
			return errorResult(fmt.Sprintf("Scrape error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Stored %d content items from %s for tenant %s", result.ItemCount, url, tenantID)), nil
	}
}

// handleAskWebsite implements the ask_website tool
func handleAskWebsite(chatService interfaces.ChatService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := request.RequireString("tenant_id")
		if err != nil || tenantID == "" {
			return errorResult("Error: tenant_id parameter is required"), nil
		}
		message, err := request.RequireString("message")
		if err != nil {
			return errorResult("Error: message parameter is required"), nil
		}

		result, err := chatService.Chat(ctx, tenantID, message)
		if err != nil {
			logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Chat failed")
			return errorResult(fmt.Sprintf("Chat error: %v", err)), nil
		}

		return textResult(result.Answer), nil
	}
}

// handleGetConversation implements the get_conversation tool
func handleGetConversation(chatService interfaces.ChatService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := request.RequireString("tenant_id")
		if err != nil || tenantID == "" {
			return errorResult("Error: tenant_id parameter is required"), nil
		}
		limit := request.GetInt("limit", 0)

		turns, err := chatService.History(ctx, tenantID)
		if err != nil {
			logger.Error().Err(err).Str("tenant_id", tenantID).Msg("History failed")
			return errorResult(fmt.Sprintf("History error: %v", err)), nil
		}

		if limit > 0 && len(turns) > limit {
			turns = turns[len(turns)-limit:]
		}

		return textResult(formatConversation(tenantID, turns)), nil
	}
}
