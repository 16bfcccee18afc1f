package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createScrapeWebsiteTool returns the scrape_website tool definition
func createScrapeWebsiteTool() mcp.Tool {
	return mcp.NewTool("scrape_website",
		mcp.WithDescription("Render a website in a headless browser and replace the tenant's stored content snapshot"),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Opaque tenant identifier"),
		),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http(s) URL of the page to extract"),
		),
	)
}

// createAskWebsiteTool returns the ask_website tool definition
func createAskWebsiteTool() mcp.Tool {
	return mcp.NewTool("ask_website",
		mcp.WithDescription("Ask a question answered from the tenant's scraped website content"),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Opaque tenant identifier"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The visitor's question"),
		),
	)
}

// createGetConversationTool returns the get_conversation tool definition
func createGetConversationTool() mcp.Tool {
	return mcp.NewTool("get_conversation",
		mcp.WithDescription("List the tenant's chat turns in the order they were recorded"),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Opaque tenant identifier"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Only return the most recent turns (default: all)"),
		),
	)
}
