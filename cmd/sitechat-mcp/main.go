package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/sitechat/internal/app"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/interfaces"
)

func main() {
	// SITECHAT_CONFIG may list several files separated by commas, later files win
	var configPaths []string
	if raw := os.Getenv("SITECHAT_CONFIG"); raw != "" {
		for _, path := range strings.Split(raw, ",") {
			if path = strings.TrimSpace(path); path != "" {
				configPaths = append(configPaths, path)
			}
		}
	} else if _, err := os.Stat("sitechat.toml"); err == nil {
		configPaths = append(configPaths, "sitechat.toml")
	}

	config, err := common.LoadFromFiles(configPaths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:       arbor_models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	mcpServer := newMCPServer(application.WebsiteService, application.ChatService, logger)

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
	}
}

// newMCPServer registers the website tools against the given services
func newMCPServer(websiteService interfaces.WebsiteService, chatService interfaces.ChatService, logger arbor.ILogger) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"sitechat",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createScrapeWebsiteTool(), handleScrapeWebsite(websiteService, logger))
	mcpServer.AddTool(createAskWebsiteTool(), handleAskWebsite(chatService, logger))
	mcpServer.AddTool(createGetConversationTool(), handleGetConversation(chatService, logger))

	return mcpServer
}
