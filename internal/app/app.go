package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/handlers"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/services/chat"
	"github.com/ternarybob/sitechat/internal/services/crawler"
	"github.com/ternarybob/sitechat/internal/services/llm"
	"github.com/ternarybob/sitechat/internal/services/prompt"
	"github.com/ternarybob/sitechat/internal/services/scheduler"
	"github.com/ternarybob/sitechat/internal/services/website"
	"github.com/ternarybob/sitechat/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Services
	Renderer           *crawler.BrowserPool
	Extractor          interfaces.Extractor
	Assembler          *prompt.Assembler
	CompletionProvider interfaces.CompletionProvider
	CompletionService  interfaces.CompletionService
	WebsiteService     interfaces.WebsiteService
	ChatService        interfaces.ChatService
	RefreshService     *scheduler.RefreshService

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	WebsiteHandler *handlers.WebsiteHandler
	ChatHandler    *handlers.ChatHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	app.Logger.Info().
		Str("storage", cfg.Storage.Type).
		Str("crawler_engine", cfg.Crawler.Engine).
		Str("llm_provider", app.CompletionProvider.Name()).
		Str("llm_model", app.CompletionProvider.Model()).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", a.Config.Storage.Type).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the ingestion path (renderer -> extractor -> snapshot store)
// and the chat path (snapshot store -> assembler -> completion -> conversation store).
func (a *App) initServices() error {
	renderer, err := crawler.NewRenderer(&a.Config.Crawler, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create page renderer: %w", err)
	}
	a.Renderer = renderer
	a.Extractor = crawler.NewService(renderer, a.Logger)

	websiteService := website.NewService(
		a.Extractor,
		a.StorageManager.SnapshotStorage(),
		a.Logger,
	)
	a.WebsiteService = websiteService

	a.Assembler = prompt.NewAssembler(a.Config.Context.MaxChars, a.Logger)

	provider, err := llm.NewProvider(context.Background(), a.Config, a.StorageManager.KeyValueStorage(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create completion provider: %w", err)
	}
	a.CompletionProvider = provider

	timeout, err := a.Config.LLMTimeout()
	if err != nil {
		return err
	}
	a.CompletionService = llm.NewService(
		provider,
		a.Config.LLM.MaxTokens,
		a.Config.LLM.Temperature,
		timeout,
		a.Logger,
	)

	a.ChatService = chat.NewService(
		a.StorageManager.SnapshotStorage(),
		a.StorageManager.ConversationStorage(),
		a.Assembler,
		a.CompletionService,
		a.Logger,
	)

	a.RefreshService = scheduler.NewRefreshService(
		a.StorageManager.SnapshotStorage(),
		websiteService,
		a.Config.Crawler.NavigationTimeout*2,
		a.Config.Crawler.MaxInstances,
		a.Logger,
	)

	return nil
}

func (a *App) initHandlers() {
	header := a.Config.Server.TenantHeader
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.WebsiteHandler = handlers.NewWebsiteHandler(a.WebsiteService, header, a.Logger)
	a.ChatHandler = handlers.NewChatHandler(a.ChatService, header, a.Logger)
}

// StartScheduler starts the snapshot refresh job when crawler.refresh_schedule is set
func (a *App) StartScheduler() error {
	schedule := a.Config.Crawler.RefreshSchedule
	if schedule == "" {
		a.Logger.Debug().Msg("Snapshot refresh disabled (no crawler.refresh_schedule)")
		return nil
	}
	return a.RefreshService.Start(schedule)
}

// Close releases browsers, provider clients and storage in reverse start order
func (a *App) Close() error {
	if a.RefreshService != nil {
		if err := a.RefreshService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop refresh scheduler")
		}
	}

	if a.Renderer != nil {
		if err := a.Renderer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close browser pool")
		} else {
			a.Logger.Info().Msg("Browser pool closed")
		}
	}

	if a.CompletionProvider != nil {
		if err := a.CompletionProvider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close completion provider")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
