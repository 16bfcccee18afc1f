package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/sitechat/internal/services/crawler"
	"github.com/ternarybob/sitechat/internal/services/website"
	"github.com/ternarybob/sitechat/internal/storage"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Extract a website and replace the tenant's snapshot",
	Long:  `Renders the URL in a headless browser and stores its text content as the tenant's snapshot. Does not need a completion provider.`,
	RunE:  runScrape,
}

var (
	scrapeTenant string
	scrapeURL    string
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeTenant, "tenant", "", "Tenant identifier")
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "Absolute http(s) URL to extract")
	scrapeCmd.MarkFlagRequired("tenant")
	scrapeCmd.MarkFlagRequired("url")
}

func runScrape(cmd *cobra.Command, args []string) error {
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer storageManager.Close()

	renderer, err := crawler.NewRenderer(&config.Crawler, logger)
	if err != nil {
		return err
	}
	defer renderer.Close()

	websiteService := website.NewService(crawler.NewService(renderer, logger), storageManager.SnapshotStorage(), logger)

	result, err := websiteService.Scrape(cmd.Context(), scrapeTenant, scrapeURL)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d content items for tenant %s\n", result.ItemCount, scrapeTenant)
	return nil
}
