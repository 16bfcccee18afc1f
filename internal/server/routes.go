package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Website ingestion
	mux.Handle("/api/scrape", s.rateLimited(s.app.WebsiteHandler.ScrapeHandler)) // POST - extract and replace snapshot
	mux.HandleFunc("/api/snapshot", s.app.WebsiteHandler.SnapshotHandler)        // GET - current snapshot

	// API routes - Chat
	mux.Handle("/api/chat", s.rateLimited(s.app.ChatHandler.ChatHandler)) // POST - grounded answer
	mux.HandleFunc("/api/chat/history", s.app.ChatHandler.HistoryHandler) // GET - turns in order

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
