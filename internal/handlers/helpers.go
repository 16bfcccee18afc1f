package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/sitechat/internal/models"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// RequireTenant reads the tenant id from header.
// Returns false (and writes error response) when it is missing.
func RequireTenant(w http.ResponseWriter, r *http.Request, header string) (string, bool) {
	tenantID := strings.TrimSpace(r.Header.Get(header))
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Missing %s header", header))
		return "", false
	}
	return tenantID, true
}

// DecodeJSON decodes a size-limited JSON body into v.
// Returns false (and writes error response) when the body is not valid JSON.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// StatusForError maps service errors to an HTTP status and a client-safe message.
// Provider details never reach the client.
func StatusForError(err error) (int, string) {
	var (
		validationErr      *models.ValidationError
		invalidURLErr      *models.InvalidURLError
		navTimeoutErr      *models.NavigationTimeoutError
		renderErr          *models.RenderError
		upstreamTimeoutErr *models.UpstreamTimeoutError
		upstreamErr        *models.UpstreamError
		storageErr         *models.StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.As(err, &invalidURLErr):
		return http.StatusBadRequest, invalidURLErr.Error()
	case errors.As(err, &navTimeoutErr):
		return http.StatusGatewayTimeout, "The website did not finish loading in time"
	case errors.As(err, &renderErr):
		return http.StatusBadGateway, "The website could not be rendered"
	case errors.As(err, &upstreamTimeoutErr):
		return http.StatusGatewayTimeout, "The assistant took too long to answer"
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway, "The assistant is temporarily unavailable"
	case errors.Is(err, models.ErrSnapshotNotFound):
		return http.StatusNotFound, "No website content has been scraped yet"
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError, "Storage failure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "Request cancelled"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
