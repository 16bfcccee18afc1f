package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
)

const tenantHeader = "X-Tenant-ID"

// mockWebsiteService implements interfaces.WebsiteService for tests
type mockWebsiteService struct {
	ScrapeFunc   func(ctx context.Context, tenantID, url string) (*interfaces.ScrapeResult, error)
	SnapshotFunc func(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error)
}

func (m *mockWebsiteService) Scrape(ctx context.Context, tenantID, url string) (*interfaces.ScrapeResult, error) {
	return m.ScrapeFunc(ctx, tenantID, url)
}

func (m *mockWebsiteService) Snapshot(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error) {
	return m.SnapshotFunc(ctx, tenantID)
}

// mockChatService implements interfaces.ChatService for tests
type mockChatService struct {
	ChatFunc    func(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error)
	HistoryFunc func(ctx context.Context, tenantID string) ([]*models.ChatTurn, error)
}

func (m *mockChatService) Chat(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error) {
	return m.ChatFunc(ctx, tenantID, message)
}

func (m *mockChatService) History(ctx context.Context, tenantID string) ([]*models.ChatTurn, error) {
	return m.HistoryFunc(ctx, tenantID)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWebsiteHandler_Scrape(t *testing.T) {
	service := &mockWebsiteService{ScrapeFunc: func(ctx context.Context, tenantID, url string) (*interfaces.ScrapeResult, error) {
		assert.Equal(t, "tenant-a", tenantID)
		assert.Equal(t, "https://example.com", url)
		return &interfaces.ScrapeResult{ItemCount: 7}, nil
	}}
	handler := NewWebsiteHandler(service, tenantHeader, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{"url":"https://example.com"}`))
	req.Header.Set(tenantHeader, "tenant-a")
	rec := httptest.NewRecorder()
	handler.ScrapeHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(7), body["item_count"])
}

func TestWebsiteHandler_ScrapeRejections(t *testing.T) {
	service := &mockWebsiteService{ScrapeFunc: func(ctx context.Context, tenantID, url string) (*interfaces.ScrapeResult, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	handler := NewWebsiteHandler(service, tenantHeader, arbor.NewLogger())

	tests := []struct {
		name   string
		method string
		tenant string
		body   string
		want   int
	}{
		{name: "wrong method", method: http.MethodGet, tenant: "tenant-a", want: http.StatusMethodNotAllowed},
		{name: "missing tenant", method: http.MethodPost, body: `{"url":"https://example.com"}`, want: http.StatusBadRequest},
		{name: "bad json", method: http.MethodPost, tenant: "tenant-a", body: `{`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/scrape", strings.NewReader(tt.body))
			if tt.tenant != "" {
				req.Header.Set(tenantHeader, tt.tenant)
			}
			rec := httptest.NewRecorder()
			handler.ScrapeHandler(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, false, decodeBody(t, rec)["success"])
		})
	}
}

func TestWebsiteHandler_SnapshotNotFound(t *testing.T) {
	service := &mockWebsiteService{SnapshotFunc: func(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error) {
		return nil, models.ErrSnapshotNotFound
	}}
	handler := NewWebsiteHandler(service, tenantHeader, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	req.Header.Set(tenantHeader, "tenant-a")
	rec := httptest.NewRecorder()
	handler.SnapshotHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatHandler_Chat(t *testing.T) {
	service := &mockChatService{ChatFunc: func(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error) {
		assert.Equal(t, "What do you sell?", message)
		return &interfaces.ChatResult{Answer: "We sell **shoes**.", ModelID: "deepseek-chat"}, nil
	}}
	handler := NewChatHandler(service, tenantHeader, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"What do you sell?"}`))
	req.Header.Set(tenantHeader, "tenant-a")
	rec := httptest.NewRecorder()
	handler.ChatHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "We sell **shoes**.", body["answer"])
	assert.Contains(t, body["answer_html"], "<strong>shoes</strong>")
	assert.Equal(t, "deepseek-chat", body["model"])
}

func TestChatHandler_AnswerHTMLEscapesRawHTML(t *testing.T) {
	service := &mockChatService{ChatFunc: func(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error) {
		return &interfaces.ChatResult{Answer: "<script>alert(1)</script>"}, nil
	}}
	handler := NewChatHandler(service, tenantHeader, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set(tenantHeader, "tenant-a")
	rec := httptest.NewRecorder()
	handler.ChatHandler(rec, req)

	body := decodeBody(t, rec)
	assert.NotContains(t, body["answer_html"], "<script>")
}

func TestChatHandler_UpstreamDetailNotLeaked(t *testing.T) {
	service := &mockChatService{ChatFunc: func(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error) {
		return nil, &models.UpstreamError{Provider: "deepseek", StatusCode: 401, Err: errors.New("invalid api key sk-123")}
	}}
	handler := NewChatHandler(service, tenantHeader, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set(tenantHeader, "tenant-a")
	rec := httptest.NewRecorder()
	handler.ChatHandler(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-123")
	assert.NotContains(t, rec.Body.String(), "deepseek")
}

func TestChatHandler_History(t *testing.T) {
	service := &mockChatService{HistoryFunc: func(ctx context.Context, tenantID string) ([]*models.ChatTurn, error) {
		return []*models.ChatTurn{
			{ID: "turn_1", TenantID: tenantID, Seq: 1, Role: models.TurnRoleUser, Content: "hi"},
			{ID: "turn_2", TenantID: tenantID, Seq: 2, Role: models.TurnRoleAssistant, Content: "hello"},
		}, nil
	}}
	handler := NewChatHandler(service, tenantHeader, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	req.Header.Set(tenantHeader, "tenant-a")
	rec := httptest.NewRecorder()
	handler.HistoryHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
	turns := body["turns"].([]interface{})
	assert.Equal(t, "user", turns[0].(map[string]interface{})["role"])
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: &models.ValidationError{Field: "message", Reason: "is required"}, want: http.StatusBadRequest},
		{err: &models.InvalidURLError{URL: "ftp://x"}, want: http.StatusBadRequest},
		{err: &models.NavigationTimeoutError{Timeout: time.Second}, want: http.StatusGatewayTimeout},
		{err: &models.RenderError{Err: errors.New("crash")}, want: http.StatusBadGateway},
		{err: &models.UpstreamTimeoutError{Provider: "claude"}, want: http.StatusGatewayTimeout},
		{err: &models.UpstreamError{Provider: "claude"}, want: http.StatusBadGateway},
		{err: fmt.Errorf("failed to record assistant turn: %w", &models.StorageError{Op: "append turn"}), want: http.StatusInternalServerError},
		{err: models.ErrSnapshotNotFound, want: http.StatusNotFound},
		{err: context.Canceled, want: http.StatusRequestTimeout},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.err), func(t *testing.T) {
			status, message := StatusForError(tt.err)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, message)
		})
	}
}

func TestAPIHandler(t *testing.T) {
	handler := NewAPIHandler(arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = httptest.NewRecorder()
	handler.VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "version")
}
