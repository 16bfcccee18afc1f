package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func snapshotWith(tenant string, texts ...string) *models.WebsiteSnapshot {
	items := make([]models.ContentItem, 0, len(texts))
	for _, text := range texts {
		items = append(items, models.ContentItem{Kind: models.ElementParagraph, Text: text})
	}
	return &models.WebsiteSnapshot{
		TenantID:  tenant,
		SourceURL: "https://example.com",
		Items:     items,
		FetchedAt: time.Now().UTC(),
	}
}

func TestSnapshotStorage_PutReplaces(t *testing.T) {
	storage := newTestManager(t).SnapshotStorage()
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, snapshotWith("tenant-a", "one", "two", "three")))
	require.NoError(t, storage.Put(ctx, snapshotWith("tenant-a", "four")))

	got, err := storage.Get(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, got.Items, 1, "replacement must not merge items")
	assert.Equal(t, "four", got.Items[0].Text)
	assert.Equal(t, models.ElementParagraph, got.Items[0].Kind)
}

func TestSnapshotStorage_EmptySnapshotIsStored(t *testing.T) {
	storage := newTestManager(t).SnapshotStorage()
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, snapshotWith("tenant-a", "old")))
	require.NoError(t, storage.Put(ctx, snapshotWith("tenant-a")))

	got, err := storage.Get(ctx, "tenant-a")
	require.NoError(t, err)
	require.NotNil(t, got.Items)
	assert.Empty(t, got.Items)

	encoded, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"items":[]`)

	all, err := storage.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].Items)
}

func TestSnapshotStorage_GetMissing(t *testing.T) {
	storage := newTestManager(t).SnapshotStorage()

	_, err := storage.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)
}

func TestSnapshotStorage_TenantIsolation(t *testing.T) {
	storage := newTestManager(t).SnapshotStorage()
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, snapshotWith("tenant-a", "alpha")))
	require.NoError(t, storage.Put(ctx, snapshotWith("tenant-b", "beta", "gamma")))

	a, err := storage.Get(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", a.Items[0].Text)

	all, err := storage.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "tenant-a", all[0].TenantID)
	assert.Equal(t, "tenant-b", all[1].TenantID)
}

func TestSnapshotStorage_ConcurrentPutsNeverMerge(t *testing.T) {
	storage := newTestManager(t).SnapshotStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			texts := make([]string, n+1)
			for j := range texts {
				texts[j] = fmt.Sprintf("writer-%d-item-%d", n, j)
			}
			assert.NoError(t, storage.Put(ctx, snapshotWith("tenant-a", texts...)))
		}(i)
	}
	wg.Wait()

	got, err := storage.Get(ctx, "tenant-a")
	require.NoError(t, err)
	require.NotEmpty(t, got.Items)

	// Every item must come from the same writer
	var writer int
	_, err = fmt.Sscanf(got.Items[0].Text, "writer-%d-item-0", &writer)
	require.NoError(t, err)
	assert.Len(t, got.Items, writer+1)
	for j, item := range got.Items {
		assert.Equal(t, fmt.Sprintf("writer-%d-item-%d", writer, j), item.Text)
	}
}

func TestConversationStorage_AppendOrdersTurns(t *testing.T) {
	storage := newTestManager(t).ConversationStorage()
	ctx := context.Background()

	created := time.Now().UTC()
	for i := 0; i < 5; i++ {
		role := models.TurnRoleUser
		if i%2 == 1 {
			role = models.TurnRoleAssistant
		}
		// Identical timestamps still keep insertion order
		require.NoError(t, storage.Append(ctx, &models.ChatTurn{
			TenantID:  "tenant-a",
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
			CreatedAt: created,
		}))
	}

	turns, err := storage.List(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, turns, 5)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("turn %d", i), turn.Content)
		assert.NotEmpty(t, turn.ID)
		if i > 0 {
			assert.Greater(t, turn.Seq, turns[i-1].Seq)
		}
	}
}

func TestConversationStorage_MetadataRoundTrip(t *testing.T) {
	storage := newTestManager(t).ConversationStorage()
	ctx := context.Background()

	require.NoError(t, storage.Append(ctx, &models.ChatTurn{
		TenantID: "tenant-a",
		Role:     models.TurnRoleAssistant,
		Content:  "answer",
		Metadata: &models.TurnMetadata{ModelID: "deepseek-chat", PromptTokens: 12, CompletionTokens: 3},
	}))
	require.NoError(t, storage.Append(ctx, &models.ChatTurn{
		TenantID: "tenant-b",
		Role:     models.TurnRoleUser,
		Content:  "question",
	}))

	turns, err := storage.List(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.NotNil(t, turns[0].Metadata)
	assert.Equal(t, "deepseek-chat", turns[0].Metadata.ModelID)
	assert.Equal(t, 12, turns[0].Metadata.PromptTokens)

	count, err := storage.Count(ctx, "tenant-b")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = storage.Count(ctx, "tenant-c")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestConversationStorage_SequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, first.ConversationStorage().Append(ctx, &models.ChatTurn{TenantID: "t", Role: models.TurnRoleUser, Content: "before"}))
	require.NoError(t, first.Close())

	second, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.ConversationStorage().Append(ctx, &models.ChatTurn{TenantID: "t", Role: models.TurnRoleUser, Content: "after"}))

	turns, err := second.ConversationStorage().List(ctx, "t")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "before", turns[0].Content)
	assert.Equal(t, "after", turns[1].Content)
}

func TestKVStorage_CaseInsensitive(t *testing.T) {
	kv := newTestManager(t).KeyValueStorage()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "DeepSeek_API_Key", "sk-1", "provider key"))

	value, err := kv.Get(ctx, "deepseek_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-1", value)

	pairs, err := kv.List(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "provider key", pairs[0].Description)

	require.NoError(t, kv.Delete(ctx, "DEEPSEEK_API_KEY"))
	_, err = kv.Get(ctx, "deepseek_api_key")
	assert.True(t, errors.Is(err, interfaces.ErrKeyNotFound))
}

func TestResolveAPIKey_FromKVStore(t *testing.T) {
	kv := newTestManager(t).KeyValueStorage()
	ctx := context.Background()
	t.Setenv("SITECHAT_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	require.NoError(t, kv.Set(ctx, "gemini_api_key", "kv-key", ""))

	key, err := common.ResolveAPIKey(ctx, kv, "gemini_api_key", "config-key")
	require.NoError(t, err)
	assert.Equal(t, "kv-key", key)

	t.Setenv("GEMINI_API_KEY", "env-key")
	key, err = common.ResolveAPIKey(ctx, kv, "gemini_api_key", "config-key")
	require.NoError(t, err)
	assert.Equal(t, "env-key", key, "environment wins over the KV store")
}
