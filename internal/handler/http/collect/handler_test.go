package collect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intelhub/internal/domain/entity"
	"intelhub/internal/handler/http/tokenauth"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/ingest"
)

type fakeCache struct {
	mu       sync.Mutex
	inserted []repository.CacheRow
	err      error
}

func (f *fakeCache) Insert(ctx context.Context, row repository.CacheRow) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, row)
	return nil
}
func (f *fakeCache) Update(ctx context.Context, id uuid.UUID, patch repository.CacheRow) error {
	return nil
}
func (f *fakeCache) Find(ctx context.Context, filter repository.CacheFilter) ([]repository.CacheRow, error) {
	return nil, nil
}
func (f *fakeCache) MarkArchived(ctx context.Context, id uuid.UUID, flag entity.ArchivedFlag) error {
	return nil
}
func (f *fakeCache) ScanUnflagged(ctx context.Context) ([]repository.CacheRow, error) {
	return nil, nil
}

func postCollect(t *testing.T, handler http.Handler, token, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/collect", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	resp := map[string]string{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func TestCollect_HappyPath(t *testing.T) {
	cache := &fakeCache{}
	queue := ingest.New(8)
	handler := tokenauth.Require(tokenauth.NewSet([]string{"COL_TOK"}), Handler{Cache: cache, Queue: queue})

	rec, resp := postCollect(t, handler, "COL_TOK",
		`{"uuid":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","token":"COL_TOK","content":"news body","title":"T"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "queued", resp["resp"])
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", resp["uuid"])

	// Cache row exists without a terminal flag, and the item is queued
	require.Len(t, cache.inserted, 1)
	assert.Equal(t, entity.FlagNone, cache.inserted[0].ArchivedFlag)
	assert.Equal(t, 1, queue.Len())
}

func TestCollect_AutoFillsMissingUUID(t *testing.T) {
	cache := &fakeCache{}
	queue := ingest.New(8)
	handler := Handler{Cache: cache, Queue: queue}

	rec, resp := postCollect(t, handler, "",
		`{"token":"COL_TOK","content":"news body"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	parsed, err := uuid.Parse(resp["uuid"])
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, parsed)
}

func TestCollect_InvalidToken(t *testing.T) {
	cache := &fakeCache{}
	queue := ingest.New(8)
	handler := tokenauth.Require(tokenauth.NewSet([]string{"COL_TOK"}), Handler{Cache: cache, Queue: queue})

	rec, _ := postCollect(t, handler, "WRONG",
		`{"token":"WRONG","content":"news body"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, cache.inserted, "no cache row on auth failure")
	assert.Zero(t, queue.Len())
}

func TestCollect_InvalidBody(t *testing.T) {
	handler := Handler{Cache: &fakeCache{}, Queue: ingest.New(8)}
	rec, _ := postCollect(t, handler, "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollect_MissingContent(t *testing.T) {
	cache := &fakeCache{}
	handler := Handler{Cache: cache, Queue: ingest.New(8)}

	rec, resp := postCollect(t, handler, "", `{"token":"t","content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["resp"], "content")
	assert.Empty(t, cache.inserted)
}

func TestCollect_CacheFailureRefusesWithoutEnqueue(t *testing.T) {
	cache := &fakeCache{err: errors.New("db down")}
	queue := ingest.New(8)
	handler := Handler{Cache: cache, Queue: queue}

	rec, _ := postCollect(t, handler, "", `{"token":"t","content":"body"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, queue.Len(), "no in-memory enqueue when the durable insert failed")
}

func TestCollect_QueueFullReturnsRetriable(t *testing.T) {
	cache := &fakeCache{}
	queue := ingest.New(1)
	require.NoError(t, queue.Submit(context.Background(), entity.CollectedItem{UUID: uuid.New()}))

	handler := Handler{Cache: cache, Queue: queue}
	rec, resp := postCollect(t, handler, "", `{"token":"t","content":"body"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, resp["resp"], "retry")
}
