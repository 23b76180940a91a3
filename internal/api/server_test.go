package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/classify/internal/backends"
	"github.com/dyluth/classify/internal/logging"
	"github.com/dyluth/classify/internal/orchestrator"
	"github.com/dyluth/classify/internal/query"
	"github.com/dyluth/classify/internal/testutil"
	"github.com/dyluth/classify/pkg/catalog"
)

const testAPIKey = "test-api-key"

type stubFetcher struct {
	pages map[string]string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	page, ok := f.pages[url]
	if !ok {
		return "", errors.New("HTTP 404")
	}
	return page, nil
}

type stubClassifier struct {
	tags []string
	err  error
}

func (c *stubClassifier) Classify(ctx context.Context, text string) ([]string, error) {
	return c.tags, c.err
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fixture struct {
	handler    http.Handler
	content    *testutil.ContentStore
	tags       *testutil.TagIndex
	fetcher    *stubFetcher
	classifier *stubClassifier
	pingErr    error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		content:    testutil.NewContentStore(),
		tags:       testutil.NewTagIndex(),
		fetcher:    &stubFetcher{pages: map[string]string{}},
		classifier: &stubClassifier{tags: []string{"cooking", "travel"}},
	}

	engine := orchestrator.NewEngine(f.content, f.tags, f.fetcher, f.classifier, orchestrator.Options{
		DetectDuplicates: true,
		Logger:           logging.Discard(),
	})
	q := query.NewService(f.content, f.tags, logging.Discard())
	checks := []backends.Check{{Name: "redis", Pinger: pingFunc(func(ctx context.Context) error { return f.pingErr })}}

	srv, err := NewServer(engine, q, testAPIKey, checks, logging.Discard())
	require.NoError(t, err)
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(APIKeyHeader, testAPIKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (f *fixture) classify(t *testing.T, content string) *catalog.Record {
	t.Helper()
	body, _ := json.Marshal(ClassifyRequest{Content: content})
	rec := f.do(t, http.MethodPost, "/classify", string(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ClassifyResponse](t, rec).Content
}

func TestNewServerRequiresKey(t *testing.T) {
	_, err := NewServer(nil, nil, "", nil, nil)
	assert.Error(t, err)
}

func TestAPIKeyRequired(t *testing.T) {
	f := newFixture(t)

	for _, key := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/tags", nil)
		if key != "" {
			req.Header.Set(APIKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		resp := decode[ErrorResponse](t, rec)
		assert.False(t, resp.Success)
	}
}

func TestHealthNeedsNoKey(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthResponse{Status: "healthy", Checks: map[string]string{"redis": "ok"}}, decode[HealthResponse](t, rec))

	f.pingErr = errors.New("dial tcp 10.0.0.7:6379: connect: connection refused")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "unavailable", resp.Checks["redis"])
}

func TestClassifyText(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/classify", `{"content":"A recipe for travel snacks"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[ClassifyResponse](t, rec)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Content)
	assert.Equal(t, "A recipe for travel snacks", resp.Content.Content)
	assert.Equal(t, []string{"cooking", "travel"}, resp.Content.Tags)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, 1, f.content.Len())
}

func TestClassifyURL(t *testing.T) {
	f := newFixture(t)
	f.fetcher.pages["https://example.com/a"] = "Some article about cooking and travel"

	rec := f.classify(t, "https://example.com/a")
	assert.Equal(t, "Some article about cooking and travel", rec.Content)
	assert.Equal(t, "https://example.com/a", rec.SourceURL)
}

func TestClassifyDuplicateConflict(t *testing.T) {
	f := newFixture(t)
	first := f.classify(t, "same text")

	rec := f.do(t, http.MethodPost, "/classify", `{"content":"same text"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decode[ClassifyResponse](t, rec)
	assert.True(t, resp.Success)
	assert.True(t, resp.Duplicate)
	assert.Equal(t, first.ID, resp.Content.ID)
	assert.Equal(t, 1, f.content.Len())
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(f *fixture)
		status int
	}{
		{"malformed body", `{"content":`, nil, http.StatusBadRequest},
		{"empty content", `{"content":"  "}`, nil, http.StatusBadRequest},
		{"fetch failure", `{"content":"https://example.com/missing"}`, nil, http.StatusUnprocessableEntity},
		{"classifier failure", `{"content":"text"}`, func(f *fixture) { f.classifier.err = errors.New("HTTP 500") }, http.StatusBadGateway},
		{"store failure", `{"content":"text"}`, func(f *fixture) {
			f.content.PutErr = catalog.BackendError("put", "x", errors.New("disk full"))
		}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			rec := f.do(t, http.MethodPost, "/classify", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestClassifyBackendErrorHidesDetails(t *testing.T) {
	f := newFixture(t)
	f.content.PutErr = catalog.BackendError("put", "x", errors.New("dial tcp 10.0.0.5:6379"))

	rec := f.do(t, http.MethodPost, "/classify", `{"content":"text"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "storage backend unavailable")
}

func TestClassifyPartialWrite(t *testing.T) {
	f := newFixture(t)
	f.tags.AddErr = catalog.BackendError("sadd", "t", errors.New("timeout"))

	rec := f.do(t, http.MethodPost, "/classify", `{"content":"text"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[ClassifyResponse](t, rec)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Content)
	assert.Contains(t, resp.Warning, "partial_write")

	// The record is readable by ID even though it is not indexed
	rec = f.do(t, http.MethodGet, "/content/"+resp.Content.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTagsAndContentByTags(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/tags", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, TagsResponse{Success: true, Tags: []string{}, Count: 0}, decode[TagsResponse](t, rec))

	a := f.classify(t, "first")
	f.classifier.tags = []string{"news"}
	time.Sleep(2 * time.Millisecond)
	b := f.classify(t, "second")

	rec = f.do(t, http.MethodGet, "/tags", "")
	tags := decode[TagsResponse](t, rec)
	assert.Equal(t, []string{"cooking", "news", "travel"}, tags.Tags)
	assert.Equal(t, 3, tags.Count)

	rec = f.do(t, http.MethodGet, "/content?tags=travel,NEWS", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ContentListResponse](t, rec)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, b.ID, list.Content[0].ID, "newest first")
	assert.Equal(t, a.ID, list.Content[1].ID)

	rec = f.do(t, http.MethodGet, "/content?tags=travel,news&limit=1", "")
	assert.Equal(t, 1, decode[ContentListResponse](t, rec).Count)

	rec = f.do(t, http.MethodGet, "/content?tags=unknown", "")
	list = decode[ContentListResponse](t, rec)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Content)
}

func TestListRecentWithoutTags(t *testing.T) {
	f := newFixture(t)
	f.classify(t, "one")
	time.Sleep(2 * time.Millisecond)
	two := f.classify(t, "two")

	rec := f.do(t, http.MethodGet, "/content?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ContentListResponse](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, two.ID, list.Content[0].ID)

	rec = f.do(t, http.MethodGet, "/content?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContent(t *testing.T) {
	f := newFixture(t)
	stored := f.classify(t, "This is the content text for testing")

	rec := f.do(t, http.MethodGet, "/content/"+stored.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stored.ID, decode[ContentResponse](t, rec).Content.ID)

	rec = f.do(t, http.MethodGet, "/content/"+stored.ID+"/text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "This is the content text for testing", rec.Body.String())

	for _, path := range []string{"/content/missing", "/content/missing/text"} {
		rec = f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, decode[ErrorResponse](t, rec).Error, "content with ID 'missing' not found")
	}
}

func TestDeleteContent(t *testing.T) {
	f := newFixture(t)
	stored := f.classify(t, "to delete")

	rec := f.do(t, http.MethodDelete, "/content/"+stored.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DeleteResponse](t, rec)
	assert.True(t, resp.Result.Deleted)
	assert.ElementsMatch(t, []string{"cooking", "travel"}, resp.Result.RemovedTags)
	assert.Empty(t, resp.Warning)

	rec = f.do(t, http.MethodDelete, "/content/"+stored.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[DeleteResponse](t, rec)
	assert.True(t, resp.Success)
	assert.False(t, resp.Result.Found)
	assert.False(t, resp.Result.Deleted)
	assert.Empty(t, resp.Warning)
	assert.Contains(t, rec.Body.String(), `"removed_tags":[]`)
}

func TestDeleteNeverStoredIsSuccess(t *testing.T) {
	f := newFixture(t)
	id := "6f1c1f5e-0000-4000-8000-000000000000"

	rec := f.do(t, http.MethodDelete, "/content/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DeleteResponse](t, rec)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, id, resp.Result.ID)
	assert.False(t, resp.Result.Found)
	assert.Equal(t, []string{}, resp.Result.RemovedTags)
}

func TestDeletePartialWrite(t *testing.T) {
	f := newFixture(t)
	stored := f.classify(t, "to delete")
	f.tags.RemoveErr = catalog.BackendError("srem", "t", errors.New("timeout"))

	rec := f.do(t, http.MethodDelete, "/content/"+stored.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DeleteResponse](t, rec)
	assert.True(t, resp.Result.Deleted)
	assert.True(t, resp.Result.TagCleanupIncomplete)
	assert.NotEmpty(t, resp.Warning)
}

func TestReindex(t *testing.T) {
	f := newFixture(t)
	f.classify(t, "one")
	f.classify(t, "two")

	rec := f.do(t, http.MethodPost, "/reindex", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ReindexResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Result.Records)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(&query.NotFoundError{ID: "x"}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(catalog.CorruptError("get", "x", errors.New("bad"))))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	engine := orchestrator.NewEngine(testutil.NewContentStore(), testutil.NewTagIndex(), nil, &stubClassifier{}, orchestrator.Options{})
	srv, err := NewServer(engine, query.NewService(testutil.NewContentStore(), testutil.NewTagIndex(), nil), testAPIKey, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
