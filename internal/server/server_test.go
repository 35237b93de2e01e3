package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/livefield/internal/config"
	"github.com/conneroisu/livefield/internal/content"
	"github.com/conneroisu/livefield/internal/partial"
)

func testConfig(contentFile string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           8080,
			AllowedOrigins: []string{"https://editor.example.com"},
		},
		Content: config.ContentConfig{
			File:              contentFile,
			DefaultCapability: content.DefaultCapability,
		},
		Preview: config.PreviewConfig{
			Debounce:     20 * time.Millisecond,
			ExcerptWords: 55,
			Autop:        true,
		},
		Auth: config.AuthConfig{
			Mode:        "enforce",
			RoleHeader:  "X-Preview-Role",
			DefaultRole: "anonymous",
			Roles:       config.DefaultRoles(),
		},
	}
}

func setupTestServer(t *testing.T) *PreviewServer {
	t.Helper()

	server, err := New(testConfig(filepath.Join(t.TempDir(), "content.yml")), nil)
	require.NoError(t, err)

	server.Store().Put(&content.Record{
		Type:   "post",
		ID:     1,
		Status: content.StatusPublish,
		Slug:   "hello-world",
		Fields: map[string]string{
			"title": "Hello World",
			"body":  "First paragraph.",
		},
	})
	server.Store().Put(&content.Record{
		Type:   "page",
		ID:     2,
		Status: content.StatusPublish,
		Fields: map[string]string{"title": "About"},
	})

	return server
}

func TestNewRejectsUnknownAuthMode(t *testing.T) {
	cfg := testConfig("content.yml")
	cfg.Auth.Mode = "sometimes"

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	server := setupTestServer(t)
	handler := server.Handler()

	t.Run("allowed origin gets CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://editor.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "https://editor.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Preview-Role")
	})

	t.Run("unknown origin gets no CORS header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/partials/render", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Len(t, w.Header().Get("X-Request-ID"), 36)

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc")
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	})
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "content.yml")
	server, err := New(testConfig(file), nil)
	require.NoError(t, err)

	err = server.Reload(context.Background())
	require.Error(t, err)

	require.NoError(t, os.WriteFile(file, []byte(`
types:
  - name: book
    public: true
records:
  - type: book
    id: 7
    slug: dune
    fields:
      title: Dune
`), 0o600))

	require.NoError(t, server.Reload(context.Background()))
	assert.Equal(t, 1, server.Store().Count())

	_, ok := server.Types().LookupType("book")
	assert.True(t, ok)

	resp := server.renderPartials(context.Background(), "editor", RenderRequest{
		Partials: []string{"record[book][7][title]"},
		Listing:  []int64{7},
	})
	assert.Equal(t, `<a href="/book/dune/" rel="bookmark">Dune</a>`, resp.Contents["record[book][7][title]"])
}

func TestReloadResetsPartialCache(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "content.yml")
	require.NoError(t, os.WriteFile(file, []byte(bookContent(true)), 0o600))

	server, err := New(testConfig(file), nil)
	require.NoError(t, err)
	require.NoError(t, server.Reload(context.Background()))

	_, err = server.partial("record[book][1][title]")
	require.NoError(t, err)
	assert.Contains(t, server.partials, "record[book][1][title]")

	require.NoError(t, os.WriteFile(file, []byte(bookContent(false)), 0o600))
	require.NoError(t, server.Reload(context.Background()))

	_, err = server.partial("record[book][1][title]")
	assert.Error(t, err)
}

func TestCachePartialAfterReload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "content.yml")
	require.NoError(t, os.WriteFile(file, []byte(bookContent(true)), 0o600))

	server, err := New(testConfig(file), nil)
	require.NoError(t, err)
	require.NoError(t, server.Reload(context.Background()))

	p, err := partial.New("record[book][1][title]", server.Types())
	require.NoError(t, err)

	gen := server.partialsGen
	require.NoError(t, server.Reload(context.Background()))

	assert.False(t, server.cachePartial(p, gen))
	assert.Empty(t, server.partials)
	assert.True(t, server.cachePartial(p, server.partialsGen))
	assert.Contains(t, server.partials, "record[book][1][title]")
}

func bookContent(public bool) string {
	return fmt.Sprintf("types:\n  - name: book\n    public: %t\nrecords:\n  - type: book\n    id: 1\n    slug: dune\n    fields:\n      title: Dune\n", public)
}

func TestWatchStoreBroadcastsSettings(t *testing.T) {
	server := setupTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.watchStore(ctx)
	time.Sleep(20 * time.Millisecond)

	server.Store().Update(1, func(rec *content.Record) {
		rec.Fields["title"] = "Changed"
	})

	select {
	case raw := <-server.broadcast:
		var msg UpdateMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "setting-changed", msg.Type)
		assert.Equal(t, []string{"record[post][1]"}, msg.Settings)
	case <-time.After(time.Second):
		t.Fatal("expected a setting-changed message")
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	server := setupTestServer(t)
	assert.NoError(t, server.Shutdown(context.Background()))
	assert.NoError(t, server.Shutdown(context.Background()))
}

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(map[string]struct{}{"b": {}, "a": {}, "c": {}})
	assert.Equal(t, "a,b,c", strings.Join(keys, ","))
}
