package confluence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/wikiflow/auth"
	"github.com/BaSui01/wikiflow/types"
)

func authedStore() *auth.Store {
	s := auth.NewStore()
	s.Set(auth.Credential{Token: "tok", CloudID: "cloud-1"})
	return s
}

func TestClient_ResolveTenant(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode([]Resource{
			{ID: "cloud-abc", Name: "Acme", URL: "https://acme.atlassian.net"},
			{ID: "cloud-def", Name: "Other"},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{DiscoveryURL: srv.URL}, auth.NewStore(), nil)
	id, err := c.ResolveTenant(context.Background(), "fresh-token")
	require.NoError(t, err)
	assert.Equal(t, "cloud-abc", id)
}

func TestClient_ResolveTenantEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Resource{})
	}))
	defer srv.Close()

	c := NewClient(Config{DiscoveryURL: srv.URL}, auth.NewStore(), nil)
	id, err := c.ResolveTenant(context.Background(), "tok")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestClient_ResolveTenantNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{DiscoveryURL: srv.URL}, auth.NewStore(), nil)
	_, err := c.ResolveTenant(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, types.ErrTenantResolution, types.GetErrorCode(err))
}

func TestClient_SearchByText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cloud-1/wiki/rest/api/content/search", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("cql"), "title~'runbook'")
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Write([]byte(`{
			"totalSize": 2,
			"results": [
				{"id": "100", "title": "Runbook", "space": {"name": "Ops"},
				 "excerpt": "restart steps", "_links": {"webui": "/spaces/OPS/pages/100"}},
				{"id": "101", "title": "Old Runbook", "space": {}, "_links": {"webui": "/x"}}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL}, authedStore(), nil)
	result, err := c.SearchByText(context.Background(), "runbook", 5)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, "100", result.Pages[0].ID)
	assert.Equal(t, "Ops", result.Pages[0].Space)
	assert.Equal(t, "https://cloud-1.atlassian.net/wiki/spaces/OPS/pages/100", result.Pages[0].URL)
	assert.Equal(t, "N/A", result.Pages[1].Space)
}

func TestClient_SearchUnauthenticated(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{APIBase: "http://unused"}, auth.NewStore(), nil)
	_, err := c.SearchByText(context.Background(), "anything", 10)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_GetPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cloud-1/wiki/api/v2/pages/100", r.URL.Path)
		require.Equal(t, "storage", r.URL.Query().Get("body-format"))
		w.Write([]byte(`{
			"id": "100", "title": "Runbook", "spaceId": "7", "status": "current",
			"version": {"number": 3},
			"body": {"storage": {"value": "<p>restart steps</p>"}}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL}, authedStore(), nil)
	page, err := c.GetPage(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, "Runbook", page.Title)
	assert.Equal(t, 3, page.Version)
	assert.Equal(t, "<p>restart steps</p>", page.Content)
}

func TestClient_GetPageNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[{"title":"not found"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL}, authedStore(), nil)
	_, err := c.GetPage(context.Background(), "999")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestClient_CreatePage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cloud-1/wiki/api/v2/spaces":
			require.Equal(t, "OPS", r.URL.Query().Get("keys"))
			w.Write([]byte(`{"results": [{"id": "7"}]}`))
		case "/cloud-1/wiki/api/v2/pages":
			require.Equal(t, http.MethodPost, r.Method)
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "7", payload["spaceId"])
			assert.Equal(t, "current", payload["status"])
			body := payload["body"].(map[string]any)
			assert.Equal(t, "storage", body["representation"])
			assert.Equal(t, "<p>plain text</p>", body["value"])
			_, hasParent := payload["parentId"]
			assert.False(t, hasParent)

			w.Write([]byte(`{"id": "200", "title": "New Page"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL}, authedStore(), nil)
	created, err := c.CreatePage(context.Background(), CreatePageRequest{
		SpaceKey: "OPS",
		Title:    "New Page",
		Content:  "plain text",
	})
	require.NoError(t, err)
	assert.Equal(t, "200", created.ID)
	assert.Equal(t, "7", created.SpaceID)
}

func TestClient_CreatePageSpaceNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL}, authedStore(), nil)
	_, err := c.CreatePage(context.Background(), CreatePageRequest{
		SpaceKey: "NOPE", Title: "x", Content: "y",
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrSpaceNotFound, types.GetErrorCode(err))
}

func TestClient_CreatePageKeepsHTMLContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cloud-1/wiki/api/v2/spaces":
			w.Write([]byte(`{"results": [{"id": "7"}]}`))
		case "/cloud-1/wiki/api/v2/pages":
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			body := payload["body"].(map[string]any)
			assert.Equal(t, "<h1>Title</h1>", body["value"])
			w.Write([]byte(`{"id": "201", "title": "t"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL}, authedStore(), nil)
	_, err := c.CreatePage(context.Background(), CreatePageRequest{
		SpaceKey: "OPS", Title: "t", Content: "<h1>Title</h1>",
	})
	require.NoError(t, err)
}
