package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/wikarden/internal/models"
	"github.com/starford/wikarden/internal/pageservice"
	"github.com/starford/wikarden/internal/storage"
	"github.com/starford/wikarden/internal/testutil"
)

// testEnv sets up a source tree, a catalog holding one build of it, and the
// API router. An empty token disables auth.
func testEnv(t *testing.T, token string) http.Handler {
	t.Helper()
	return testEnvWithSSE(t, token, nil)
}

func testEnvWithSSE(t *testing.T, token string, sseHandler http.Handler) http.Handler {
	t.Helper()

	src := testutil.WriteTree(t, map[string]string{
		"index.md":       "# Home\n\nSee {setup}.",
		"guide/setup.md": "# Setup\n\nuniqueword here",
	})
	store, err := storage.NewFS(src)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	db := testutil.TestDB(t)
	now := time.Now()
	err = db.ReplaceBuild(
		models.Build{ID: "b1", StartedAt: now, FinishedAt: now, Pages: 2, Status: models.BuildSucceeded},
		[]models.Page{
			{Path: "index.md", Title: "Home", Output: "index.html", Body: "Home\nSee setup."},
			{Path: "guide/setup.md", Title: "Setup", Output: "guide/setup.html", Body: "Setup\nuniqueword here"},
		},
		[]models.Link{{Source: "index.md", Target: "guide/setup.md", Kind: "page"}},
	)
	if err != nil {
		t.Fatalf("ReplaceBuild: %v", err)
	}

	return NewRouter(pageservice.NewService(store, db), token, sseHandler)
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListPages(t *testing.T) {
	router := testEnv(t, "")
	w := get(t, router, "/pages")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp PageListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Pages) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetPage(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/pages/guide/setup.md")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var page PageDetail
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if page.Title != "Setup" {
		t.Errorf("title = %q, want Setup", page.Title)
	}
	if len(page.Backlinks) != 1 || page.Backlinks[0] != "index.md" {
		t.Errorf("backlinks = %v", page.Backlinks)
	}

	// Encoded slashes are accepted.
	w = get(t, router, "/pages/guide%2Fsetup.md")
	if w.Code != http.StatusOK {
		t.Errorf("encoded path status = %d", w.Code)
	}
}

func TestGetPage_NotFound(t *testing.T) {
	router := testEnv(t, "")
	w := get(t, router, "/pages/nope.md")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetSource(t *testing.T) {
	router := testEnv(t, "")
	w := get(t, router, "/source/index.md")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var src Source
	_ = json.Unmarshal(w.Body.Bytes(), &src)
	if src.Content != "# Home\n\nSee {setup}." {
		t.Errorf("content = %q", src.Content)
	}
	if w.Header().Get("ETag") != `"`+src.Checksum+`"` {
		t.Errorf("etag = %q", w.Header().Get("ETag"))
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")
	w := get(t, router, "/search?q=uniqueword")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Path != "guide/setup.md" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t, "")
	w := get(t, router, "/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLastBuild(t *testing.T) {
	router := testEnv(t, "")
	w := get(t, router, "/builds/last")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var b BuildResponse
	_ = json.Unmarshal(w.Body.Bytes(), &b)
	if b.ID != "b1" || b.Status != models.BuildSucceeded {
		t.Errorf("build = %+v", b)
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := get(t, router, "/pages", "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestBearerAuth_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := get(t, router, "/pages")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}
}

func TestBearerAuth_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := get(t, router, "/pages", "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	sse := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router := testEnvWithSSE(t, "tok", sse)
	if w := get(t, router, "/events"); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
	if w := get(t, router, "/events", "Authorization", "Bearer tok"); w.Code != http.StatusOK {
		t.Errorf("SSE valid token = %d, want 200", w.Code)
	}

	router = testEnvWithSSE(t, "", sse)
	if w := get(t, router, "/events"); w.Code != http.StatusOK {
		t.Errorf("SSE auth disabled = %d, want 200", w.Code)
	}
}

func TestSiteHandler(t *testing.T) {
	out := t.TempDir()
	if err := os.MkdirAll(filepath.Join(out, "guide"), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(out, "index.html"), []byte("<p>home</p>"), 0o644)
	_ = os.WriteFile(filepath.Join(out, "guide", "setup.html"), []byte("<p>setup</p>"), 0o644)
	h := NewSiteHandler(out, "html")

	w := get(t, h, "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "home") {
		t.Errorf("root = %d %q", w.Code, w.Body.String())
	}

	w = get(t, h, "/guide/setup.html")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "setup") {
		t.Errorf("page = %d %q", w.Code, w.Body.String())
	}

	w = get(t, h, "/guide")
	if w.Code != http.StatusMovedPermanently {
		t.Errorf("dir without slash = %d, want 301", w.Code)
	}

	w = get(t, h, "/guide/")
	if w.Code != http.StatusNotFound {
		t.Errorf("dir without index = %d, want 404", w.Code)
	}

	w = get(t, h, "/missing.html")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", w.Code)
	}
}

func TestSiteHandler_TraversalBlocked(t *testing.T) {
	parent := t.TempDir()
	out := filepath.Join(parent, "out")
	_ = os.MkdirAll(out, 0o755)
	_ = os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644)
	h := NewSiteHandler(out, "html")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../secret.txt"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("traversal served file outside root: %d", w.Code)
	}
}
