package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysvitali/photowall-server/internal/models"
	"github.com/denysvitali/photowall-server/pkg/config"
	"github.com/denysvitali/photowall-server/pkg/server"
)

func setupTestServer(t *testing.T, mutate ...func(*config.Config)) (*server.Server, string) {
	root := t.TempDir()
	cfg := config.Default(root)
	for _, m := range mutate {
		m(cfg)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return server.New(cfg, logger), root
}

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func do(t *testing.T, srv *server.Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)
	return rr
}

func decodeListing(t *testing.T, rr *httptest.ResponseRecorder) []string {
	var files []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &files), "body: %s", rr.Body.String())
	return files
}

func TestListFiles_DefaultDirSorted(t *testing.T) {
	srv, root := setupTestServer(t)
	writeFile(t, filepath.Join(root, "assets", "photos", "b.png"), "b")
	writeFile(t, filepath.Join(root, "assets", "photos", "a.jpg"), "a")

	rr := do(t, srv, http.MethodGet, "/api/files")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `["a.jpg", "b.png"]`, rr.Body.String())
}

func TestListFiles_MissingDirIsCreated(t *testing.T) {
	srv, root := setupTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/files?dir=music")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	assert.DirExists(t, filepath.Join(root, "assets", "music"))
}

func TestListFiles_ExcludesSubdirectories(t *testing.T) {
	srv, root := setupTestServer(t)
	dir := filepath.Join(root, "assets", "music")
	writeFile(t, filepath.Join(dir, "track.mp3"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "album"), 0755))

	rr := do(t, srv, http.MethodGet, "/api/files?dir=music")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"track.mp3"}, decodeListing(t, rr))
}

func TestListFiles_OmittedDirEqualsPhotos(t *testing.T) {
	srv, root := setupTestServer(t)
	writeFile(t, filepath.Join(root, "assets", "photos", "p.jpg"), "p")

	omitted := do(t, srv, http.MethodGet, "/api/files")
	empty := do(t, srv, http.MethodGet, "/api/files?dir=")
	explicit := do(t, srv, http.MethodGet, "/api/files?dir=photos")

	assert.Equal(t, explicit.Body.String(), omitted.Body.String())
	assert.Equal(t, explicit.Body.String(), empty.Body.String())
	assert.Equal(t, []string{"p.jpg"}, decodeListing(t, explicit))
}

func TestListFiles_Idempotent(t *testing.T) {
	srv, root := setupTestServer(t)
	writeFile(t, filepath.Join(root, "assets", "photos", "z.gif"), "z")
	writeFile(t, filepath.Join(root, "assets", "photos", "m.gif"), "m")

	first := do(t, srv, http.MethodGet, "/api/files?dir=photos")
	second := do(t, srv, http.MethodGet, "/api/files?dir=photos")

	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestListFiles_NeverServedStatically(t *testing.T) {
	srv, root := setupTestServer(t)
	writeFile(t, filepath.Join(root, "api", "files"), "static content")

	rr := do(t, srv, http.MethodGet, "/api/files")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "static content")
	assert.Empty(t, decodeListing(t, rr))
}

func TestListFiles_PrefixMatch(t *testing.T) {
	srv, _ := setupTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/files/extra?dir=photos")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestListFiles_FilesystemFault(t *testing.T) {
	srv, root := setupTestServer(t)
	// A regular file where the directory should be
	writeFile(t, filepath.Join(root, "assets", "photos"), "not a directory")

	rr := do(t, srv, http.MethodGet, "/api/files")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)

	// The server keeps serving other requests
	ok := do(t, srv, http.MethodGet, "/api/files?dir=music")
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestListFiles_HeadRequest(t *testing.T) {
	srv, _ := setupTestServer(t)

	rr := do(t, srv, http.MethodHead, "/api/files")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestStatic_ServesFile(t *testing.T) {
	srv, root := setupTestServer(t)
	writeFile(t, filepath.Join(root, "assets", "photos", "a.jpg"), "jpeg bytes")

	rr := do(t, srv, http.MethodGet, "/assets/photos/a.jpg")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg bytes", rr.Body.String())
}

func TestStatic_MissingFile(t *testing.T) {
	srv, _ := setupTestServer(t)

	rr := do(t, srv, http.MethodGet, "/photos/a.jpg")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatic_IndexAndDirectoryListing(t *testing.T) {
	srv, root := setupTestServer(t)
	writeFile(t, filepath.Join(root, "index.html"), "<h1>wall</h1>")
	writeFile(t, filepath.Join(root, "assets", "music", "song.mp3"), "x")

	index := do(t, srv, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, index.Code)
	assert.Contains(t, index.Body.String(), "<h1>wall</h1>")

	listing := do(t, srv, http.MethodGet, "/assets/music/")
	assert.Equal(t, http.StatusOK, listing.Code)
	assert.Contains(t, listing.Body.String(), "song.mp3")
}

func TestUnsupportedMethods(t *testing.T) {
	srv, _ := setupTestServer(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			for _, target := range []string{"/api/files", "/index.html"} {
				rr := do(t, srv, method, target)
				assert.Equal(t, http.StatusNotImplemented, rr.Code, target)
			}
		})
	}
}

func TestRuntimeInfo_DisabledByDefault(t *testing.T) {
	srv, _ := setupTestServer(t)

	rr := do(t, srv, http.MethodGet, "/_runtime/alive")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRuntimeInfo_Enabled(t *testing.T) {
	srv, root := setupTestServer(t, func(c *config.Config) {
		c.Server.RuntimeInfo = true
	})

	alive := do(t, srv, http.MethodGet, "/_runtime/alive")
	assert.Equal(t, http.StatusOK, alive.Code)
	assert.JSONEq(t, `{"status":"ok"}`, alive.Body.String())

	info := do(t, srv, http.MethodGet, "/_runtime/info")
	require.Equal(t, http.StatusOK, info.Code)

	var resp models.RuntimeInfo
	require.NoError(t, json.Unmarshal(info.Body.Bytes(), &resp))
	assert.Equal(t, root, resp.Root)
	assert.Equal(t, filepath.Join(root, "assets"), resp.AssetRoot)
	assert.Equal(t, []string{"photos", "music"}, resp.Aliases)
	assert.GreaterOrEqual(t, resp.Uptime, 0.0)
	assert.GreaterOrEqual(t, resp.SystemStats.CPUCount, 1)

	missing := do(t, srv, http.MethodGet, "/_runtime/nope")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	// The file API is unaffected
	files := do(t, srv, http.MethodGet, "/api/files")
	assert.Equal(t, http.StatusOK, files.Code)
}

func TestCustomAPIPrefix(t *testing.T) {
	srv, root := setupTestServer(t, func(c *config.Config) {
		c.Server.APIPrefix = "/list"
	})
	writeFile(t, filepath.Join(root, "assets", "photos", "a.jpg"), "a")

	rr := do(t, srv, http.MethodGet, "/list?dir=photos")
	assert.Equal(t, []string{"a.jpg"}, decodeListing(t, rr))

	// The default prefix is now an ordinary static path
	static := do(t, srv, http.MethodGet, "/api/files")
	assert.Equal(t, http.StatusNotFound, static.Code)
}

func TestStart_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	srv, _ := setupTestServer(t, func(c *config.Config) {
		c.Server.Host = "127.0.0.1"
		c.Server.Port = l.Addr().(*net.TCPAddr).Port
	})

	assert.Error(t, srv.Start())
}

func TestStart_AfterShutdown(t *testing.T) {
	srv, _ := setupTestServer(t)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Start())
}
