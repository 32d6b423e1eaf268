package browse_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/browse"
	"github.com/artistgrid/gridtracker/internal/downhost"
)

func newTestServer(t *testing.T) (*httptest.Server, string, *downhost.Log) {
	t.Helper()
	root := t.TempDir()
	exportDir := filepath.Join(root, "downloads")
	require.NoError(t, os.MkdirAll(exportDir, 0o750))
	log := downhost.New(filepath.Join(root, "host", "down.txt"))

	srv := httptest.NewServer(browse.NewServer(exportDir, log, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv, exportDir, log
}

func seedArtist(t *testing.T, exportDir, artist string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(exportDir, artist)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	buf := make([]byte, 64*1024)
	n, _ := resp.Body.Read(buf)
	return resp, string(buf[:n])
}

func TestArtistIndex(t *testing.T) {
	srv, exportDir, _ := newTestServer(t)

	t.Run("Empty", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "No artists found")
	})

	t.Run("ListsArtistDirs", func(t *testing.T) {
		seedArtist(t, exportDir, "jsmith", map[string]string{"a.txt": "x"})
		resp, body := get(t, srv.URL+"/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "jsmith")
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})
}

func TestArtistFiles(t *testing.T) {
	srv, exportDir, _ := newTestServer(t)
	seedArtist(t, exportDir, "jsmith", map[string]string{
		"song.mp3":      "audio",
		"song.mp3.meta": "sha256:x\nlastarchive:2026-08-23\n",
	})

	t.Run("ListsNonMetadataFiles", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/jsmith")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "song.mp3")
		assert.NotContains(t, body, "song.mp3.meta")
		assert.Contains(t, body, "SHA256:")
	})

	t.Run("UnknownArtist", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/nobody")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServeFile(t *testing.T) {
	srv, exportDir, _ := newTestServer(t)
	seedArtist(t, exportDir, "jsmith", map[string]string{
		"spreadsheet.xlsx": "xlsx-bytes",
		"page.html":        "<html></html>",
		"blob.unknownext":  "data",
		"secret.meta":      "sha256:x\n",
	})

	t.Run("XLSXContentType", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/downloads/jsmith/spreadsheet.xlsx")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			resp.Header.Get("Content-Type"))
		assert.Equal(t, "xlsx-bytes", body)
	})

	t.Run("HTMLContentType", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/downloads/jsmith/page.html")
		assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	})

	t.Run("FallbackContentType", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/downloads/jsmith/blob.unknownext")
		assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	})

	t.Run("MetadataNotServed", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/downloads/jsmith/secret.meta")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("MissingFile", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/downloads/jsmith/absent.txt")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("TraversalRejected", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/downloads/jsmith/..%2F..%2Fetc%2Fpasswd")
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	})
}

func TestDownPage(t *testing.T) {
	srv, _, log := newTestServer(t)

	t.Run("EmptyLog", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/down")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "No 401 errors logged")
	})

	t.Run("WithEntries", func(t *testing.T) {
		require.NoError(t, log.Append("https://blocked/export?format=zip"))
		resp, body := get(t, srv.URL+"/down")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "https://blocked/export?format=zip")
	})
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)
}
