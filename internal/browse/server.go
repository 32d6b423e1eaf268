// Package browse exposes the read-only HTTP interface over the export tree.
package browse

import (
	"context"
	"fmt"
	"html"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/downhost"
	"github.com/artistgrid/gridtracker/internal/exports"
	"github.com/artistgrid/gridtracker/internal/hash/sha256"
)

const pageStyle = "<style>body { font-family: monospace; background:#111; color:#eee; padding:20px; }" +
	"a { color: #6cf; text-decoration:none; } a:hover { text-decoration: underline; }</style>"

// Server wires HTTP handlers over the export directory tree.
type Server struct {
	router    chi.Router
	exportDir string
	downLog   *downhost.Log
	hasher    *sha256.Hasher
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(exportDir string, downLog *downhost.Log, logger *zap.Logger) *Server {
	s := &Server{
		exportDir: exportDir,
		downLog:   downLog,
		hasher:    sha256.New(),
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/down", s.downPage)
	r.Get("/downloads/{artist}/{file}", s.serveFile)
	r.Get("/", s.artistIndex)
	r.Get("/{artist}", s.artistFiles)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) downPage(w http.ResponseWriter, _ *http.Request) {
	data, err := s.downLog.Read()
	if err != nil {
		http.Error(w, "failed to read log", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if len(data) == 0 {
		_, _ = w.Write([]byte("No 401 errors logged.\n"))
		return
	}
	_, _ = w.Write(data)
}

func (s *Server) artistIndex(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(s.exportDir)
	if err != nil && !os.IsNotExist(err) {
		http.Error(w, "failed to list artists", http.StatusInternalServerError)
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset='utf-8'><title>Artists</title>")
	b.WriteString(pageStyle)
	b.WriteString("</head><body><h1>Artists</h1>")

	var artists []string
	for _, entry := range entries {
		if entry.IsDir() {
			artists = append(artists, entry.Name())
		}
	}
	sort.Strings(artists)

	if len(artists) == 0 {
		b.WriteString("<p>No artists found.</p>")
	} else {
		b.WriteString("<ul>")
		for _, artist := range artists {
			fmt.Fprintf(&b, "<li><a href='/%s'>%s</a></li>",
				url.PathEscape(artist), html.EscapeString(artist))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</body></html>")
	writeHTML(w, b.String())
}

func (s *Server) artistFiles(w http.ResponseWriter, r *http.Request) {
	artist := chi.URLParam(r, "artist")
	dir, ok := s.securePath(artist)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		http.Error(w, "artist not found", http.StatusNotFound)
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		http.Error(w, "failed to list files", http.StatusInternalServerError)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html><html><head><meta charset='utf-8'><title>%s Files</title>", html.EscapeString(artist))
	b.WriteString(pageStyle)
	b.WriteString("</head><body>")
	fmt.Fprintf(&b, "<h1>Downloads for %s</h1><p><a href='/'>&larr; Back to Artists</a></p><ul>", html.EscapeString(artist))

	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasSuffix(name, exports.MetadataSuffix) {
			continue
		}
		full := filepath.Join(dir, name)
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		fileHash, err := s.hasher.HashFile(full)
		if err != nil {
			fileHash = "N/A"
		}
		fmt.Fprintf(&b, "<li><a href='/downloads/%s/%s'>%s</a> (Modified: %s) SHA256: %s</li>",
			url.PathEscape(artist), url.PathEscape(name), html.EscapeString(name),
			fi.ModTime().Format("2006-01-02 15:04:05"), fileHash)
	}
	b.WriteString("</ul></body></html>")
	writeHTML(w, b.String())
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	artist := chi.URLParam(r, "artist")
	name := chi.URLParam(r, "file")
	if strings.HasSuffix(name, exports.MetadataSuffix) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	path, ok := s.securePath(artist, name)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypeFor(name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	http.ServeContent(w, r, "", time.Time{}, f)
}

// securePath joins parts under the export root and rejects anything
// that escapes it.
func (s *Server) securePath(parts ...string) (string, bool) {
	full := filepath.Join(append([]string{s.exportDir}, parts...)...)
	cleanRoot := filepath.Clean(s.exportDir)
	cleanFull := filepath.Clean(full)
	if !strings.HasPrefix(cleanFull, cleanRoot+string(filepath.Separator)) {
		return "", false
	}
	return cleanFull, true
}

func contentTypeFor(name string) string {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
