package harden

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"
)

// Server is the interactive development server: static files below a root
// directory, served through the security-header middleware, with every HTML
// document passed through the per-request transform before the body is sent.
type Server struct {
	hardener *Hardener
	root     string
	addr     string
}

func NewServer(h *Hardener, root string, port int) *Server {
	return &Server{
		hardener: h,
		root:     root,
		addr:     fmt.Sprintf("127.0.0.1:%d", port),
	}
}

// Handler builds the middleware chain around the file handler.
func (s *Server) Handler() http.Handler {
	return s.hardener.ServeMiddleware()(http.HandlerFunc(s.serveFile))
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		name = filepath.Join(name, "index.html")
	}

	if !strings.HasSuffix(name, ".html") {
		http.ServeFile(w, r, name)
		return
	}

	data, err := os.ReadFile(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	doc, err := s.hardener.TransformHTML(string(data))
	if err != nil {
		gologger.Error().Msgf("Could not transform %s: %s", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(doc)); err != nil {
		gologger.Debug().Msgf("Could not write response for %s: %s", name, err)
	}
}

// ListenAndServe serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	gologger.Info().Msgf("Serving %s on http://%s", s.root, s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
