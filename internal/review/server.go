package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
)

// contentServer serves one directory over loopback HTTP for the duration of
// a review session, so the reviewer can view the original document.
type contentServer struct {
	srv  *http.Server
	addr string
	done chan struct{}
}

func newContentServer(dir string, logger *slog.Logger) (*contentServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(dir))))

	cs := &contentServer{
		srv:  &http.Server{Handler: r},
		addr: ln.Addr().String(),
		done: make(chan struct{}),
	}
	go func() {
		defer close(cs.done)
		if err := cs.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("review.server.serve", "error", err)
		}
	}()
	return cs, nil
}

// URL returns the session URL for a file in the served directory.
func (c *contentServer) URL(filename string) string {
	return fmt.Sprintf("http://%s/files/%s", c.addr, url.PathEscape(filename))
}

// Stop shuts the server down, waiting at most grace for in-flight requests
// before forcing the close.
func (c *contentServer) Stop(grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := c.srv.Shutdown(ctx); err != nil {
		_ = c.srv.Close()
	}
	select {
	case <-c.done:
	case <-time.After(grace):
	}
}
