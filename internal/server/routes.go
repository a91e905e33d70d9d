package server

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/maauso/videogen-api/internal/storage"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// VideoDir is served under storage.VideoRoute when set.
	VideoDir string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /generate-video", h.GenerateVideo)
	mux.HandleFunc("GET /status/{generation_id}", h.GetStatus)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api-info", h.APIInfo)

	if cfg.VideoDir != "" {
		files := http.StripPrefix(storage.VideoRoute, http.FileServer(noListing{http.Dir(cfg.VideoDir)}))
		mux.Handle("GET "+storage.VideoRoute, files)
	}

	chain := ChainMiddleware(
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}

// noListing hides directory indexes from http.FileServer.
type noListing struct {
	root http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.root.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
