package api

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/chi-demo/app"
	demomw "github.com/tendant/chi-demo/middleware"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// Config controls authentication of the HTTP API
type Config struct {
	// APIKeySHA256 is the hex SHA-256 of the admin API key. Empty leaves the
	// admin routes open, which is only meant for development.
	APIKeySHA256 string
	// JWTSecret signs delivery and admin user tokens. Empty generates a
	// per-process secret.
	JWTSecret string
	TokenTTL  time.Duration
	Timeout   time.Duration
}

// NewRouter mounts health checks, public files at the service's public root,
// the delivery API at /api and the admin API at /admin.
func NewRouter(service simplecms.Service, cfg Config) (*chi.Mux, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		slog.Warn("JWT_SECRET not set, delivery tokens will not survive a restart")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)

	r.Mount(FilesPath(service.PublicRoot()), NewFilesHandler(service).Routes())
	r.Mount("/api", NewDeliveryHandler(service, secret, cfg.TokenTTL).Routes())

	admin := NewAdminHandler(service, secret, cfg.TokenTTL)
	if cfg.APIKeySHA256 == "" {
		slog.Warn("API_KEY_SHA256 not set, admin API is unauthenticated")
		r.Mount("/admin", admin.Routes())
		return r, nil
	}

	apiKeyMiddleware, err := demomw.ApiKeyMiddleware(demomw.ApiKeyConfig{
		APIKeys: map[string]string{"admin": cfg.APIKeySHA256},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API key middleware: %w", err)
	}
	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Mount("/admin", admin.Routes())
	})
	return r, nil
}

// FilesPath is the path files are served under. A public root that is a full
// URL (a CDN in front of the server) is served at its path component.
func FilesPath(publicRoot string) string {
	p := publicRoot
	if u, err := url.Parse(publicRoot); err == nil && u.Host != "" {
		p = u.Path
	}
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return strings.TrimSuffix(simplecms.DefaultPublicRoot, "/")
	}
	return p
}
