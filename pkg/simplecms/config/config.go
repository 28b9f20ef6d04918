package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
	"github.com/tendant/simple-cms/pkg/simplecms/notify"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
	repopg "github.com/tendant/simple-cms/pkg/simplecms/repo/postgres"
	fsstorage "github.com/tendant/simple-cms/pkg/simplecms/storage/fs"
	memorystorage "github.com/tendant/simple-cms/pkg/simplecms/storage/memory"
	s3storage "github.com/tendant/simple-cms/pkg/simplecms/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                "8080",
		Environment:         "development",
		DatabaseURL:         "memory",
		StorageURL:          "memory://",
		PublicRoot:          simplecms.DefaultPublicRoot,
		ScheduleSpec:        "@every 1m",
		EnableNotifications: true,
		S3:                  S3Config{Region: "us-east-1"},
	}
}

// ServerConfig represents server configuration for the simple-cms service
type ServerConfig struct {
	Port        string `yaml:"port" json:"port" env:"PORT" env-default:"8080"`
	Environment string `yaml:"environment" json:"environment" env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Database configuration: "memory" or a postgres:// URL
	DatabaseURL string `yaml:"database_url" json:"database_url" env:"DATABASE_URL" env-default:"memory"`
	DBSchema    string `yaml:"database_schema" json:"database_schema" env:"DATABASE_SCHEMA"`

	// Storage configuration: memory://, file:///dir or s3://bucket
	StorageURL string   `yaml:"storage_url" json:"storage_url" env:"STORAGE_URL" env-default:"memory://"`
	PublicRoot string   `yaml:"storage_public" json:"storage_public" env:"STORAGE_PUBLIC" env-default:"/files/"`
	S3         S3Config `yaml:"s3" json:"s3"`

	ContentTypesDir string `yaml:"content_types_dir" json:"content_types_dir" env:"CONTENT_TYPES_DIR"`

	// Authentication
	JWTSecret    string `yaml:"jwt_secret" json:"jwt_secret" env:"JWT_SECRET"`
	APIKeySHA256 string `yaml:"api_key_sha256" json:"api_key_sha256" env:"API_KEY_SHA256"`

	ScheduleSpec        string `yaml:"schedule_spec" json:"schedule_spec" env:"SCHEDULE_SPEC" env-default:"@every 1m"`
	EnableNotifications bool   `yaml:"enable_notifications" json:"enable_notifications" env:"ENABLE_NOTIFICATIONS" env-default:"true"`
}

// S3Config holds the S3 settings that do not fit in STORAGE_URL.
type S3Config struct {
	Region          string `yaml:"region" json:"region" env:"AWS_REGION" env-default:"us-east-1"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `yaml:"endpoint" json:"endpoint" env:"S3_ENDPOINT"`
	UsePathStyle    bool   `yaml:"use_path_style" json:"use_path_style" env:"S3_USE_PATH_STYLE"`
	EnableSSE       bool   `yaml:"enable_sse" json:"enable_sse" env:"S3_ENABLE_SSE"`
	SSEAlgorithm    string `yaml:"sse_algorithm" json:"sse_algorithm" env:"S3_SSE_ALGORITHM"`
	SSEKMSKeyID     string `yaml:"sse_kms_key_id" json:"sse_kms_key_id" env:"S3_SSE_KMS_KEY_ID"`
	CreateBucket    bool   `yaml:"create_bucket" json:"create_bucket" env:"S3_CREATE_BUCKET"`
}

// IsPostgres reports whether the database URL selects Postgres.
func (c *ServerConfig) IsPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseURL != "memory" && !c.IsPostgres() {
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgres://...')", c.DatabaseURL)
	}

	if _, err := parseStorageURL(c.StorageURL); err != nil {
		return err
	}

	if c.PublicRoot == "" {
		return errors.New("storage public root is required")
	}

	if _, err := cron.ParseStandard(c.ScheduleSpec); err != nil {
		return fmt.Errorf("invalid SCHEDULE_SPEC %q: %w", c.ScheduleSpec, err)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return errors.New("jwt_secret is required in production")
		}
		if c.APIKeySHA256 == "" {
			return errors.New("api_key_sha256 is required in production")
		}
	}

	return nil
}

// storageLocation is a parsed STORAGE_URL.
type storageLocation struct {
	Type    string // "memory", "fs", "s3"
	BaseDir string
	Bucket  string
	Query   url.Values
}

func parseStorageURL(raw string) (storageLocation, error) {
	if raw == "" || raw == "memory" {
		return storageLocation{Type: "memory"}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return storageLocation{}, fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	switch u.Scheme {
	case "memory":
		return storageLocation{Type: "memory"}, nil
	case "file":
		dir := u.Host + u.Path
		if dir == "" {
			return storageLocation{}, errors.New("filesystem path cannot be empty in STORAGE_URL")
		}
		return storageLocation{Type: "fs", BaseDir: dir}, nil
	case "s3":
		if u.Host == "" {
			return storageLocation{}, errors.New("S3 bucket name cannot be empty in STORAGE_URL")
		}
		return storageLocation{Type: "s3", Bucket: u.Host, Query: u.Query()}, nil
	}
	return storageLocation{}, fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
}

// Runtime is a wired service together with the parts the server needs directly.
type Runtime struct {
	Service    simplecms.Service
	Repository simplecms.Repository
	Types      *contenttype.Registry
	pool       *pgxpool.Pool
}

// Close releases the database pool, if any.
func (r *Runtime) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Build wires repository, blob store, content types and notifier into a
// Service and saves a snapshot of the loaded content types.
func (c *ServerConfig) Build(ctx context.Context) (*Runtime, error) {
	rt := &Runtime{}

	repo, pool, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	rt.Repository, rt.pool = repo, pool

	store, err := c.buildBlobStore()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build storage backend: %w", err)
	}

	rt.Types, err = c.loadTypes()
	if err != nil {
		rt.Close()
		return nil, err
	}

	options := []simplecms.Option{
		simplecms.WithRepository(repo),
		simplecms.WithBlobStore(store),
		simplecms.WithTypes(rt.Types),
		simplecms.WithPublicRoot(c.PublicRoot),
	}
	if c.EnableNotifications {
		sender, err := notify.New(repo)
		if err != nil {
			rt.Close()
			return nil, err
		}
		options = append(options, simplecms.WithNotifier(sender))
	}

	rt.Service, err = simplecms.New(options...)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if _, err := rt.Service.ReplaceTypes(ctx, rt.Types.List()); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (simplecms.Service, error) {
	rt, err := c.Build(ctx)
	if err != nil {
		return nil, err
	}
	return rt.Service, nil
}

func (c *ServerConfig) loadTypes() (*contenttype.Registry, error) {
	types, err := contenttype.NewRegistry()
	if err != nil {
		return nil, err
	}
	if c.ContentTypesDir == "" {
		return types, nil
	}
	if err := types.Load(c.ContentTypesDir); err != nil {
		return nil, fmt.Errorf("failed to load content types: %w", err)
	}
	return types, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (simplecms.Repository, *pgxpool.Pool, error) {
	if !c.IsPostgres() {
		return memory.New(), nil, nil
	}
	pool, err := OpenPostgres(ctx, c.DatabaseURL, c.DBSchema)
	if err != nil {
		return nil, nil, err
	}
	return repopg.NewWithPool(pool), pool, nil
}

// OpenPostgres connects to Postgres, optionally setting search_path for every
// session, and verifies connectivity.
func OpenPostgres(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// buildBlobStore creates a BlobStore based on the storage URL
func (c *ServerConfig) buildBlobStore() (simplecms.BlobStore, error) {
	loc, err := parseStorageURL(c.StorageURL)
	if err != nil {
		return nil, err
	}
	switch loc.Type {
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: loc.BaseDir})
	case "s3":
		return s3storage.New(c.s3Config(loc))
	default:
		return memorystorage.New(), nil
	}
}

// s3Config merges the environment S3 settings with STORAGE_URL query overrides
// (region, endpoint, prefix).
func (c *ServerConfig) s3Config(loc storageLocation) s3storage.Config {
	cfg := s3storage.Config{
		Region:                 c.S3.Region,
		Bucket:                 loc.Bucket,
		AccessKeyID:            c.S3.AccessKeyID,
		SecretAccessKey:        c.S3.SecretAccessKey,
		Endpoint:               c.S3.Endpoint,
		UsePathStyle:           c.S3.UsePathStyle,
		EnableSSE:              c.S3.EnableSSE,
		SSEAlgorithm:           c.S3.SSEAlgorithm,
		SSEKMSKeyID:            c.S3.SSEKMSKeyID,
		CreateBucketIfNotExist: c.S3.CreateBucket,
	}
	if v := loc.Query.Get("region"); v != "" {
		cfg.Region = v
	}
	if v := loc.Query.Get("endpoint"); v != "" {
		cfg.Endpoint = v
		cfg.UsePathStyle = true
	}
	if v := loc.Query.Get("prefix"); v != "" {
		cfg.Prefix = v
	}
	return cfg
}
