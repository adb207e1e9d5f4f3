package record

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/syssam/record/dialect"
	dsql "github.com/syssam/record/dialect/sql"
)

// EnvPrefix is the prefix of environment variables that override file
// configuration, e.g. RECORD_CONNECTIONS_DEFAULT_DSN.
const EnvPrefix = "RECORD_"

// Registry holds named connections and one Repository per entity. It is the
// explicit replacement for an ambient service locator: construct it once,
// register connections, and pass it (or the repositories it hands out) to
// call sites. Lookups of unknown names are permissive: they log a warning
// and report absence instead of failing.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]dialect.Driver
	repos map[string]*Repository
	cache Cache
	log   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used by the registry and the
// repositories it constructs.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// WithSharedCache backs every repository's column catalog with the given
// schema cache.
func WithSharedCache(cache Cache) RegistryOption {
	return func(r *Registry) { r.cache = cache }
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns: make(map[string]dialect.Driver),
		repos: make(map[string]*Repository),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddConnection registers a named connection. Registering the same name
// twice replaces the driver for future lookups.
func (r *Registry) AddConnection(name string, drv dialect.Driver) {
	r.mu.Lock()
	r.conns[name] = drv
	r.mu.Unlock()
}

// Connection returns the named connection. An unknown name logs a warning
// and reports absence.
func (r *Registry) Connection(name string) (dialect.Driver, bool) {
	r.mu.RLock()
	drv, ok := r.conns[name]
	r.mu.RUnlock()
	if !ok {
		r.log.Warn("unknown connection requested", "connection", name)
		return nil, false
	}
	return drv, true
}

// Repository returns the singleton Repository for the described entity,
// constructing it on first use. An unknown connection name logs a warning
// and reports absence.
func (r *Registry) Repository(desc *Descriptor) (*Repository, bool) {
	r.mu.RLock()
	repo, ok := r.repos[desc.Entity]
	r.mu.RUnlock()
	if ok {
		return repo, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if repo, ok := r.repos[desc.Entity]; ok {
		return repo, true
	}
	drv, ok := r.conns[desc.Connection]
	if !ok {
		r.log.Warn("unknown connection requested", "connection", desc.Connection, "entity", desc.Entity)
		return nil, false
	}
	opts := []Option{WithLogger(r.log)}
	if r.cache != nil {
		opts = append(opts, WithSchemaCache(r.cache))
	}
	repo = New(drv, desc, opts...)
	r.repos[desc.Entity] = repo
	return repo, true
}

// Close closes every registered connection and returns the joined errors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for name, drv := range r.conns {
		if err := drv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(r.conns, name)
	}
	return errors.Join(errs...)
}

// ConnectionConfig describes how to open one named connection.
type ConnectionConfig struct {
	// Driver is the database/sql driver name ("mysql", "postgres", "sqlite").
	Driver string `koanf:"driver"`
	// DSN is the driver-specific data source name.
	DSN string `koanf:"dsn"`
}

// Config is the connection bootstrap configuration.
type Config struct {
	Connections map[string]ConnectionConfig `koanf:"connections"`
}

// LoadConfig reads a yaml configuration file and applies RECORD_-prefixed
// environment overrides, e.g.:
//
//	connections:
//	  default:
//	    driver: mysql
//	    dsn: app:secret@tcp(db:3306)/app
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("record: read config %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("record: load env overrides: %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("record: decode config: %w", err)
	}
	return &cfg, nil
}

// OpenConfig opens every configured connection and registers it. The
// corresponding database/sql drivers must be linked into the binary; this
// module links the mysql, postgres and sqlite drivers.
func (r *Registry) OpenConfig(cfg *Config) error {
	for name, cc := range cfg.Connections {
		drv, err := dsql.Open(cc.Driver, cc.DSN)
		if err != nil {
			return fmt.Errorf("record: open connection %s: %w", name, err)
		}
		r.AddConnection(name, drv)
	}
	return nil
}
