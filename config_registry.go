package ninelives

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
)

// ConfigEntry binds a dotted config path to the read/write closures that
// reach the concrete [Adaptive] handle backing it. Read returns the
// current value already encoded as JSON text; Write parses JSON text and
// applies it, returning a [ConfigError] if the value is rejected (e.g. a
// bulkhead capacity shrink).
type ConfigEntry struct {
	Read  func() (string, error)
	Write func(raw string) error
}

// ConfigRegistry maps dotted path names (e.g. "retry.orders-api",
// "circuit_breaker.billing") to live [Adaptive] handles, so the
// read_config/write_config/list_config commands can inspect and mutate
// running policy configuration without restarting the process. Unlike the
// teacher's LoadConfig, which built option bags once at startup, every
// entry here stays live for the process's lifetime.
type ConfigRegistry struct {
	mu      sync.RWMutex
	entries map[string]ConfigEntry
	logger  *slog.Logger
}

// NewConfigRegistry returns an empty registry. A nil logger uses
// [slog.Default].
func NewConfigRegistry(logger *slog.Logger) *ConfigRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConfigRegistry{
		entries: make(map[string]ConfigEntry),
		logger:  logger,
	}
}

// RegisterEntry adds entry under path. Re-registering an existing path
// replaces it and logs a warning, matching [CircuitBreakerRegistry]'s
// redeploy-tolerant behavior.
func (r *ConfigRegistry) RegisterEntry(path string, entry ConfigEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[path]; exists {
		r.logger.Warn("ninelives: config path re-registered, replacing prior handle", "path", path)
	}

	r.entries[path] = entry
}

// RegisterConfig registers a plain pass-through entry for handle: Read
// marshals the current snapshot as JSON, Write unmarshals and replaces
// it outright. Primitives with a constrained write path (e.g.
// [Bulkhead]'s no-shrink rule) register their own [ConfigEntry] via
// RegisterEntry instead of this helper.
func RegisterConfig[T any](reg *ConfigRegistry, path string, handle *Adaptive[T]) {
	reg.RegisterEntry(path, ConfigEntry{
		Read: func() (string, error) {
			b, err := json.Marshal(handle.Read())
			return string(b), err
		},
		Write: func(raw string) error {
			var v T
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return fmt.Errorf("ninelives: config: %w", err)
			}

			handle.Write(v)

			return nil
		},
	})
}

// retryTunables is the JSON-serializable projection of [RetryConfig]
// exposed through the config registry. Strategy, Jitter, and RetryIf are
// Go interfaces/funcs with no general wire encoding, so they are left to
// the application's construction code; only the scalar knob the spec's
// example config paths name (retry.max_attempts) is live-reconfigurable.
type retryTunables struct {
	MaxAttempts int `json:"max_attempts"`
}

// RegisterRetryConfig registers r's MaxAttempts under path. Use
// [RegisterConfig] for primitives whose whole config is JSON-serializable
// (Timeout, CircuitBreaker); Retry needs this narrower helper because
// RetryConfig carries non-serializable Strategy/Jitter/RetryIf fields.
func RegisterRetryConfig(reg *ConfigRegistry, path string, r *Retry) {
	reg.RegisterEntry(path, ConfigEntry{
		Read: func() (string, error) {
			out, err := json.Marshal(retryTunables{MaxAttempts: r.Config().Read().MaxAttempts})
			return string(out), err
		},
		Write: func(raw string) error {
			var t retryTunables
			if err := json.Unmarshal([]byte(raw), &t); err != nil {
				return fmt.Errorf("ninelives: config: %w", err)
			}

			if t.MaxAttempts <= 0 {
				return &ConfigError{Field: "max_attempts", Message: "must be > 0"}
			}

			cfg := r.Config().Read()
			cfg.MaxAttempts = t.MaxAttempts
			r.Config().Write(cfg)

			return nil
		},
	})
}

// RegisterBulkheadConfig registers b's configuration, routing Capacity
// writes through [Bulkhead.Grow] so the no-shrink invariant is enforced
// even when a write arrives through the config registry rather than code.
func RegisterBulkheadConfig(reg *ConfigRegistry, path string, b *Bulkhead) {
	reg.RegisterEntry(path, ConfigEntry{
		Read: func() (string, error) {
			out, err := json.Marshal(b.Config().Read())
			return string(out), err
		},
		Write: func(raw string) error {
			var v BulkheadConfig
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return fmt.Errorf("ninelives: config: %w", err)
			}

			if err := b.Grow(v.Capacity); err != nil {
				return err
			}

			b.SetMaxWait(v.MaxWait)

			return nil
		},
	})
}

// List returns every registered path, sorted.
func (r *ConfigRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.entries))
	for p := range r.entries {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// Read returns the JSON-encoded current value at path.
func (r *ConfigRegistry) Read(path string) (string, error) {
	r.mu.RLock()
	entry, ok := r.entries[path]
	r.mu.RUnlock()

	if !ok {
		return "", &ConfigError{Field: path, Message: "not registered"}
	}

	return entry.Read()
}

// Write parses raw as JSON and applies it to the handle at path.
func (r *ConfigRegistry) Write(path, raw string) error {
	r.mu.RLock()
	entry, ok := r.entries[path]
	r.mu.RUnlock()

	if !ok {
		return &ConfigError{Field: path, Message: "not registered"}
	}

	return entry.Write(raw)
}

// Snapshot reads every registered path into a path -> JSON-value map,
// suitable for export via [SnapshotToYAML] or direct JSON encoding.
func (r *ConfigRegistry) Snapshot() (map[string]string, error) {
	r.mu.RLock()
	entries := make(map[string]ConfigEntry, len(r.entries))
	for p, e := range r.entries {
		entries[p] = e
	}
	r.mu.RUnlock()

	out := make(map[string]string, len(entries))

	for path, entry := range entries {
		v, err := entry.Read()
		if err != nil {
			return nil, fmt.Errorf("ninelives: snapshot %q: %w", path, err)
		}

		out[path] = v
	}

	return out, nil
}

// ApplySnapshot is a best-effort import: a path absent from the registry
// is silently ignored (it may belong to a differently-configured
// process), and a per-path write failure is collected rather than
// aborting the import. Writes that succeed are not rolled back when a
// later path in the same snapshot fails. The returned slice is empty
// when every known path applied cleanly.
func (r *ConfigRegistry) ApplySnapshot(snap map[string]string) []error {
	r.mu.RLock()
	entries := make(map[string]ConfigEntry, len(snap))
	for path := range snap {
		if entry, ok := r.entries[path]; ok {
			entries[path] = entry
		}
	}
	r.mu.RUnlock()

	var errs []error

	for path, entry := range entries {
		if err := entry.Write(snap[path]); err != nil {
			errs = append(errs, fmt.Errorf("ninelives: apply snapshot %q: %w", path, err))
		}
	}

	return errs
}
