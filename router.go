package ninelives

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	json "github.com/goccy/go-json"
)

// Handler serves one command's args and returns a [Result]. A handler
// must never panic on untrusted input; [Router.Dispatch] recovers one
// anyway and converts it to an internal error, but a well-behaved handler
// reports invalid_args itself.
type Handler func(ctx context.Context, args map[string]string) Result

// Identity is what an [AuthProvider] resolves an auth payload to.
type Identity struct {
	Principal  string
	Attributes map[string]string
}

// AuthProvider authenticates a [CommandEnvelope]'s opaque auth payload. A
// non-nil error means this provider does not recognize or accept the
// payload, not necessarily that the caller is malicious.
type AuthProvider interface {
	Authenticate(ctx context.Context, auth any) (Identity, error)
}

// AuthMode selects how a chain of [AuthProvider] results is combined.
type AuthMode int

const (
	// AuthFirstMatch accepts the first provider that authenticates
	// successfully, trying the rest only on failure.
	AuthFirstMatch AuthMode = iota
	// AuthAllMustPass requires every provider to authenticate the same
	// principal; their attribute sets are unioned into one merged identity.
	AuthAllMustPass
)

// Authorizer gates a command by the caller's identity. Routers without an
// Authorizer admit any authenticated caller to any command.
type Authorizer interface {
	Authorize(identity Identity, command string) bool
}

// Auditor observes every dispatch attempt (before authorization is
// enforced, so denials are recorded too) and every outcome.
type Auditor interface {
	Attempt(env CommandEnvelope, identity *Identity)
	Outcome(env CommandEnvelope, identity *Identity, result Result)
}

// Router dispatches command envelopes to registered [Handler]s through an
// auth → authorize → audit → handle pipeline. It owns the built-in
// commands (health, get_state, read_config, write_config, list_config,
// reset_circuit_breaker); additional commands register through
// [Router.RegisterHandler].
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler

	authProviders []AuthProvider
	authMode      AuthMode
	authorizer    Authorizer
	auditor       Auditor

	breakers *CircuitBreakerRegistry
	configs  *ConfigRegistry
	clock    Clock
	logger   *slog.Logger
	version  string
}

// RouterOption configures optional Router behavior at construction time.
type RouterOption func(*Router)

// WithAuthChain installs an ordered auth provider chain and its combining
// mode. Without this option, Dispatch treats every caller as an anonymous
// identity with no attributes.
func WithAuthChain(providers []AuthProvider, mode AuthMode) RouterOption {
	return func(r *Router) {
		r.authProviders = providers
		r.authMode = mode
	}
}

// WithAuthorizer installs a command-level authorization gate.
func WithAuthorizer(a Authorizer) RouterOption {
	return func(r *Router) { r.authorizer = a }
}

// WithAuditor installs an audit observer.
func WithAuditor(a Auditor) RouterOption {
	return func(r *Router) { r.auditor = a }
}

// WithVersion overrides the version string the health command reports.
func WithVersion(v string) RouterOption {
	return func(r *Router) { r.version = v }
}

// NewRouter constructs a Router with its built-in commands registered.
// Either registry may be nil; commands needing a nil registry return
// registry_missing rather than panicking.
func NewRouter(breakers *CircuitBreakerRegistry, configs *ConfigRegistry, clock Clock, logger *slog.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		handlers: make(map[string]Handler),
		breakers: breakers,
		configs:  configs,
		clock:    clock,
		logger:   logger,
		version:  "dev",
	}

	for _, opt := range opts {
		opt(r)
	}

	r.RegisterHandler("health", r.handleHealth)
	r.RegisterHandler("get_state", r.handleGetState)
	r.RegisterHandler("read_config", r.handleReadConfig)
	r.RegisterHandler("write_config", r.handleWriteConfig)
	r.RegisterHandler("list_config", r.handleListConfig)
	r.RegisterHandler("reset_circuit_breaker", r.handleResetBreaker)

	return r
}

// RegisterHandler adds a command handler, replacing any prior handler
// under the same name and logging a warning when it does — the factory
// registration seam extensible hosts use to add commands beyond the
// built-ins.
func (r *Router) RegisterHandler(command string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[command]; exists {
		r.logger.Warn("ninelives: command handler replaced", "command", command)
	}

	r.handlers[command] = h
}

// Dispatch runs env through the auth → authorize → audit → handle
// pipeline and returns the result. It never panics: a handler panic is
// recovered and reported as ErrInternal.
func (r *Router) Dispatch(ctx context.Context, env CommandEnvelope) Result {
	identity, authErr := r.authenticate(ctx, env.Auth)

	if r.auditor != nil {
		r.auditor.Attempt(env, identity)
	}

	result := r.dispatchAuthorized(ctx, env, identity, authErr)

	if r.auditor != nil {
		r.auditor.Outcome(env, identity, result)
	}

	return result
}

func (r *Router) dispatchAuthorized(ctx context.Context, env CommandEnvelope, identity *Identity, authErr error) Result {
	if authErr != nil {
		return CommandError(ErrUnauthorized, authErr.Error())
	}

	if r.authorizer != nil && !r.authorizer.Authorize(*identity, env.Command) {
		return CommandError(ErrUnauthorized, fmt.Sprintf("%q not authorized for %q", identity.Principal, env.Command))
	}

	r.mu.RLock()
	h, ok := r.handlers[env.Command]
	r.mu.RUnlock()

	if !ok {
		return CommandError(ErrNotFound, fmt.Sprintf("unknown command %q", env.Command))
	}

	return r.invoke(ctx, h, env)
}

func (r *Router) invoke(ctx context.Context, h Handler, env CommandEnvelope) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = CommandError(ErrInternal, fmt.Sprintf("handler panic: %v", rec))
		}
	}()

	return h(ctx, env.Args)
}

func (r *Router) authenticate(ctx context.Context, auth any) (*Identity, error) {
	if len(r.authProviders) == 0 {
		return &Identity{}, nil
	}

	switch r.authMode {
	case AuthAllMustPass:
		return r.authenticateAll(ctx, auth)
	default:
		return r.authenticateFirstMatch(ctx, auth)
	}
}

func (r *Router) authenticateFirstMatch(ctx context.Context, auth any) (*Identity, error) {
	var lastErr error

	for _, p := range r.authProviders {
		id, err := p.Authenticate(ctx, auth)
		if err == nil {
			return &id, nil
		}

		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("ninelives: no auth provider configured")
	}

	return nil, fmt.Errorf("ninelives: no auth provider matched: %w", lastErr)
}

func (r *Router) authenticateAll(ctx context.Context, auth any) (*Identity, error) {
	merged := Identity{Attributes: map[string]string{}}

	for i, p := range r.authProviders {
		id, err := p.Authenticate(ctx, auth)
		if err != nil {
			return nil, fmt.Errorf("ninelives: auth provider %d rejected payload: %w", i, err)
		}

		if i == 0 {
			merged.Principal = id.Principal
		} else if merged.Principal != id.Principal {
			return nil, fmt.Errorf("ninelives: auth providers disagree on principal")
		}

		for k, v := range id.Attributes {
			merged.Attributes[k] = v
		}
	}

	return &merged, nil
}

func (r *Router) handleHealth(_ context.Context, _ map[string]string) Result {
	return Value(fmt.Sprintf("ok; version=%s", r.version))
}

type stateSnapshot struct {
	Breakers map[string]string `json:"breakers"`
	Config   map[string]string `json:"config"`
}

func (r *Router) handleGetState(_ context.Context, _ map[string]string) Result {
	snap := stateSnapshot{
		Breakers: make(map[string]string),
		Config:   make(map[string]string),
	}

	if r.breakers != nil {
		for _, name := range r.breakers.List() {
			if cb, ok := r.breakers.Get(name); ok {
				snap.Breakers[name] = cb.State()
			}
		}
	}

	if r.configs != nil {
		cfg, err := r.configs.Snapshot()
		if err != nil {
			return CommandError(ErrInternal, err.Error())
		}

		snap.Config = cfg
	}

	out, err := json.Marshal(snap)
	if err != nil {
		return CommandError(ErrInternal, err.Error())
	}

	return Value(string(out))
}

func (r *Router) handleReadConfig(_ context.Context, args map[string]string) Result {
	if r.configs == nil {
		return CommandError(ErrRegistryMissing, "no config registry bound")
	}

	path, ok := args["path"]
	if !ok || path == "" {
		return CommandError(ErrInvalidArgs, "missing arg: path")
	}

	v, err := r.configs.Read(path)
	if err != nil {
		return CommandError(ErrNotFound, err.Error())
	}

	return Value(v)
}

func (r *Router) handleWriteConfig(_ context.Context, args map[string]string) Result {
	if r.configs == nil {
		return CommandError(ErrRegistryMissing, "no config registry bound")
	}

	path, ok := args["path"]
	if !ok || path == "" {
		return CommandError(ErrInvalidArgs, "missing arg: path")
	}

	value, ok := args["value"]
	if !ok {
		return CommandError(ErrInvalidArgs, "missing arg: value")
	}

	if err := r.configs.Write(path, value); err != nil {
		if cfgErr, ok := AsConfigError(err); ok && cfgErr.Message == "not registered" {
			return CommandError(ErrNotFound, err.Error())
		}

		return CommandError(ErrInvalidArgs, err.Error())
	}

	return Ack()
}

func (r *Router) handleListConfig(_ context.Context, _ map[string]string) Result {
	if r.configs == nil {
		return CommandError(ErrRegistryMissing, "no config registry bound")
	}

	return List(r.configs.List())
}

func (r *Router) handleResetBreaker(_ context.Context, args map[string]string) Result {
	if r.breakers == nil {
		return CommandError(ErrRegistryMissing, "no circuit breaker registry bound")
	}

	id, ok := args["id"]
	if !ok || id == "" {
		return CommandError(ErrInvalidArgs, "missing arg: id")
	}

	if !r.breakers.Reset(id) {
		return CommandError(ErrNotFound, fmt.Sprintf("breaker %q not registered", id))
	}

	return Ack()
}
