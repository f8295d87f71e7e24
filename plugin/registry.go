package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/event"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit        []OnInit
	onShutdown    []OnShutdown
	onRecordEvent []OnRecordEvent
	onPayment     []OnPayment
	onMilestone   []OnMilestone
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnRecordEvent); ok {
		r.onRecordEvent = append(r.onRecordEvent, v)
		hooks = append(hooks, "OnRecordEvent")
	}
	if v, ok := p.(OnPayment); ok {
		r.onPayment = append(r.onPayment, v)
		hooks = append(hooks, "OnPayment")
	}
	if v, ok := p.(OnMilestone); ok {
		r.onMilestone = append(r.onMilestone, v)
		hooks = append(hooks, "OnMilestone")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Attach subscribes the registry to every event on b. The returned function
// detaches it.
func (r *Registry) Attach(b *bus.Bus) func() {
	return b.Subscribe(event.Wildcard, r.Handle)
}

// Handle dispatches e to the matching hooks. It never fails, so plugins
// cannot abort an emission.
func (r *Registry) Handle(ctx context.Context, e *event.Event) error {
	if m, ok := e.Milestone(); ok {
		r.EmitMilestone(ctx, e, m)
		return nil
	}
	r.EmitRecordEvent(ctx, e)
	if p, ok := e.Payload.(event.Payment); ok {
		r.EmitPayment(ctx, e, p)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, inv any) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", hooks, func(ctx context.Context, p OnInit) error { return p.OnInit(ctx, inv) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", hooks, func(ctx context.Context, p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitRecordEvent calls OnRecordEvent for all plugins that implement it.
func (r *Registry) EmitRecordEvent(ctx context.Context, e *event.Event) {
	r.mu.RLock()
	hooks := r.onRecordEvent
	r.mu.RUnlock()

	dispatch(ctx, r, "OnRecordEvent", hooks, func(ctx context.Context, p OnRecordEvent) error { return p.OnRecordEvent(ctx, e) },
		"type", e.Type,
		"account_id", e.Context.AccountID.String(),
	)
}

// EmitPayment calls OnPayment for all plugins that implement it.
func (r *Registry) EmitPayment(ctx context.Context, e *event.Event, pay event.Payment) {
	r.mu.RLock()
	hooks := r.onPayment
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPayment", hooks, func(ctx context.Context, p OnPayment) error { return p.OnPayment(ctx, e, pay) },
		"invoice_id", e.Context.InvoiceID.String(),
		"amount", pay.Amount,
	)
}

// EmitMilestone calls OnMilestone for all plugins that implement it.
func (r *Registry) EmitMilestone(ctx context.Context, e *event.Event, m *event.Milestone) {
	r.mu.RLock()
	hooks := r.onMilestone
	r.mu.RUnlock()

	dispatch(ctx, r, "OnMilestone", hooks, func(ctx context.Context, p OnMilestone) error { return p.OnMilestone(ctx, e, m) },
		"type", e.Type,
		"future", m.Future,
	)
}

// dispatch runs call for every hook in registration order. Failures are
// logged with kv and never stop the remaining hooks.
func dispatch[H Plugin](ctx context.Context, r *Registry, hook string, hooks []H, call func(context.Context, H) error, kv ...any) {
	for _, h := range hooks {
		err := r.callWithTimeout(ctx, h.Name(), func(hctx context.Context) error { return call(hctx, h) })
		if err == nil {
			continue
		}
		args := append([]any{"plugin", h.Name(), "hook", hook, "error", err}, kv...)
		r.logger.Warn("plugin hook failed", args...)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block record emission. fn receives a context that is
// cancelled once the timeout elapses or the call returns; a hook that ignores
// it keeps running in the background after the timeout is reported.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func(context.Context) error) error {
	hctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- fn(hctx)
	}()

	select {
	case err := <-done:
		return err
	case <-hctx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("plugin timeout: %s", pluginName)
	}
}
