// Package plugin provides an extensible plugin system for Invoicer.
// Plugins observe the event stream through optional hook interfaces and
// never influence record lifecycles: hook errors are logged and swallowed.
package plugin

import (
	"context"

	"github.com/xraph/invoicer/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized. inv is the *invoicer.Invoicer
// that owns the registry.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, inv any) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Event stream hooks
// ──────────────────────────────────────────────────

// OnRecordEvent is called for every record lifecycle event, in emission
// order. Milestones are not passed here.
type OnRecordEvent interface {
	Plugin
	OnRecordEvent(ctx context.Context, e *event.Event) error
}

// OnPayment is called for partial and full invoice payments.
type OnPayment interface {
	Plugin
	OnPayment(ctx context.Context, e *event.Event, p event.Payment) error
}

// OnMilestone is called for every milestone, confirmed or speculative.
type OnMilestone interface {
	Plugin
	OnMilestone(ctx context.Context, e *event.Event, m *event.Milestone) error
}
