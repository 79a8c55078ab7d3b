package domain

import (
	"context"
	"time"
)

// NotificationKind defines what a published notification means to the view layer.
type NotificationKind string

const (
	// NotifyLoaded follows a successful initialize: every output was replaced.
	NotifyLoaded NotificationKind = "loaded"
	// NotifyActive follows an event: the active states were recomputed.
	NotifyActive NotificationKind = "active"
	// NotifyRefresh follows an assignment: membership is unchanged, guards must be re-evaluated.
	NotifyRefresh NotificationKind = "refresh"
)

// Notification is published every time the observable outputs change.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Timestamp time.Time        `json:"timestamp"`
	Event     string           `json:"event,omitempty"`
	Path      string           `json:"path,omitempty"`
	Active    []string         `json:"active"`

	// Entered and Exited are only set for NotifyActive.
	Entered []string `json:"entered,omitempty"`
	Exited  []string `json:"exited,omitempty"`
}

// LoadEvent describes a completed or failed initialize.
type LoadEvent struct {
	Name    string
	Source  string
	States  int
	Initial string
	Err     error
}

// FireEvent describes a dispatched event.
type FireEvent struct {
	Event  string
	Before []string
	After  []string
	Err    error
}

// GuardEvent describes a guard evaluation.
type GuardEvent struct {
	Expr   string
	Result bool
	Err    error
}

// AssignEvent describes a data-model assignment.
type AssignEvent struct {
	Path    string
	Literal string
	Err     error
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnLoaded  func(context.Context, *LoadEvent)
	OnFire    func(context.Context, *FireEvent)
	OnGuard   func(context.Context, *GuardEvent)
	OnAssign  func(context.Context, *AssignEvent)
	OnPublish func(context.Context, Notification)
}

// ChainHooks combines several hook sets; each callback runs in argument order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		h := h
		if h.OnLoaded != nil {
			prev := out.OnLoaded
			out.OnLoaded = func(ctx context.Context, e *LoadEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnLoaded(ctx, e)
			}
		}
		if h.OnFire != nil {
			prev := out.OnFire
			out.OnFire = func(ctx context.Context, e *FireEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnFire(ctx, e)
			}
		}
		if h.OnGuard != nil {
			prev := out.OnGuard
			out.OnGuard = func(ctx context.Context, e *GuardEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnGuard(ctx, e)
			}
		}
		if h.OnAssign != nil {
			prev := out.OnAssign
			out.OnAssign = func(ctx context.Context, e *AssignEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnAssign(ctx, e)
			}
		}
		if h.OnPublish != nil {
			prev := out.OnPublish
			out.OnPublish = func(ctx context.Context, n Notification) {
				if prev != nil {
					prev(ctx, n)
				}
				h.OnPublish(ctx, n)
			}
		}
	}
	return out
}
