package kizuna

import (
	"log/slog"
	"time"
)

// Option configures a Registry.
type Option func(*Registry)

// WithSatisfyHook sets the hook shared by every holder of the registry.
// A nil hook keeps AlwaysSatisfied.
func WithSatisfyHook(hook SatisfyHook) Option {
	return func(r *Registry) {
		if hook != nil {
			r.satisfyHook = hook
		}
	}
}

// WithLogger sets the logger used for registration and activation events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrict makes Activate fail when services remain unsatisfied.
func WithStrict(strict bool) Option {
	return func(r *Registry) {
		r.strict = strict
	}
}

// WithObserver adds an observer notified of lifecycle events.
func WithObserver(observer Observer) Option {
	return func(r *Registry) {
		if observer != nil {
			r.observers = append(r.observers, observer)
		}
	}
}

// Observer receives lifecycle events from a Registry.
// Methods are called synchronously from the goroutine driving the registry.
type Observer interface {
	Registered(id string)
	Initialized(id string, elapsed time.Duration)
	InitFailed(id string, err error)
	Unsatisfied(id string)
}
