package kizuna

// SatisfyHook can veto the readiness of a service whose dependencies are
// all resolved. Implementations must give a stable answer for the same
// service once the conditions they consult stop changing, and must not
// mutate the container.
type SatisfyHook interface {
	IsSatisfied(svc any) bool
}

// SatisfyHookFunc adapts a function to SatisfyHook.
type SatisfyHookFunc func(svc any) bool

func (f SatisfyHookFunc) IsSatisfied(svc any) bool {
	return f(svc)
}

// AlwaysSatisfied is the default hook. It approves every service.
var AlwaysSatisfied SatisfyHook = SatisfyHookFunc(func(any) bool { return true })

type allOf []SatisfyHook

func (hooks allOf) IsSatisfied(svc any) bool {
	for _, hook := range hooks {
		if !hook.IsSatisfied(svc) {
			return false
		}
	}
	return true
}

// AllOf combines hooks; a service is satisfied only if every hook approves.
// Nil hooks are ignored.
func AllOf(hooks ...SatisfyHook) SatisfyHook {
	combined := make(allOf, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			combined = append(combined, hook)
		}
	}
	return combined
}
