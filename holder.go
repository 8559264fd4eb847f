package kizuna

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mazrean/kizuna/internal/pkg/collection"
)

// ServiceHolder is the container's record of one registered service.
// Holders are owned by a Registry; callers may inspect them but all state
// changes go through Registry operations.
type ServiceHolder struct {
	svc          any
	id           string
	dependencies *collection.Multimap[string, *ServiceHolder]
	declared     []string
	satisfyHook  SatisfyHook
	inited       bool
}

func newServiceHolder(svc any, id string, dependencies []string, satisfyHook SatisfyHook) (*ServiceHolder, error) {
	if id == "" {
		return nil, &InvalidRegistrationError{ID: id, Reason: "empty service id"}
	}
	if svc == nil {
		return nil, &InvalidRegistrationError{ID: id, Reason: "nil service"}
	}
	if satisfyHook == nil {
		return nil, &InvalidRegistrationError{ID: id, Reason: "nil satisfy hook"}
	}

	h := &ServiceHolder{
		svc:          svc,
		id:           id,
		dependencies: collection.NewMultimap[string, *ServiceHolder](),
		declared:     slices.Clone(dependencies),
		satisfyHook:  satisfyHook,
	}
	for _, dependency := range dependencies {
		if dependency == "" {
			return nil, &InvalidRegistrationError{ID: id, Reason: "empty dependency id"}
		}
		// nil marks an unresolved declaration
		h.dependencies.Put(dependency, nil)
	}

	return h, nil
}

func (h *ServiceHolder) ID() string {
	return h.id
}

func (h *ServiceHolder) Service() any {
	return h.svc
}

// setDependency records other as a provider of the dependency other.ID().
func (h *ServiceHolder) setDependency(other *ServiceHolder) error {
	return h.bind(other.id, other)
}

// bind records other as a provider of the declared dependency id.
// The first provider replaces one unresolved entry; later ones are appended.
func (h *ServiceHolder) bind(id string, other *ServiceHolder) error {
	if !h.dependencies.ContainsKey(id) {
		return &UnknownDependencyError{ID: h.id, Dependency: id}
	}

	h.dependencies.Remove(id, nil)
	h.dependencies.Put(id, other)

	return nil
}

// DependsOn reports whether id was declared as a dependency, resolved or not.
func (h *ServiceHolder) DependsOn(id string) bool {
	return h.dependencies.ContainsKey(id)
}

// declarations returns how many times id was declared.
func (h *ServiceHolder) declarations(id string) int {
	n := 0
	for _, declared := range h.declared {
		if declared == id {
			n++
		}
	}
	return n
}

func (h *ServiceHolder) IsInited() bool {
	return h.inited
}

// IsSatisfied reports whether every required dependency has a provider and
// the satisfy hook approves the service.
func (h *ServiceHolder) IsSatisfied() bool {
	if len(h.Unresolved()) > 0 {
		return false
	}
	return h.satisfyHook.IsSatisfied(h.svc)
}

// Unresolved returns the required dependency ids that have no provider yet.
// Services that do not implement Injectable have no optional dependencies.
func (h *ServiceHolder) Unresolved() []string {
	injectable, ok := h.svc.(Injectable)

	var unresolved []string
	for id, dep := range h.dependencies.All {
		if dep != nil {
			continue
		}
		if ok && injectable.IsOptional(id) {
			continue
		}
		if !slices.Contains(unresolved, id) {
			unresolved = append(unresolved, id)
		}
	}
	return unresolved
}

// Binding describes one declared dependency of a holder.
type Binding struct {
	ID        string
	Providers []string
	// Unresolved counts declarations of ID still waiting for a provider.
	Unresolved int
}

// Dependencies returns the declared dependencies in declaration order.
func (h *ServiceHolder) Dependencies() []Binding {
	bindings := make([]Binding, 0, len(h.dependencies.Keys()))
	for _, id := range h.dependencies.Keys() {
		b := Binding{ID: id}
		for _, dep := range h.dependencies.Get(id) {
			if dep == nil {
				b.Unresolved++
				continue
			}
			b.Providers = append(b.Providers, dep.id)
		}
		bindings = append(bindings, b)
	}
	return bindings
}

func (h *ServiceHolder) unsatisfiedError() *UnsatisfiedError {
	missing := h.Unresolved()
	return &UnsatisfiedError{
		IDs:     []string{h.id},
		Missing: missing,
		Vetoed:  len(missing) == 0,
	}
}

// initService initializes the dependencies of h, injects them and calls
// Init. Calling it on an initialized holder is a no-op. A failure leaves h
// uninitialized; injections already delivered are not undone.
func (h *ServiceHolder) initService(trace *initTrace) error {
	if h.inited {
		return nil
	}
	if err := trace.enter(h); err != nil {
		return err
	}
	defer trace.leave(h)

	if !h.IsSatisfied() {
		return h.unsatisfiedError()
	}

	if h.dependencies.Len() > 0 {
		injectable, ok := h.svc.(Injectable)
		if !ok {
			return &NotInjectableError{ID: h.id}
		}

		for _, dep := range h.dependencies.All {
			if dep == nil {
				continue
			}
			if err := dep.initService(trace); err != nil {
				return err
			}
		}

		for id, dep := range h.dependencies.All {
			if dep == nil {
				continue
			}

			injected := dep.svc
			if factory, ok := injected.(ServiceFactory); ok {
				product, err := factory.CreateService(h.svc)
				if err != nil {
					return &InitError{ID: h.id, Stage: StageFactory, Err: fmt.Errorf("create from %q: %w", dep.id, err)}
				}
				injected = product
			}

			err := injectable.InjectObject(Injection{
				ID:       id,
				Provider: dep.id,
				Object:   injected,
			})
			if err != nil {
				return &InitError{ID: h.id, Stage: StageInject, Err: fmt.Errorf("inject %q: %w", id, err)}
			}
		}
	}

	start := time.Now()
	if initial, ok := h.svc.(Initial); ok {
		if err := initial.Init(); err != nil {
			return &InitError{ID: h.id, Stage: StageInit, Err: err}
		}
	}

	h.inited = true
	trace.commit(h, time.Since(start))

	return nil
}

func (h *ServiceHolder) String() string {
	deps := make([]string, 0, len(h.dependencies.Keys()))
	for _, b := range h.Dependencies() {
		providers := slices.Clone(b.Providers)
		for range b.Unresolved {
			providers = append(providers, "<unresolved>")
		}
		deps = append(deps, b.ID+"="+strings.Join(providers, "|"))
	}
	return fmt.Sprintf("Service[id=%s, type=%T, dependencies={%s}]", h.id, h.svc, strings.Join(deps, ", "))
}

type committedInit struct {
	holder  *ServiceHolder
	elapsed time.Duration
}

// initTrace tracks the holders being initialized during one activation.
type initTrace struct {
	onStack   map[*ServiceHolder]int
	stack     []string
	committed []committedInit
	// flushed counts the committed entries already handed to the registry.
	flushed int
}

func newInitTrace() *initTrace {
	return &initTrace{
		onStack: make(map[*ServiceHolder]int),
	}
}

func (t *initTrace) enter(h *ServiceHolder) error {
	if i, ok := t.onStack[h]; ok {
		chain := slices.Clone(t.stack[i:])
		return &CycleError{Chain: append(chain, h.id)}
	}

	t.onStack[h] = len(t.stack)
	t.stack = append(t.stack, h.id)
	return nil
}

func (t *initTrace) leave(h *ServiceHolder) {
	delete(t.onStack, h)
	t.stack = t.stack[:len(t.stack)-1]
}

func (t *initTrace) commit(h *ServiceHolder, elapsed time.Duration) {
	t.committed = append(t.committed, committedInit{holder: h, elapsed: elapsed})
}
