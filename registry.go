package kizuna

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/mazrean/kizuna/internal/pkg/collection"
)

// Registration declares one service.
type Registration struct {
	ID      string
	Service any
	// Dependencies lists the ids the service consumes, in injection order.
	// An id listed twice is bound twice.
	Dependencies []string
	// Provides publishes the service under additional ids. Several services
	// may provide the same alias; dependents declaring it receive all of them.
	Provides []string
}

// Registry owns registered services, wires them together and drives their
// initialization.
//
// A Registry is meant to be driven by a single goroutine during the
// registration and activation phase; it performs no locking.
type Registry struct {
	holders map[string]*ServiceHolder
	order   []*ServiceHolder
	// providers maps ids and aliases to the holders published under them.
	providers map[string][]*ServiceHolder
	// dependents maps a dependency id to the holders declaring it.
	dependents map[string][]*ServiceHolder
	initOrder  []*ServiceHolder

	satisfyHook SatisfyHook
	logger      *slog.Logger
	observers   []Observer
	strict      bool
	closed      bool
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		holders:     make(map[string]*ServiceHolder),
		providers:   make(map[string][]*ServiceHolder),
		dependents:  make(map[string][]*ServiceHolder),
		satisfyHook: AlwaysSatisfied,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register registers svc under id with the given dependency ids.
func (r *Registry) Register(svc any, id string, dependencies ...string) error {
	return r.Add(Registration{
		ID:           id,
		Service:      svc,
		Dependencies: dependencies,
	})
}

// Add registers a service and wires it with every service registered so
// far, in both directions. The resulting graph does not depend on the order
// of registrations.
func (r *Registry) Add(reg Registration) error {
	if r.closed {
		return ErrClosed
	}

	h, err := newServiceHolder(reg.Service, reg.ID, reg.Dependencies, r.satisfyHook)
	if err != nil {
		return err
	}
	if err := r.checkNames(reg); err != nil {
		return err
	}

	names := append([]string{h.id}, reg.Provides...)

	r.holders[h.id] = h
	r.order = append(r.order, h)
	for _, name := range names {
		r.providers[name] = append(r.providers[name], h)
	}

	for _, dependency := range h.declared {
		for _, provider := range r.providers[dependency] {
			if err := h.bind(dependency, provider); err != nil {
				return fmt.Errorf("bind %q: %w", dependency, err)
			}
			r.logger.Debug("bound dependency", "service", h.id, "dependency", dependency, "provider", provider.id)
		}
	}

	for _, name := range names {
		for _, dependent := range r.dependents[name] {
			for range dependent.declarations(name) {
				if err := dependent.bind(name, h); err != nil {
					return fmt.Errorf("bind %q: %w", name, err)
				}
			}
			r.logger.Debug("bound dependency", "service", dependent.id, "dependency", name, "provider", h.id)
		}
	}

	for _, dependency := range h.dependencies.Keys() {
		r.dependents[dependency] = append(r.dependents[dependency], h)
	}

	r.logger.Debug("registered service", "id", h.id, "dependencies", reg.Dependencies, "provides", reg.Provides)
	for _, o := range r.observers {
		o.Registered(h.id)
	}

	return nil
}

func (r *Registry) checkNames(reg Registration) error {
	if _, ok := r.providers[reg.ID]; ok {
		return &DuplicateIDError{ID: reg.ID}
	}

	for i, alias := range reg.Provides {
		switch {
		case alias == "":
			return &InvalidRegistrationError{ID: reg.ID, Reason: "empty alias"}
		case alias == reg.ID || slices.Contains(reg.Provides[:i], alias):
			return &InvalidRegistrationError{ID: reg.ID, Reason: fmt.Sprintf("alias %q listed twice", alias)}
		}
		if _, ok := r.holders[alias]; ok {
			return &DuplicateIDError{ID: alias}
		}
	}

	return nil
}

// Lookup returns the service registered under id without initializing it.
func (r *Registry) Lookup(id string) (any, bool) {
	h, ok := r.holders[id]
	if !ok {
		return nil, false
	}
	return h.svc, true
}

// Holder returns the holder registered under id.
func (r *Registry) Holder(id string) (*ServiceHolder, bool) {
	h, ok := r.holders[id]
	return h, ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.order))
	for _, h := range r.order {
		ids = append(ids, h.id)
	}
	return ids
}

// Require returns the service registered under id, initializing it and its
// dependencies first.
func (r *Registry) Require(id string) (any, error) {
	if r.closed {
		return nil, ErrClosed
	}

	h, ok := r.holders[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	trace := newInitTrace()
	err := h.initService(trace)
	r.commit(trace, nil)
	if err != nil {
		r.failed(h, err)
		return nil, fmt.Errorf("require %q: %w", id, err)
	}

	return h.svc, nil
}

// Activate initializes every service that can be initialized, repeating
// until a pass makes no progress. Services left uninitialized are listed in
// the report; they are an error only in strict mode. An initialization
// failure stops the activation and is returned together with the report.
func (r *Registry) Activate() (*Report, error) {
	if r.closed {
		return nil, ErrClosed
	}

	report := &Report{Run: uuid.NewString()}
	logger := r.logger.With("run", report.Run)
	logger.Debug("activation started", "services", len(r.order))

	trace := newInitTrace()
	for {
		memo := make(map[*ServiceHolder]bool)
		queue := collection.NewQueue[*ServiceHolder]()
		for _, h := range r.order {
			if !h.inited && r.ready(h, memo, make(map[*ServiceHolder]bool)) {
				queue.Push(h)
			}
		}
		if queue.Len() == 0 {
			break
		}

		progressed := len(trace.committed)
		for h := range queue.Iter {
			err := h.initService(trace)
			r.commit(trace, report)
			if err != nil {
				report.Failed = h.id
				r.collectPending(report)
				r.failed(h, err)
				logger.Error("activation failed", "service", h.id, "error", err)
				return report, err
			}
		}
		if len(trace.committed) == progressed {
			break
		}
	}

	r.collectPending(report)
	for _, p := range report.Pending {
		logger.Warn("service unsatisfied", "service", p.ID, "missing", p.Missing, "waiting", p.Waiting, "vetoed", p.Vetoed)
		for _, o := range r.observers {
			o.Unsatisfied(p.ID)
		}
	}
	logger.Info("activation finished", "initialized", len(report.Initialized), "unsatisfied", len(report.Unsatisfied))

	if r.strict && len(report.Unsatisfied) > 0 {
		var missing []string
		vetoed := false
		for _, p := range report.Pending {
			for _, m := range p.Missing {
				if !slices.Contains(missing, m) {
					missing = append(missing, m)
				}
			}
			vetoed = vetoed || p.Vetoed
		}
		return report, &UnsatisfiedError{
			IDs:     slices.Clone(report.Unsatisfied),
			Missing: missing,
			Vetoed:  vetoed,
		}
	}

	return report, nil
}

// ready reports whether h and every resolved dependency of h can be
// initialized now. Cycles count as ready so that initialization reports them.
func (r *Registry) ready(h *ServiceHolder, memo, visiting map[*ServiceHolder]bool) bool {
	if h.inited || visiting[h] {
		return true
	}
	if ok, seen := memo[h]; seen {
		return ok
	}
	if !h.IsSatisfied() {
		memo[h] = false
		return false
	}

	visiting[h] = true
	defer delete(visiting, h)

	ok := true
	for _, dep := range h.dependencies.All {
		if dep != nil && !r.ready(dep, memo, visiting) {
			ok = false
			break
		}
	}
	memo[h] = ok

	return ok
}

// commit records the holders initialized since the last commit of trace.
func (r *Registry) commit(trace *initTrace, report *Report) {
	for _, c := range trace.committed[trace.flushed:] {
		r.initOrder = append(r.initOrder, c.holder)
		if report != nil {
			report.Initialized = append(report.Initialized, c.holder.id)
		}
		r.logger.Debug("initialized service", "id", c.holder.id, "elapsed", c.elapsed)
		for _, o := range r.observers {
			o.Initialized(c.holder.id, c.elapsed)
		}
	}
	trace.flushed = len(trace.committed)
}

func (r *Registry) failed(h *ServiceHolder, err error) {
	for _, o := range r.observers {
		o.InitFailed(h.id, err)
	}
}

func (r *Registry) collectPending(report *Report) {
	memo := make(map[*ServiceHolder]bool)
	for _, h := range r.order {
		if h.inited || h.id == report.Failed {
			continue
		}

		p := Pending{ID: h.id, Missing: h.Unresolved()}
		if len(p.Missing) == 0 && !h.satisfyHook.IsSatisfied(h.svc) {
			p.Vetoed = true
		}
		for id, dep := range h.dependencies.All {
			if dep == nil || dep.inited || slices.Contains(p.Waiting, id) {
				continue
			}
			if !r.ready(dep, memo, make(map[*ServiceHolder]bool)) {
				p.Waiting = append(p.Waiting, id)
			}
		}

		report.Unsatisfied = append(report.Unsatisfied, h.id)
		report.Pending = append(report.Pending, p)
	}
}

// Close destroys the initialized services in reverse initialization order
// and releases every holder. Closing twice is a no-op.
func (r *Registry) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, h := range slices.Backward(r.initOrder) {
		d, ok := h.svc.(Destroyable)
		if !ok {
			continue
		}
		if err := d.Destroy(); err != nil {
			errs = append(errs, &InitError{ID: h.id, Stage: StageDestroy, Err: err})
			continue
		}
		r.logger.Debug("destroyed service", "id", h.id)
	}

	r.holders = make(map[string]*ServiceHolder)
	r.order = nil
	r.providers = make(map[string][]*ServiceHolder)
	r.dependents = make(map[string][]*ServiceHolder)
	r.initOrder = nil

	return errors.Join(errs...)
}
