package manifest

import (
	"fmt"

	"github.com/mazrean/kizuna"
)

// Stub stands in for a declared service. It records what it receives.
type Stub struct {
	ID       string
	Injected []kizuna.Injection
	Inited   bool

	optional map[string]bool
	disabled bool
}

func newStub(s *Service) *Stub {
	stub := &Stub{
		ID:       s.ID,
		optional: make(map[string]bool),
		disabled: s.Disabled,
	}
	for _, d := range s.Dependencies {
		if d.Optional {
			stub.optional[d.ID] = true
		}
	}
	return stub
}

func (s *Stub) IsOptional(id string) bool {
	return s.optional[id]
}

func (s *Stub) InjectObject(injection kizuna.Injection) error {
	s.Injected = append(s.Injected, injection)
	return nil
}

func (s *Stub) Init() error {
	s.Inited = true
	return nil
}

// FactoryStub hands each dependent a fresh Product.
type FactoryStub struct {
	*Stub
	Products []*Product
}

// Product is created by a FactoryStub for one receiver.
type Product struct {
	Factory  string
	Receiver string
}

func (f *FactoryStub) CreateService(receiver any) (any, error) {
	p := &Product{Factory: f.ID}
	if stub, ok := stubOf(receiver); ok {
		p.Receiver = stub.ID
	}
	f.Products = append(f.Products, p)
	return p, nil
}

func stubOf(svc any) (*Stub, bool) {
	switch s := svc.(type) {
	case *Stub:
		return s, true
	case *FactoryStub:
		return s.Stub, true
	}
	return nil, false
}

// enabledHook vetoes stubs declared as disabled.
var enabledHook = kizuna.SatisfyHookFunc(func(svc any) bool {
	stub, ok := stubOf(svc)
	return !ok || !stub.disabled
})

// Build registers a stub for every service of m, in manifest order. The
// registry's satisfy hook vetoes disabled services; a WithSatisfyHook in
// opts replaces it.
func Build(m *Manifest, opts ...kizuna.Option) (*kizuna.Registry, error) {
	reg := kizuna.New(append([]kizuna.Option{kizuna.WithSatisfyHook(enabledHook)}, opts...)...)

	for i := range m.Services {
		s := &m.Services[i]

		var svc any
		switch s.Kind {
		case KindService, "":
			svc = newStub(s)
		case KindFactory:
			svc = &FactoryStub{Stub: newStub(s)}
		default:
			return nil, &kizuna.UnsupportedSourceError{Source: "service kind", Value: string(s.Kind)}
		}

		err := reg.Add(kizuna.Registration{
			ID:           s.ID,
			Service:      svc,
			Dependencies: s.DependencyIDs(),
			Provides:     s.Provides,
		})
		if err != nil {
			return nil, fmt.Errorf("register %q: %w", s.ID, err)
		}
	}

	return reg, nil
}
