package kizuna_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/mazrean/kizuna"
)

type eventLog struct {
	events []string
}

func (l *eventLog) add(event string) {
	l.events = append(l.events, event)
}

// fakeService implements Injectable, Initial and Destroyable.
type fakeService struct {
	name       string
	log        *eventLog
	optional   map[string]bool
	injections []kizuna.Injection
	initCalls  int
	initErr    error
	injectErr  error
	destroyErr error
}

func newFake(name string, log *eventLog, optional ...string) *fakeService {
	s := &fakeService{
		name:     name,
		log:      log,
		optional: make(map[string]bool),
	}
	for _, id := range optional {
		s.optional[id] = true
	}
	return s
}

func (s *fakeService) IsOptional(id string) bool {
	return s.optional[id]
}

func (s *fakeService) InjectObject(injection kizuna.Injection) error {
	if s.injectErr != nil {
		return s.injectErr
	}
	s.injections = append(s.injections, injection)
	s.log.add("inject " + s.name + " <- " + injection.ID)
	return nil
}

func (s *fakeService) Init() error {
	s.initCalls++
	s.log.add("init " + s.name)
	return s.initErr
}

func (s *fakeService) Destroy() error {
	s.log.add("destroy " + s.name)
	return s.destroyErr
}

// plainService only implements Initial.
type plainService struct {
	initCalls int
}

func (s *plainService) Init() error {
	s.initCalls++
	return nil
}

type product struct {
	receiver any
}

// factoryService creates one product per receiver.
type factoryService struct {
	*fakeService
	created []*product
}

func (f *factoryService) CreateService(receiver any) (any, error) {
	p := &product{receiver: receiver}
	f.created = append(f.created, p)
	return p, nil
}

type recordingObserver struct {
	registered  []string
	initialized []string
	failed      []string
	unsatisfied []string
}

func (o *recordingObserver) Registered(id string) {
	o.registered = append(o.registered, id)
}

func (o *recordingObserver) Initialized(id string, _ time.Duration) {
	o.initialized = append(o.initialized, id)
}

func (o *recordingObserver) InitFailed(id string, _ error) {
	o.failed = append(o.failed, id)
}

func (o *recordingObserver) Unsatisfied(id string) {
	o.unsatisfied = append(o.unsatisfied, id)
}

func newRegistry(opts ...kizuna.Option) *kizuna.Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return kizuna.New(append([]kizuna.Option{kizuna.WithLogger(logger)}, opts...)...)
}
