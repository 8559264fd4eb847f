// Package kizuna provides a runtime service container.
//
// Services are registered under a string id together with the ids of the
// services they depend on. The Registry wires registrations in any order,
// initializes services dependency-first and hands each service its resolved
// dependencies through the Injectable capability.
//
// Example:
//
//	reg := kizuna.New()
//	_ = reg.Register(NewConfig(), "config")
//	_ = reg.Register(NewDatabase(), "db", "config")
//	_ = reg.Register(NewUserService(), "users", "db", "cache")
//
//	report, err := reg.Activate()
//
// A service opts into container behavior by implementing any subset of
// Injectable, Initial, ServiceFactory and Destroyable.
package kizuna

// Injection is one resolved dependency delivered to an Injectable service.
type Injection struct {
	// ID is the dependency id declared by the receiver.
	ID string
	// Provider is the id of the service that satisfied ID. It differs from ID
	// only when the provider was registered with an alias.
	Provider string
	// Object is the injected value. For ServiceFactory providers it is the
	// product created for the receiver, never the factory itself.
	Object any
}

// Injectable services receive their dependencies from the container.
type Injectable interface {
	// IsOptional reports whether the service can be initialized without a
	// provider for id.
	IsOptional(id string) bool
	// InjectObject is called once per resolved provider before Init.
	InjectObject(injection Injection) error
}

// Initial services have a one-shot entry point called after all injections.
type Initial interface {
	Init() error
}

// ServiceFactory services produce a dedicated instance for every receiver
// they are injected into.
type ServiceFactory interface {
	CreateService(receiver any) (any, error)
}

// Destroyable services are destroyed when the Registry is closed.
type Destroyable interface {
	Destroy() error
}
