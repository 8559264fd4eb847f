package kizuna

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrDuplicateID         = errors.New("duplicate service id")
	ErrUnknownDependency   = errors.New("unknown dependency")
	ErrUnsatisfied         = errors.New("service unsatisfied")
	ErrNotInjectable       = errors.New("service is not injectable")
	ErrCycle               = errors.New("circular dependency detected")
	ErrUnsupportedSource   = errors.New("unsupported source")
	ErrNotFound            = errors.New("service not found")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrClosed              = errors.New("registry is closed")
)

// DuplicateIDError is returned when a service id or alias is already taken.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return "duplicate service id " + strconv.Quote(e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// UnknownDependencyError is returned when a provider is bound to a holder
// that never declared it.
type UnknownDependencyError struct {
	ID         string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("service %q does not depend on %q", e.ID, e.Dependency)
}

func (e *UnknownDependencyError) Is(target error) bool { return target == ErrUnknownDependency }

// UnsatisfiedError reports services that cannot be initialized.
type UnsatisfiedError struct {
	// IDs lists the unsatisfied services.
	IDs []string
	// Missing lists required dependency ids without any provider.
	Missing []string
	// Vetoed is set when the satisfy hook rejected a service whose
	// dependencies were all resolved.
	Vetoed bool
}

func (e *UnsatisfiedError) Error() string {
	var b strings.Builder
	if len(e.IDs) == 1 {
		fmt.Fprintf(&b, "service %q is unsatisfied", e.IDs[0])
	} else {
		fmt.Fprintf(&b, "services %s are unsatisfied", quoteAll(e.IDs))
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", quoteAll(e.Missing))
	}
	if e.Vetoed {
		b.WriteString(": vetoed by satisfy hook")
	}
	return b.String()
}

func (e *UnsatisfiedError) Is(target error) bool { return target == ErrUnsatisfied }

// NotInjectableError is returned when a service declares dependencies but
// does not implement Injectable.
type NotInjectableError struct {
	ID string
}

func (e *NotInjectableError) Error() string {
	return fmt.Sprintf("service %q declares dependencies but does not implement Injectable", e.ID)
}

func (e *NotInjectableError) Is(target error) bool { return target == ErrNotInjectable }

// CycleError represents an error when a dependency cycle is detected.
// Chain starts and ends with the same id.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	if len(e.Chain) == 0 {
		return "circular dependency detected"
	}
	return "circular dependency detected: " + strings.Join(e.Chain, " -> ")
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// UnsupportedSourceError is raised by collaborators that receive an injection
// argument or declaration tagged with an origin they do not understand.
type UnsupportedSourceError struct {
	Source string
	Value  string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.Source, e.Value)
}

func (e *UnsupportedSourceError) Is(target error) bool { return target == ErrUnsupportedSource }

// NotFoundError is returned by Require for ids that were never registered.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "service " + strconv.Quote(e.ID) + " is not registered"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidRegistrationError rejects malformed registrations.
type InvalidRegistrationError struct {
	ID     string
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("invalid registration %q: %s", e.ID, e.Reason)
}

func (e *InvalidRegistrationError) Is(target error) bool { return target == ErrInvalidRegistration }

// InitStage names the step of the init protocol that failed.
type InitStage string

const (
	StageFactory InitStage = "factory"
	StageInject  InitStage = "inject"
	StageInit    InitStage = "init"
	StageDestroy InitStage = "destroy"
)

// InitError wraps a failure returned by a service capability.
type InitError struct {
	ID    string
	Stage InitStage
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s failed for service %q: %v", e.Stage, e.ID, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

func quoteAll(ids []string) string {
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		quoted = append(quoted, strconv.Quote(id))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
