package kizuna

import (
	"fmt"
	"io"
	"strings"
)

// Report summarizes one activation.
type Report struct {
	// Run identifies the activation in logs.
	Run string
	// Initialized lists the services initialized by this activation in
	// initialization order.
	Initialized []string
	// Unsatisfied lists the services left uninitialized, in registration order.
	Unsatisfied []string
	// Pending explains each entry of Unsatisfied.
	Pending []Pending
	// Failed names the service whose initialization aborted the activation.
	Failed string
}

// Pending explains why a service was not initialized.
type Pending struct {
	ID string
	// Missing lists required dependency ids without a provider.
	Missing []string
	// Waiting lists resolved dependency ids whose providers cannot be
	// initialized yet.
	Waiting []string
	// Vetoed is set when the satisfy hook rejected the service.
	Vetoed bool
}

func (p Pending) String() string {
	var reasons []string
	if len(p.Missing) > 0 {
		reasons = append(reasons, "missing "+strings.Join(p.Missing, ", "))
	}
	if len(p.Waiting) > 0 {
		reasons = append(reasons, "waiting for "+strings.Join(p.Waiting, ", "))
	}
	if p.Vetoed {
		reasons = append(reasons, "vetoed")
	}
	if len(reasons) == 0 {
		return p.ID
	}
	return p.ID + ": " + strings.Join(reasons, "; ")
}

// Write prints the report in a human readable form.
func (r *Report) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "initialized (%d):\n", len(r.Initialized))
	for i, id := range r.Initialized {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, id)
	}
	if len(r.Pending) > 0 {
		fmt.Fprintf(&b, "unsatisfied (%d):\n", len(r.Pending))
		for _, p := range r.Pending {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	if r.Failed != "" {
		fmt.Fprintf(&b, "failed: %s\n", r.Failed)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
