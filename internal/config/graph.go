package config

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/mazrean/kizuna"
	"github.com/mazrean/kizuna/internal/manifest"
)

// GraphCmd prints the wiring of a manifest as a Graphviz digraph.
type GraphCmd struct {
	File string `kong:"arg,help='Manifest file'"`
}

// Run executes the graph command.
func (c *GraphCmd) Run(cli *CLI) error {
	setupLogger(cli.LogLevel)

	m, err := manifest.Load(c.File)
	if err != nil {
		return err
	}

	reg, err := manifest.Build(m, kizuna.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	return writeDOT(cli.stdout(), reg)
}

// writeDOT renders one node per service and one edge per binding, pointing
// from the dependent to its provider. Edges are labelled with the declared id
// when it is an alias. Unresolved declarations point at a placeholder node:
// dashed when required, dotted when optional.
func writeDOT(w io.Writer, reg *kizuna.Registry) error {
	var b strings.Builder
	b.WriteString("digraph kizuna {\n")
	b.WriteString("  rankdir=LR;\n")

	var missing []string
	for _, id := range reg.IDs() {
		h, _ := reg.Holder(id)

		shape := "box"
		if _, ok := h.Service().(kizuna.ServiceFactory); ok {
			shape = "diamond"
		}
		fmt.Fprintf(&b, "  %s [shape=%s];\n", strconv.Quote(id), shape)

		required := h.Unresolved()
		for _, binding := range h.Dependencies() {
			for _, provider := range binding.Providers {
				if provider == binding.ID {
					fmt.Fprintf(&b, "  %s -> %s;\n", strconv.Quote(id), strconv.Quote(provider))
					continue
				}
				fmt.Fprintf(&b, "  %s -> %s [label=%s];\n", strconv.Quote(id), strconv.Quote(provider), strconv.Quote(binding.ID))
			}
			if binding.Unresolved == 0 {
				continue
			}

			style := "dotted"
			if slices.Contains(required, binding.ID) {
				style = "dashed"
			}
			if !slices.Contains(missing, binding.ID) {
				missing = append(missing, binding.ID)
			}
			fmt.Fprintf(&b, "  %s -> %s [style=%s];\n", strconv.Quote(id), strconv.Quote("?"+binding.ID), style)
		}
	}

	for _, id := range missing {
		fmt.Fprintf(&b, "  %s [shape=plaintext, label=%s];\n", strconv.Quote("?"+id), strconv.Quote(id))
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
