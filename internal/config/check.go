package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/sync/errgroup"

	"github.com/mazrean/kizuna"
	"github.com/mazrean/kizuna/internal/manifest"
	"github.com/mazrean/kizuna/metrics"
)

// CheckCmd activates each manifest on a registry of stub services.
type CheckCmd struct {
	Files   []string `kong:"arg,help='Manifest files to check'"`
	Strict  bool     `kong:"help='Fail when services remain unsatisfied'"`
	Metrics bool     `kong:"help='Print the collected metrics after the reports'"`
}

type checkResult struct {
	report *kizuna.Report
	err    error
}

// Run executes the check command.
func (c *CheckCmd) Run(cli *CLI) error {
	setupLogger(cli.LogLevel)

	if len(c.Files) == 0 {
		return fmt.Errorf("no files specified")
	}

	slog.Info("Checking wiring manifests", "files", c.Files)

	promReg := prometheus.NewRegistry()
	results := make([]checkResult, len(c.Files))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range c.Files {
		eg.Go(func() error {
			observer, err := metrics.NewObserver(promReg, prometheus.Labels{"manifest": file})
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			m, err := manifest.Load(file)
			if err != nil {
				return err
			}

			reg, err := manifest.Build(m,
				kizuna.WithLogger(slog.Default().With("manifest", file)),
				kizuna.WithStrict(c.Strict),
				kizuna.WithObserver(observer),
			)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			defer func() {
				if err := reg.Close(); err != nil {
					slog.Warn("Failed to close registry", "manifest", file, "error", err)
				}
			}()

			report, err := reg.Activate()
			results[i] = checkResult{report: report, err: err}

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	out := cli.stdout()
	var errs []error
	for i, file := range c.Files {
		if err := writeResult(out, file, results[i]); err != nil {
			return err
		}
		if results[i].err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, results[i].err))
		}
	}

	if c.Metrics {
		families, err := promReg.Gather()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		if err := writeFamilies(out, families); err != nil {
			return err
		}
	}

	return errors.Join(errs...)
}

func writeResult(w io.Writer, file string, result checkResult) error {
	if _, err := fmt.Fprintf(w, "== %s\n", file); err != nil {
		return err
	}
	if result.report != nil {
		if err := result.report.Write(w); err != nil {
			return err
		}
	}
	if result.err != nil {
		if _, err := fmt.Fprintf(w, "error: %v\n", result.err); err != nil {
			return err
		}
	}
	return nil
}

// writeFamilies prints one line per sample, sorted by family name.
func writeFamilies(w io.Writer, families []*dto.MetricFamily) error {
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})

	var b strings.Builder
	for _, family := range families {
		for _, m := range family.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			name := family.GetName() + "{" + strings.Join(labels, ",") + "}"

			switch family.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(&b, "%s %g\n", name, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(&b, "%s %g\n", name, m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(&b, "%s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
