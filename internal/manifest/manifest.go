// Package manifest reads and writes YAML descriptions of a wiring graph and
// turns them into registries of stub services.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mazrean/kizuna"
)

// Kind tells which capabilities the stub of a service implements.
type Kind string

const (
	KindService Kind = "service"
	KindFactory Kind = "factory"
)

type Manifest struct {
	Services []Service `yaml:"services"`
}

type Service struct {
	ID           string       `yaml:"id"`
	Kind         Kind         `yaml:"kind,omitempty"`
	Provides     []string     `yaml:"provides,omitempty"`
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
	// Disabled services are vetoed by the satisfy hook of Build.
	Disabled bool `yaml:"disabled,omitempty"`
}

type Dependency struct {
	ID       string `yaml:"id"`
	Optional bool   `yaml:"optional,omitempty"`
}

// DependencyIDs returns the declared dependency ids in order.
func (s *Service) DependencyIDs() []string {
	ids := make([]string, 0, len(s.Dependencies))
	for _, d := range s.Dependencies {
		ids = append(ids, d.ID)
	}
	return ids
}

// Validate checks the fields the registry does not check itself.
func (m *Manifest) Validate() error {
	for i := range m.Services {
		s := &m.Services[i]
		if s.ID == "" {
			return fmt.Errorf("service #%d: empty id", i+1)
		}

		switch s.Kind {
		case "":
			s.Kind = KindService
		case KindService, KindFactory:
		default:
			return fmt.Errorf("service %q: %w", s.ID, &kizuna.UnsupportedSourceError{Source: "service kind", Value: string(s.Kind)})
		}

		for _, d := range s.Dependencies {
			if d.ID == "" {
				return fmt.Errorf("service %q: empty dependency id", s.ID)
			}
		}
	}

	return nil
}

// Decode reads a manifest from r. Unknown fields are rejected and an empty
// document yields an empty manifest.
func Decode(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Load reads the manifest stored at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// Encode writes m to w as YAML.
func Encode(w io.Writer, m *Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	return enc.Close()
}

// Marshal returns the YAML form of m.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
