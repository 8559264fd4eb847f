package scan

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazrean/kizuna/internal/manifest"
)

// registryStub mirrors the Registry API so that sources can be type-checked
// under the registry import path without an importer.
const registryStub = `
type Registry struct{}

type Registration struct {
	ID           string
	Service      any
	Dependencies []string
	Provides     []string
}

func (r *Registry) Register(svc any, id string, deps ...string) error { return nil }
func (r *Registry) Add(reg Registration) error                       { return nil }

type Other struct{}

func (o *Other) Register(svc any, id string, deps ...string) error { return nil }

type Service struct{}

type Factory struct{}

func (f *Factory) CreateService(receiver any) (any, error) { return nil, nil }
`

func check(t *testing.T, body string) (*token.FileSet, *ast.File, *types.Info) {
	t.Helper()

	src := "package kizuna\n" + registryStub + body
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "wiring.go", src, parser.ParseComments)
	require.NoError(t, err)

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	_, err = (&types.Config{}).Check(RegistryPackage, fset, []*ast.File{file}, info)
	require.NoError(t, err)

	return fset, file, info
}

func TestExtractor_File(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		want         []manifest.Service
		wantWarnings []WarningCode
	}{
		{
			name: "register with constants",
			body: `
const configID = "config"

func wire(r *Registry) {
	_ = r.Register(&Service{}, configID)
	_ = r.Register(&Service{}, "db", configID, "tracer")
}
`,
			want: []manifest.Service{
				{ID: "config", Kind: manifest.KindService},
				{ID: "db", Kind: manifest.KindService, Dependencies: []manifest.Dependency{{ID: "config"}, {ID: "tracer"}}},
			},
		},
		{
			name: "factory detected from method set",
			body: `
func wire(r *Registry) {
	_ = r.Register(&Factory{}, "conn")
}
`,
			want: []manifest.Service{{ID: "conn", Kind: manifest.KindFactory}},
		},
		{
			name: "add with registration literal",
			body: `
func wire(r *Registry) {
	_ = r.Add(Registration{
		ID:           "db",
		Service:      &Service{},
		Dependencies: []string{"config"},
		Provides:     []string{"store"},
	})
}
`,
			want: []manifest.Service{{
				ID:           "db",
				Kind:         manifest.KindService,
				Provides:     []string{"store"},
				Dependencies: []manifest.Dependency{{ID: "config"}},
			}},
		},
		{
			name: "other receivers ignored",
			body: `
func wire(o *Other) {
	_ = o.Register(&Service{}, "ignored")
}
`,
		},
		{
			name: "non constant id",
			body: `
func wire(r *Registry, id string) {
	_ = r.Register(&Service{}, id)
}
`,
			wantWarnings: []WarningCode{WarnNonConstantID},
		},
		{
			name: "spread dependencies",
			body: `
func wire(r *Registry, deps []string) {
	_ = r.Register(&Service{}, "a", deps...)
}
`,
			wantWarnings: []WarningCode{WarnSpreadDependencies},
		},
		{
			name: "non constant dependency",
			body: `
func wire(r *Registry, dep string) {
	_ = r.Register(&Service{}, "a", dep)
	_ = r.Register(&Service{}, "b")
}
`,
			want:         []manifest.Service{{ID: "b", Kind: manifest.KindService}},
			wantWarnings: []WarningCode{WarnNonConstantDependency},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fset, file, info := check(t, tt.body)
			got, warnings := NewExtractor().File(fset, file, info)

			assert.Equal(t, tt.want, got)

			codes := make([]WarningCode, 0, len(warnings))
			for _, w := range warnings {
				codes = append(codes, w.Code)
				assert.Contains(t, w.Pos, "wiring.go:")
			}
			if len(tt.wantWarnings) == 0 {
				assert.Empty(t, codes)
			} else {
				assert.Equal(t, tt.wantWarnings, codes)
			}
		})
	}
}

func TestExtractor_FileBuildsRegistry(t *testing.T) {
	t.Parallel()

	fset, file, info := check(t, `
func wire(r *Registry) {
	_ = r.Register(&Service{}, "api", "store")
	_ = r.Add(Registration{ID: "db", Service: &Service{}, Provides: []string{"store"}})
}
`)
	services, warnings := NewExtractor().File(fset, file, info)
	require.Empty(t, warnings)

	m := &manifest.Manifest{Services: services}
	require.NoError(t, m.Validate())

	reg, err := manifest.Build(m)
	require.NoError(t, err)

	report, err := reg.Activate()
	require.NoError(t, err)
	assert.Equal(t, []string{"db", "api"}, report.Initialized)
}
