// Package scan extracts service registrations from Go packages.
package scan

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"log/slog"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/mazrean/kizuna/internal/manifest"
)

// RegistryPackage is the import path whose Registry calls are extracted.
const RegistryPackage = "github.com/mazrean/kizuna"

// WarningCode identifies warning types.
type WarningCode int

const (
	WarnNonConstantID WarningCode = iota
	WarnNonConstantDependency
	WarnSpreadDependencies
	WarnNoRegistrations
)

// Warning reports a registration that could not be extracted.
type Warning struct {
	Message string
	Pos     string
	Code    WarningCode
}

// Extractor finds Register and Add calls on *Registry values.
type Extractor struct {
	registryPackage string
}

func NewExtractor() *Extractor {
	return &Extractor{registryPackage: RegistryPackage}
}

// Packages loads the packages matching patterns and extracts their
// registrations into one manifest, in source order.
func (e *Extractor) Packages(patterns ...string) (*manifest.Manifest, []Warning, error) {
	cfg := &packages.Config{
		Mode: packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo |
			packages.NeedName | packages.NeedFiles | packages.NeedImports,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load packages: %w", err)
	}

	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, nil, packageError(pkg.Errors[0])
		}
	}

	m := &manifest.Manifest{}
	var warnings []Warning
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			slog.Debug("Scanning file", "package", pkg.PkgPath, "file", pkg.Fset.Position(file.Pos()).Filename)

			services, fileWarnings := e.File(pkg.Fset, file, pkg.TypesInfo)
			m.Services = append(m.Services, services...)
			warnings = append(warnings, fileWarnings...)
		}
	}

	if len(m.Services) == 0 {
		warnings = append(warnings, Warning{
			Code:    WarnNoRegistrations,
			Message: "no registrations found in " + strings.Join(patterns, " "),
		})
	}

	return m, warnings, nil
}

func packageError(pkgErr packages.Error) error {
	if pkgErr.Pos != "" {
		return fmt.Errorf("load package: %s: %s", pkgErr.Pos, pkgErr.Msg)
	}
	return fmt.Errorf("load package: %s", pkgErr.Msg)
}

// File extracts the registrations of one type-checked file.
func (e *Extractor) File(fset *token.FileSet, file *ast.File, info *types.Info) ([]manifest.Service, []Warning) {
	var (
		services []manifest.Service
		warnings []Warning
	)

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		var (
			svc  manifest.Service
			warn *Warning
		)
		switch e.method(call, info) {
		case "Register":
			svc, warn = e.register(call, info)
		case "Add":
			svc, warn = e.add(call, info)
		default:
			return true
		}

		if warn != nil {
			warn.Pos = fset.Position(call.Pos()).String()
			warnings = append(warnings, *warn)
			return true
		}
		services = append(services, svc)

		return true
	})

	return services, warnings
}

// method returns the name of the Registry method called by call.
func (e *Extractor) method(call *ast.CallExpr, info *types.Info) string {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return ""
	}

	selection, ok := info.Selections[sel]
	if !ok || selection.Kind() != types.MethodVal {
		return ""
	}

	fn, ok := selection.Obj().(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != e.registryPackage {
		return ""
	}

	recv := fn.Type().(*types.Signature).Recv()
	if recv == nil {
		return ""
	}
	named, ok := types.Unalias(derefType(recv.Type())).(*types.Named)
	if !ok || named.Obj().Name() != "Registry" {
		return ""
	}

	return fn.Name()
}

// register handles Register(svc, id, deps...).
func (e *Extractor) register(call *ast.CallExpr, info *types.Info) (manifest.Service, *Warning) {
	if len(call.Args) < 2 {
		return manifest.Service{}, &Warning{Code: WarnNonConstantID, Message: "Register called with too few arguments"}
	}

	id, ok := constantString(call.Args[1], info)
	if !ok {
		return manifest.Service{}, &Warning{Code: WarnNonConstantID, Message: "service id is not a constant string"}
	}
	if call.Ellipsis.IsValid() {
		return manifest.Service{}, &Warning{Code: WarnSpreadDependencies, Message: fmt.Sprintf("dependencies of %q are passed as a slice", id)}
	}

	svc := manifest.Service{ID: id, Kind: kindOf(call.Args[0], info)}
	for _, arg := range call.Args[2:] {
		dep, ok := constantString(arg, info)
		if !ok {
			return manifest.Service{}, &Warning{Code: WarnNonConstantDependency, Message: fmt.Sprintf("dependency of %q is not a constant string", id)}
		}
		svc.Dependencies = append(svc.Dependencies, manifest.Dependency{ID: dep})
	}

	return svc, nil
}

// add handles Add(Registration{...}) with a composite literal argument.
func (e *Extractor) add(call *ast.CallExpr, info *types.Info) (manifest.Service, *Warning) {
	if len(call.Args) != 1 {
		return manifest.Service{}, &Warning{Code: WarnNonConstantID, Message: "Add called without a registration"}
	}
	lit, ok := ast.Unparen(call.Args[0]).(*ast.CompositeLit)
	if !ok {
		return manifest.Service{}, &Warning{Code: WarnNonConstantID, Message: "registration is not a composite literal"}
	}

	var (
		svc      manifest.Service
		idFound  bool
		svcValue ast.Expr
	)
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			return manifest.Service{}, &Warning{Code: WarnNonConstantID, Message: "registration literal uses positional fields"}
		}
		key, ok := kv.Key.(*ast.Ident)
		if !ok {
			continue
		}

		switch key.Name {
		case "ID":
			svc.ID, idFound = constantString(kv.Value, info)
		case "Service":
			svcValue = kv.Value
		case "Dependencies":
			deps, ok := constantStrings(kv.Value, info)
			if !ok {
				return manifest.Service{}, &Warning{Code: WarnNonConstantDependency, Message: "dependencies are not constant strings"}
			}
			for _, dep := range deps {
				svc.Dependencies = append(svc.Dependencies, manifest.Dependency{ID: dep})
			}
		case "Provides":
			provides, ok := constantStrings(kv.Value, info)
			if !ok {
				return manifest.Service{}, &Warning{Code: WarnNonConstantDependency, Message: "aliases are not constant strings"}
			}
			svc.Provides = provides
		}
	}

	if !idFound {
		return manifest.Service{}, &Warning{Code: WarnNonConstantID, Message: "service id is not a constant string"}
	}
	svc.Kind = manifest.KindService
	if svcValue != nil {
		svc.Kind = kindOf(svcValue, info)
	}

	return svc, nil
}

func constantString(expr ast.Expr, info *types.Info) (string, bool) {
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(tv.Value), true
}

func constantStrings(expr ast.Expr, info *types.Info) ([]string, bool) {
	lit, ok := ast.Unparen(expr).(*ast.CompositeLit)
	if !ok {
		return nil, false
	}

	values := make([]string, 0, len(lit.Elts))
	for _, elt := range lit.Elts {
		v, ok := constantString(elt, info)
		if !ok {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// kindOf reports a factory when the static type of expr has a
// CreateService method.
func kindOf(expr ast.Expr, info *types.Info) manifest.Kind {
	t := info.TypeOf(expr)
	if t == nil {
		return manifest.KindService
	}
	if obj, _, _ := types.LookupFieldOrMethod(t, true, nil, "CreateService"); obj != nil {
		if _, ok := obj.(*types.Func); ok {
			return manifest.KindFactory
		}
	}
	return manifest.KindService
}

func derefType(t types.Type) types.Type {
	if ptr, ok := t.(*types.Pointer); ok {
		return ptr.Elem()
	}
	return t
}
