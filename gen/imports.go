package gen

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"unicode"

	"github.com/sivrad/matrix-tools/schema"
)

// ImportSet collects the symbols one generated module imports, per package.
// Packages keep first-insertion order and symbols keep insertion order, so output is stable across runs.
//
// It also tracks the local names a module binds, so an imported symbol never shadows the module's own
// declarations or a same-named symbol from another package; see [ImportSet.Bind].
type ImportSet struct {
	packages []string
	// rendered import specifiers per package ("Lion" or "Lion as ZooPkgLion")
	symbols map[string][]string
	// local name -> owner ("pkg\x00symbol"); reserved names have an empty owner
	names map[string]string
}

func NewImportSet() *ImportSet {
	return &ImportSet{
		symbols: make(map[string][]string),
		names:   make(map[string]string),
	}
}

func owner(pkg, symbol string) string {
	return pkg + "\x00" + symbol
}

// Add registers symbols from pkg under their own names. Re-adding a known (package, symbol) pair is a no-op.
func (is *ImportSet) Add(pkg string, symbols ...string) *ImportSet {
	is.addPackage(pkg)
	for _, sym := range symbols {
		if _, ok := is.names[sym]; !ok {
			is.names[sym] = owner(pkg, sym)
		}
		is.addSpecifier(pkg, sym)
	}
	return is
}

// Reserve marks names the module declares itself, so imports can not bind them.
func (is *ImportSet) Reserve(names ...string) {
	for _, n := range names {
		is.names[n] = ""
	}
}

// Bind imports symbol from pkg and returns the local name to refer to it by: the symbol itself when that
// name is free, alias otherwise. Binding the same (package, symbol) pair again returns the same name.
// It fails when both names are already taken by something else.
func (is *ImportSet) Bind(pkg, symbol, alias string) (string, error) {
	o := owner(pkg, symbol)
	for _, local := range []string{symbol, alias} {
		if cur, ok := is.names[local]; ok && cur == o {
			return local, nil
		}
	}
	for _, local := range []string{symbol, alias} {
		if local == "" {
			continue
		}
		if _, taken := is.names[local]; taken {
			continue
		}
		is.names[local] = o
		is.addPackage(pkg)
		if local == symbol {
			is.addSpecifier(pkg, symbol)
		} else {
			is.addSpecifier(pkg, symbol+" as "+local)
		}
		return local, nil
	}
	return "", fmt.Errorf("can not import '%s' from '%s': both '%s' and '%s' are already in use", symbol, pkg, symbol, alias)
}

func (is *ImportSet) addPackage(pkg string) {
	if _, ok := is.symbols[pkg]; !ok {
		is.packages = append(is.packages, pkg)
		is.symbols[pkg] = nil
	}
}

func (is *ImportSet) addSpecifier(pkg, spec string) {
	if !slices.Contains(is.symbols[pkg], spec) {
		is.symbols[pkg] = append(is.symbols[pkg], spec)
	}
}

func (is *ImportSet) Has(pkg string) bool {
	_, ok := is.symbols[pkg]
	return ok
}

// Packages returns the imported packages in first-inserted order.
func (is *ImportSet) Packages() []string {
	return is.packages
}

// Symbols returns the import specifiers of pkg, aliases included.
func (is *ImportSet) Symbols(pkg string) []string {
	return is.symbols[pkg]
}

// String renders one import statement per package that has at least one symbol.
func (is *ImportSet) String() string {
	var sb strings.Builder
	for _, pkg := range is.packages {
		syms := is.symbols[pkg]
		if len(syms) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "import { %s } from %s;\n", strings.Join(syms, ", "), tsString(pkg))
	}
	return sb.String()
}

// typeTerm is one member of a field type expression, e.g. "zoo-pkg.lion[]".
type typeTerm struct {
	Name   string
	Arrays int
}

// splitTypeExpr breaks "a[] | b" into its union members with array markers stripped.
func splitTypeExpr(expr string) []typeTerm {
	expr = strings.Join(strings.Fields(expr), "")
	var terms []typeTerm
	for _, part := range strings.Split(expr, "|") {
		t := typeTerm{Name: part}
		for strings.HasSuffix(t.Name, "[]") {
			t.Name = strings.TrimSuffix(t.Name, "[]")
			t.Arrays++
		}
		terms = append(terms, t)
	}
	return terms
}

// TypeSet answers whether a type name is generated in the local package.
type TypeSet interface {
	Resolve(name string) (*schema.TypeSchema, bool)
}

// resolvedTerm is a field type member mapped to its class and the module it is imported from.
type resolvedTerm struct {
	// builtin or the schema's own class; never imported
	Expr    string
	Package string
	Class   string
}

// resolveTerm maps a bare type name to where it comes from, using the same convention as parents.
func (g *Generator) resolveTerm(s *schema.TypeSchema, t typeTerm) (resolvedTerm, bool) {
	switch {
	case t.Name == "":
		return resolvedTerm{}, false
	case g.Config.IsBuiltin(t.Name):
		return resolvedTerm{Expr: t.Name}, true
	case t.Name == s.Name:
		return resolvedTerm{Expr: ClassName(t.Name)}, true
	}

	parts := strings.Split(t.Name, qualifiedSeparator)
	switch len(parts) {
	case 1:
		if g.Types == nil {
			return resolvedTerm{}, false
		}
		if _, ok := g.Types.Resolve(t.Name); !ok {
			return resolvedTerm{}, false
		}
		return resolvedTerm{Package: LocalModule(t.Name), Class: ClassName(t.Name)}, true
	case 2:
		if !schema.ValidName(parts[0]) || !schema.ValidName(parts[1]) {
			return resolvedTerm{}, false
		}
		return resolvedTerm{Package: g.Config.CollectionPackage(parts[0]), Class: ClassName(parts[1])}, true
	default:
		return resolvedTerm{}, false
	}
}

// ScanFieldTypes registers an import for every non-builtin type referenced by the schema's fields and
// returns the TypeScript spelling of each field's type expression, keyed by field key. Imported classes
// whose name is already bound in the module are aliased.
// A reference that is neither builtin, local, nor "<package>.<type>" fails with UnresolvableFieldType.
func (g *Generator) ScanFieldTypes(s *schema.TypeSchema, imports *ImportSet) (map[string]string, error) {
	exprs := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		var members []string
		for _, t := range splitTypeExpr(f.Type) {
			rt, ok := g.resolveTerm(s, t)
			if !ok {
				return nil, schema.NewError(schema.UnresolvableFieldType, s.Path,
					"field '%s' of type '%s' references unknown type '%s' in '%s'", f.Key, s.Name, t.Name, s.Path)
			}
			expr := rt.Expr
			if rt.Package != "" {
				local, err := imports.Bind(rt.Package, rt.Class, g.ImportAlias(rt.Package, rt.Class))
				if err != nil {
					return nil, schema.NewError(schema.UnresolvableFieldType, s.Path,
						"field '%s' of type '%s' in '%s': %s", f.Key, s.Name, s.Path, err)
				}
				expr = local
			}
			members = append(members, expr+strings.Repeat("[]", t.Arrays))
		}
		exprs[f.Key] = strings.Join(members, " | ")
	}
	return exprs, nil
}

// ImportAlias is the deterministic local name a symbol from pkg is imported as when its own name is taken:
// the symbol prefixed with the package's short name ("ZooPkgLion" for Lion from the zoo-pkg collection).
func (g *Generator) ImportAlias(pkg, symbol string) string {
	var short string
	switch {
	case IsLocal(pkg):
		short = "local"
	case strings.HasPrefix(pkg, g.Config.PackagePrefix) && len(pkg) > len(g.Config.PackagePrefix):
		short = strings.TrimPrefix(pkg, g.Config.PackagePrefix)
	default:
		short = path.Base(pkg)
	}
	return identPart(schema.FormatAsClassName(short)) + symbol
}

// identPart drops everything that can not appear in an identifier.
func identPart(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
