package gen

import (
	"strings"

	"github.com/sivrad/matrix-tools/schema"
)

// LocalPackage is the reserved identifier for types generated in the same package.
// npm package names can never start with ".", so it cannot clash with an external package.
const LocalPackage = "."

const qualifiedSeparator = "."

type ParentKind int

const (
	ParentRoot ParentKind = iota
	ParentLocal
	ParentExternal
)

func (k ParentKind) String() string {
	switch k {
	case ParentRoot:
		return "root"
	case ParentLocal:
		return "local"
	case ParentExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ParentRef is a parent reference resolved once into its owning package and class.
type ParentRef struct {
	Kind ParentKind
	// LocalPackage for local parents, an npm package name otherwise
	Package string
	// type name as authored (without package qualifier); empty for root
	Type      string
	ClassName string
}

// SerializedName is the serialized-data contract exported next to the parent class.
func (p ParentRef) SerializedName() string {
	return SerializedName(p.ClassName)
}

// Module is the import specifier the parent class is loaded from.
func (p ParentRef) Module() string {
	if p.Kind == ParentLocal {
		return LocalModule(p.Type)
	}
	return p.Package
}

func SerializedName(className string) string {
	return "Serialized" + className
}

// LocalModule is the import specifier of a type generated in the same package.
func LocalModule(typeName string) string {
	return LocalPackage + "/" + typeName
}

// IsLocal reports whether an import key refers to the local package.
func IsLocal(pkg string) bool {
	return pkg == LocalPackage || strings.HasPrefix(pkg, LocalPackage+"/")
}

// ResolveParent turns a parent reference ("", "animal" or "zoo-pkg.lion") into a ParentRef.
// References with more than one separator fail with MalformedParentReference.
func (c *Config) ResolveParent(ref string) (ParentRef, error) {
	if ref == "" {
		return ParentRef{
			Kind:      ParentRoot,
			Package:   c.RootPackage,
			ClassName: c.RootClass,
		}, nil
	}
	parts := strings.Split(ref, qualifiedSeparator)
	switch {
	case len(parts) == 1 && schema.ValidName(ref):
		return ParentRef{
			Kind:      ParentLocal,
			Package:   LocalPackage,
			Type:      ref,
			ClassName: schema.FormatAsClassName(ref),
		}, nil
	case len(parts) == 2 && schema.ValidName(parts[0]) && schema.ValidName(parts[1]):
		return ParentRef{
			Kind:      ParentExternal,
			Package:   c.CollectionPackage(parts[0]),
			Type:      parts[1],
			ClassName: schema.FormatAsClassName(parts[1]),
		}, nil
	default:
		return ParentRef{}, schema.NewError(schema.MalformedParentReference, "", "parent reference '%s' must be '<type>' or '<package>.<type>' with valid names", ref)
	}
}
