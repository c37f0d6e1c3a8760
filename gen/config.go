// Package gen renders matrix type schemas into TypeScript modules.
package gen

import (
	"slices"
)

// Config holds the naming conventions of the generated package.
type Config struct {
	// package every hierarchy ultimately extends from
	RootPackage string
	// universal base class exported by RootPackage
	RootClass string
	// external collection packages are named PackagePrefix + <package>
	PackagePrefix string
	// type names that never need an import
	Builtins []string
}

func DefaultConfig() *Config {
	return &Config{
		RootPackage:   "@sivrad/matrix",
		RootClass:     "MatrixBaseType",
		PackagePrefix: "@sivrad/matrix-collection-",
		Builtins: []string{
			"string",
			"number",
			"boolean",
			"bigint",
			"any",
			"unknown",
			"null",
			"undefined",
			"object",
			"Date",
		},
	}
}

func (c *Config) IsBuiltin(name string) bool {
	return slices.Contains(c.Builtins, name)
}

// CollectionPackage derives the npm package for an external collection name.
func (c *Config) CollectionPackage(pkg string) string {
	return c.PackagePrefix + pkg
}
