// Package schema loads and normalizes matrix type documents and collection manifests.
//
// A processed directory looks like:
//
//	collection.json
//	types/animal.json
//	types/dog.json
//
// Type documents may also be written as YAML (.yaml or .yml).
package schema

const (
	CollectionFile = "collection.json"
	TypesDir       = "types"

	DefaultDescription = "No description given."
	DefaultIcon        = "default"
)

// TypeSchema is one normalized type document.
type TypeSchema struct {
	// path of the document this was read from
	Path string

	Name        string
	Label       string
	Description string
	IsAbstract  bool
	// empty for root types; otherwise a bare local name or "<package>.<type>"
	Parent string
	// in authored order
	Fields []*FieldSchema
}

// Field looks up a field by key.
func (s *TypeSchema) Field(key string) *FieldSchema {
	for _, f := range s.Fields {
		if f.Key == key {
			return f
		}
	}
	return nil
}

// FieldSchema is a normalized field declaration.
type FieldSchema struct {
	Key         string
	Type        string
	Label       string
	Description string
	// nil when absent; see Required
	DefaultValue any
	// true iff the source declaration had no "defaultValue" key
	Required bool
}

// CollectionManifest describes the package the types are published in.
type CollectionManifest struct {
	Path string

	ID          string
	Label       string
	Description string
	Icon        string
}
