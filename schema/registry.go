package schema

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Registry holds the type schemas of one generation run, in the order their documents were discovered.
type Registry struct {
	schemas []*TypeSchema
	byPath  map[string]*TypeSchema
}

func NewRegistry() *Registry {
	return &Registry{
		byPath: make(map[string]*TypeSchema),
	}
}

// Add inserts a schema keyed by its source path. Name clashes are not rejected here; see [Registry.RemoveDuplicates].
func (r *Registry) Add(s *TypeSchema) error {
	if s.Path == "" {
		return fmt.Errorf("schema %q has no source path", s.Name)
	}
	if _, ok := r.byPath[s.Path]; ok {
		return fmt.Errorf("registry already contained a schema from path: %s", s.Path)
	}
	r.byPath[s.Path] = s
	r.schemas = append(r.schemas, s)
	return nil
}

// Schemas returns every registered schema in discovery order.
func (r *Registry) Schemas() []*TypeSchema {
	return r.schemas
}

func (r *Registry) Len() int {
	return len(r.schemas)
}

// ByPath looks a schema up by its source document.
func (r *Registry) ByPath(path string) (*TypeSchema, bool) {
	s, ok := r.byPath[path]
	return s, ok
}

// Resolve looks a schema up by type name.
func (r *Registry) Resolve(name string) (*TypeSchema, bool) {
	for _, s := range r.schemas {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// RemoveDuplicates drops every schema whose generated class is declared by more than one document, returning
// one DuplicateType error per clashing class that lists all of the source documents involved. Names that only
// differ in spelling ("big-cat" and "bigCat") clash because they generate the same class.
func (r *Registry) RemoveDuplicates() []*Error {
	paths := make(map[string][]string)
	names := make(map[string][]string)
	var order []string
	for _, s := range r.schemas {
		class := FormatAsClassName(s.Name)
		if _, ok := paths[class]; !ok {
			order = append(order, class)
		}
		paths[class] = append(paths[class], s.Path)
		if !slices.Contains(names[class], s.Name) {
			names[class] = append(names[class], s.Name)
		}
	}

	var errs []*Error
	for _, class := range order {
		if len(paths[class]) < 2 {
			continue
		}
		slog.Debug("duplicate type class", "class", class, "types", names[class], "paths", paths[class])
		var e *Error
		if len(names[class]) == 1 {
			e = newError(DuplicateType, paths[class][0], "a type with the name '%s' is declared in multiple files: %s", names[class][0], strings.Join(paths[class], ", "))
		} else {
			e = newError(DuplicateType, paths[class][0], "types '%s' all generate the class '%s': %s", strings.Join(names[class], "', '"), class, strings.Join(paths[class], ", "))
		}
		e.Paths = paths[class]
		errs = append(errs, e)
	}
	if len(errs) == 0 {
		return nil
	}

	kept := r.schemas[:0]
	for _, s := range r.schemas {
		if len(paths[FormatAsClassName(s.Name)]) > 1 {
			delete(r.byPath, s.Path)
			continue
		}
		kept = append(kept, s)
	}
	r.schemas = kept
	return errs
}
