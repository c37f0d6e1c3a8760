package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Load reads and normalizes a single type document.
func Load(path string) (*TypeSchema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading type document %q: %w", path, err)
	}
	return ParseType(path, b)
}

// ReadDocument reads a document into its ordered tree, classifying syntax errors as MalformedDocument.
func ReadDocument(path string) (*Object, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %q: %w", path, err)
	}
	return parseDocument(path, b)
}

func parseDocument(path string, b []byte) (*Object, error) {
	doc, err := DecodeDocument(path, b)
	if err != nil {
		e := newError(MalformedDocument, path, "invalid document '%s': %s", path, err)
		e.Err = err
		return nil, e
	}
	return doc, nil
}

// ParseType normalizes raw document bytes into a TypeSchema. The path is used for syntax selection and error attribution.
func ParseType(path string, b []byte) (*TypeSchema, error) {
	doc, err := parseDocument(path, b)
	if err != nil {
		return nil, err
	}
	return TypeFromDocument(path, doc)
}

// TypeFromDocument normalizes an already-decoded type document.
func TypeFromDocument(path string, doc *Object) (*TypeSchema, error) {
	name, ok, err := stringValue(doc, "name", path)
	if err != nil {
		return nil, err
	}
	if !ok || name == "" {
		return nil, newError(MissingRequiredField, path, "type document '%s' is missing 'name'", path)
	}
	if !ValidName(name) {
		return nil, newError(MalformedDocument, path, "type name '%s' in '%s' must be letters, digits and '_' in words joined by '-'", name, path)
	}

	s := &TypeSchema{
		Path: path,
		Name: name,
	}
	if s.Label, err = stringOr(doc, "label", FormatAsLabel(name), path); err != nil {
		return nil, err
	}
	if s.Description, err = stringOr(doc, "description", DefaultDescription, path); err != nil {
		return nil, err
	}
	if s.Parent, err = stringOr(doc, "parent", "", path); err != nil {
		return nil, err
	}
	if v, ok := doc.Get("isAbstract"); ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, newError(MalformedDocument, path, "'isAbstract' must be a boolean in '%s', got %s", path, typeName(v))
		}
		s.IsAbstract = b
	}

	raw, ok := doc.Get("fields")
	if !ok || raw == nil {
		return s, nil
	}
	fields, ok := raw.(*Object)
	if !ok {
		return nil, newError(MalformedDocument, path, "'fields' must be an object in '%s', got %s", path, typeName(raw))
	}
	for _, key := range fields.Keys() {
		v, _ := fields.Get(key)
		rf, ok := v.(*Object)
		if !ok {
			return nil, newError(MalformedDocument, path, "field '%s' must be an object in '%s', got %s", key, path, typeName(v))
		}
		f, err := NormalizeField(path, key, rf)
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

// NormalizeField converts a raw field declaration into a FieldSchema.
//
// Required is derived from the presence of the "defaultValue" key in the raw declaration, before any
// default substitution; an explicit false, 0, "" or null still counts as a default.
func NormalizeField(path, key string, raw *Object) (*FieldSchema, error) {
	typ, ok, err := stringValue(raw, "type", path)
	if err != nil {
		return nil, err
	}
	if !ok || typ == "" {
		return nil, newError(MissingRequiredField, path, "field '%s' in '%s' is missing 'type'", key, path)
	}

	dv, hasDefault := raw.Get("defaultValue")
	f := &FieldSchema{
		Key:      key,
		Type:     typ,
		Required: !hasDefault,
	}
	if hasDefault {
		f.DefaultValue = dv
	}
	if f.Label, err = stringOr(raw, "label", FormatAsLabel(key), path); err != nil {
		return nil, err
	}
	if f.Description, err = stringOr(raw, "description", DefaultDescription, path); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadCollection reads the collection manifest, filling in the default icon.
func LoadCollection(path string) (*CollectionManifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading collection manifest %q: %w", path, err)
	}
	return ParseCollection(path, b)
}

// ParseCollection normalizes raw manifest bytes.
func ParseCollection(path string, b []byte) (*CollectionManifest, error) {
	doc, err := parseDocument(path, b)
	if err != nil {
		return nil, err
	}
	return CollectionFromDocument(path, doc)
}

// CollectionFromDocument normalizes an already-decoded manifest.
func CollectionFromDocument(path string, doc *Object) (*CollectionManifest, error) {
	id, ok, err := stringValue(doc, "id", path)
	if err != nil {
		return nil, err
	}
	if !ok || id == "" {
		return nil, newError(MissingRequiredField, path, "collection manifest '%s' is missing 'id'", path)
	}
	c := &CollectionManifest{
		Path: path,
		ID:   id,
	}
	if c.Label, err = stringOr(doc, "label", FormatAsLabel(id), path); err != nil {
		return nil, err
	}
	if c.Description, err = stringOr(doc, "description", DefaultDescription, path); err != nil {
		return nil, err
	}
	if c.Icon, err = stringOr(doc, "icon", DefaultIcon, path); err != nil {
		return nil, err
	}
	return c, nil
}

// FindTypeFiles lists the type documents under dir/types, in directory (file name) order.
// Entries without a supported document extension are returned separately.
func FindTypeFiles(dir string) (docs []string, other []string, err error) {
	typesDir := filepath.Join(dir, TypesDir)
	entries, err := os.ReadDir(typesDir)
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		p := filepath.Join(typesDir, ent.Name())
		if IsDocumentPath(p) {
			docs = append(docs, p)
		} else {
			other = append(other, p)
		}
	}
	return docs, other, nil
}

func stringValue(doc *Object, key, path string) (string, bool, error) {
	v, ok := doc.Get(key)
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, newError(MalformedDocument, path, "'%s' must be a string in '%s', got %s", key, path, typeName(v))
	}
	return s, true, nil
}

// empty strings fall back to the default, matching an unauthored value
func stringOr(doc *Object, key, def, path string) (string, error) {
	s, ok, err := stringValue(doc, key, path)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return def, nil
	}
	return s, nil
}
