package schema

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"
)

// TypeSchemaURL is the JSON-Schema new type documents declare in "$schema".
const TypeSchemaURL = "https://raw.githubusercontent.com/sivrad/matrix-schema/main/type.json"

// MakeType writes a new type document types/<name>.json under dir, creating the types directory if needed.
// It fails with DuplicateType if the document already exists.
func MakeType(dir, name string) (string, error) {
	if name == "" {
		return "", newError(MissingRequiredField, "", "a type name is required")
	}
	if !ValidName(name) {
		return "", newError(MalformedDocument, "", "type name '%s' must be letters, digits and '_' in words joined by '-'", name)
	}
	typesDir := filepath.Join(dir, TypesDir)
	p := filepath.Join(typesDir, name+".json")
	if _, err := os.Stat(p); err == nil {
		return "", newError(DuplicateType, p, "a type with the name '%s' already exists", name)
	} else if !os.IsNotExist(err) {
		return "", err
	}
	if err := os.MkdirAll(typesDir, 0o755); err != nil {
		return "", fmt.Errorf("creating types directory: %w", err)
	}

	doc := struct {
		Schema string `json:"$schema"`
		Name   string `json:"name"`
		Label  string `json:"label"`
	}{
		Schema: TypeSchemaURL,
		Name:   name,
		Label:  FormatAsLabel(name),
	}
	b, err := gojson.Marshal(doc)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := gojson.Indent(&out, b, "", "    "); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, out.Bytes(), 0o644); err != nil {
		return "", err
	}
	slog.Debug("created type document", "path", p, "type", name)
	return p, nil
}
