package lint

import (
	"context"
	"path/filepath"

	"github.com/sivrad/matrix-tools/schema"
)

// Kind selects which remote schema a document is checked against.
type Kind string

const (
	KindCollection Kind = "collection"
	KindType       Kind = "type"
)

// InferKind derives the document kind from its path: the manifest file name is a collection,
// any other supported document is a type.
func InferKind(path string) (Kind, bool) {
	if filepath.Base(path) == schema.CollectionFile {
		return KindCollection, true
	}
	if schema.IsDocumentPath(path) {
		return KindType, true
	}
	return "", false
}

type ValidationResult struct {
	OK         bool
	Violations []schema.Violation
}

// Validator checks a decoded document against the schema for its kind. A returned error means the check
// could not be run at all; a document that fails the check is reported through the result.
type Validator interface {
	Validate(ctx context.Context, doc *schema.Object, kind Kind) (*ValidationResult, error)
}

// ValidateDocument runs v on doc and turns a failed check into a ValidationFailed error attributed to path.
func ValidateDocument(ctx context.Context, v Validator, path string, doc *schema.Object) error {
	kind, ok := InferKind(path)
	if !ok {
		return schema.NewError(schema.MalformedDocument, path, "can not infer document kind of '%s'", path)
	}
	res, err := v.Validate(ctx, doc, kind)
	if err != nil {
		return err
	}
	if res.OK {
		return nil
	}
	e := schema.NewError(schema.ValidationFailed, path, "%s '%s' does not match the %s schema", kind, path, kind)
	e.Violations = res.Violations
	return e
}
