// Package lint checks a matrix collection directory: file layout, document syntax, structural
// conventions and (optionally) conformance to the remote collection and type JSON-Schemas.
package lint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sivrad/matrix-tools/gen"
	"github.com/sivrad/matrix-tools/schema"
)

type LintIssue struct {
	FilePath        string `json:"file-path,omitempty"`
	TypeName        string `json:"type-name,omitempty"`
	LintLevel       string `json:"lint-level,omitempty"`
	LintName        string `json:"lint-name,omitempty"`
	LintDescription string `json:"lint-description,omitempty"`
	Message         string `json:"message,omitempty"`
}

func (iss LintIssue) String() string {
	name := iss.FilePath
	if iss.TypeName != "" {
		name = fmt.Sprintf("%s (%s)", iss.FilePath, iss.TypeName)
	}
	return fmt.Sprintf("[%s] %s: %s: %s", iss.LintLevel, name, iss.LintName, iss.Message)
}

// HasErrors reports whether any issue is at error level.
func HasErrors(issues []LintIssue) bool {
	for _, iss := range issues {
		if iss.LintLevel == "error" {
			return true
		}
	}
	return false
}

type Linter struct {
	Config *gen.Config
	// nil skips remote schema validation
	Validator Validator
	Logger    *slog.Logger
}

func NewLinter(cfg *gen.Config, v Validator) *Linter {
	if cfg == nil {
		cfg = gen.DefaultConfig()
	}
	return &Linter{
		Config:    cfg,
		Validator: v,
		Logger:    slog.Default().With("subsystem", "lint"),
	}
}

// LintDir checks a whole collection directory. Only failures to run the checks are returned as errors;
// everything wrong with the directory itself is reported as issues.
func (l *Linter) LintDir(ctx context.Context, dir string) ([]LintIssue, error) {
	issues := []LintIssue{}

	manifest := filepath.Join(dir, schema.CollectionFile)
	if _, err := os.Stat(manifest); err != nil {
		issues = append(issues, LintIssue{
			FilePath:        manifest,
			LintLevel:       "error",
			LintName:        "file-not-found",
			LintDescription: "a collection directory must contain a manifest",
			Message:         fmt.Sprintf("could not find '%s'", manifest),
		})
	} else {
		fiss, err := l.LintFile(ctx, manifest)
		if err != nil {
			return nil, err
		}
		issues = append(issues, fiss...)
	}

	docs, other, err := schema.FindTypeFiles(dir)
	if errors.Is(err, os.ErrNotExist) {
		issues = append(issues, LintIssue{
			FilePath:        filepath.Join(dir, schema.TypesDir),
			LintLevel:       "error",
			LintName:        "directory-not-found",
			LintDescription: "a collection directory must contain a types directory",
			Message:         fmt.Sprintf("could not find '%s'", filepath.Join(dir, schema.TypesDir)),
		})
		return issues, nil
	} else if err != nil {
		return nil, err
	}

	for _, p := range other {
		issues = append(issues, LintIssue{
			FilePath:        p,
			LintLevel:       "error",
			LintName:        "invalid-file-format",
			LintDescription: "type documents must be JSON or YAML",
			Message:         fmt.Sprintf("unsupported file extension '%s'", filepath.Ext(p)),
		})
	}
	for _, p := range docs {
		fiss, err := l.LintFile(ctx, p)
		if err != nil {
			return nil, err
		}
		issues = append(issues, fiss...)
	}
	return issues, nil
}

// LintFile checks a single manifest or type document; its kind is inferred from the path.
func (l *Linter) LintFile(ctx context.Context, path string) ([]LintIssue, error) {
	kind, ok := InferKind(path)
	if !ok {
		return []LintIssue{{
			FilePath:        path,
			LintLevel:       "error",
			LintName:        "invalid-file-format",
			LintDescription: "type documents must be JSON or YAML",
			Message:         fmt.Sprintf("unsupported file extension '%s'", filepath.Ext(path)),
		}}, nil
	}

	doc, err := schema.ReadDocument(path)
	if err != nil {
		if !schema.IsKnown(err) {
			return nil, err
		}
		return []LintIssue{issueFromError(path, err)}, nil
	}

	issues := []LintIssue{}
	if l.Validator != nil {
		err := ValidateDocument(ctx, l.Validator, path, doc)
		var se *schema.Error
		if errors.As(err, &se) && se.Kind == schema.ValidationFailed {
			for _, v := range se.Violations {
				issues = append(issues, LintIssue{
					FilePath:        path,
					LintLevel:       "error",
					LintName:        "schema-validation",
					LintDescription: fmt.Sprintf("document must match the %s schema", kind),
					Message:         v.String(),
				})
			}
		} else if err != nil {
			return nil, err
		}
	}

	switch kind {
	case KindCollection:
		issues = append(issues, l.lintCollection(path, doc)...)
	case KindType:
		issues = append(issues, l.lintType(path, doc)...)
	}
	l.Logger.Debug("linted document", "path", path, "kind", kind, "issues", len(issues))
	return issues, nil
}

func (l *Linter) lintCollection(path string, doc *schema.Object) []LintIssue {
	c, err := schema.CollectionFromDocument(path, doc)
	if err != nil {
		return []LintIssue{issueFromError(path, err)}
	}
	issues := []LintIssue{}
	if err := CheckTypeName(c.ID); err != nil {
		issues = append(issues, LintIssue{
			FilePath:        path,
			LintLevel:       "warn",
			LintName:        "collection-id-syntax",
			LintDescription: "collection id does not follow syntax guidance",
			Message:         fmt.Sprintf("%s: %s", err.Error(), c.ID),
		})
	}
	if !doc.Has("description") {
		issues = append(issues, missingDescription(path, ""))
	}
	return issues
}

func (l *Linter) lintType(path string, doc *schema.Object) []LintIssue {
	s, err := schema.TypeFromDocument(path, doc)
	if err != nil {
		return []LintIssue{issueFromError(path, err)}
	}
	issues := []LintIssue{}

	if err := CheckTypeName(s.Name); err != nil {
		issues = append(issues, LintIssue{
			FilePath:        path,
			TypeName:        s.Name,
			LintLevel:       "warn",
			LintName:        "type-name-syntax",
			LintDescription: "type name does not follow syntax guidance",
			Message:         fmt.Sprintf("%s: %s", err.Error(), s.Name),
		})
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if base != s.Name {
		issues = append(issues, LintIssue{
			FilePath:        path,
			TypeName:        s.Name,
			LintLevel:       "warn",
			LintName:        "file-name-mismatch",
			LintDescription: "type documents should be named after the type they declare",
			Message:         fmt.Sprintf("expected file name '%s'", s.Name+filepath.Ext(path)),
		})
	}
	if !doc.Has("description") {
		issues = append(issues, missingDescription(path, s.Name))
	}
	if _, err := l.Config.ResolveParent(s.Parent); err != nil {
		issues = append(issues, LintIssue{
			FilePath:        path,
			TypeName:        s.Name,
			LintLevel:       "error",
			LintName:        "malformed-parent",
			LintDescription: "parent must be '<type>' or '<package>.<type>'",
			Message:         fmt.Sprintf("parent: %s", s.Parent),
		})
	}
	for _, f := range s.Fields {
		if err := CheckFieldName(f.Key); err != nil {
			issues = append(issues, LintIssue{
				FilePath:        path,
				TypeName:        s.Name,
				LintLevel:       "warn",
				LintName:        "field-name-syntax",
				LintDescription: "field name does not follow syntax guidance",
				Message:         fmt.Sprintf("%s: %s", err.Error(), f.Key),
			})
		}
	}
	return issues
}

func missingDescription(path, typeName string) LintIssue {
	return LintIssue{
		FilePath:        path,
		TypeName:        typeName,
		LintLevel:       "warn",
		LintName:        "missing-description",
		LintDescription: "collections and types should include a description",
		Message:         "missing a description",
	}
}

func issueFromError(path string, err error) LintIssue {
	name := "invalid-document"
	var se *schema.Error
	if errors.As(err, &se) {
		name = kebab(string(se.Kind))
	}
	return LintIssue{
		FilePath:        path,
		LintLevel:       "error",
		LintName:        name,
		LintDescription: "document could not be loaded",
		Message:         err.Error(),
	}
}

// kebab turns an error kind like "MissingRequiredField" into "missing-required-field".
func kebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
