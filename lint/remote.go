package lint

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sivrad/matrix-tools/pkg/robusthttp"
	"github.com/sivrad/matrix-tools/schema"
)

const (
	DefaultCollectionSchemaURL = "https://raw.githubusercontent.com/sivrad/matrix-schema/main/collection.json"
	DefaultTypeSchemaURL       = "https://raw.githubusercontent.com/sivrad/matrix-schema/main/type.json"
)

// DefaultCacheDir is where fetched schemas are kept between runs.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "matrix", "schemas")
}

// DefaultMaxSchemaSize caps the body of a fetched schema.
const DefaultMaxSchemaSize = 4 << 20

// RemoteValidator checks documents against JSON-Schema documents fetched over HTTP.
//
// Fetched schemas are written to CacheDir (when set) and compiled schemas are kept in memory, so a
// run fetches each URL at most once.
type RemoteValidator struct {
	Client   *http.Client
	URLs     map[Kind]string
	CacheDir string
	Logger   *slog.Logger

	// fetched schemas larger than this are rejected
	MaxSchemaSize int64

	compiled *lru.Cache[string, *jsonschema.Schema]
}

func NewRemoteValidator(client *http.Client, cacheDir string) *RemoteValidator {
	if client == nil {
		client = robusthttp.NewClient()
	}
	compiled, _ := lru.New[string, *jsonschema.Schema](32)
	return &RemoteValidator{
		Client: client,
		URLs: map[Kind]string{
			KindCollection: DefaultCollectionSchemaURL,
			KindType:       DefaultTypeSchemaURL,
		},
		CacheDir:      cacheDir,
		Logger:        slog.Default().With("subsystem", "validator"),
		MaxSchemaSize: DefaultMaxSchemaSize,
		compiled:      compiled,
	}
}

func (rv *RemoteValidator) Validate(ctx context.Context, doc *schema.Object, kind Kind) (*ValidationResult, error) {
	u, ok := rv.URLs[kind]
	if !ok || u == "" {
		return nil, fmt.Errorf("no schema configured for %s documents", kind)
	}
	sch, err := rv.schema(ctx, u)
	if err != nil {
		return nil, err
	}

	err = sch.Validate(schema.Plain(doc))
	if err == nil {
		return &ValidationResult{OK: true}, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating against %s: %w", u, err)
	}
	return &ValidationResult{Violations: violations(ve)}, nil
}

func (rv *RemoteValidator) schema(ctx context.Context, u string) (*jsonschema.Schema, error) {
	if sch, ok := rv.compiled.Get(u); ok {
		return sch, nil
	}

	c := jsonschema.NewCompiler()
	c.LoadURL = func(s string) (io.ReadCloser, error) {
		b, err := rv.fetch(ctx, s)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	sch, err := c.Compile(u)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", u, err)
	}
	rv.compiled.Add(u, sch)
	return sch, nil
}

// fetch returns the body at u, from the disk cache when present.
func (rv *RemoteValidator) fetch(ctx context.Context, u string) ([]byte, error) {
	var cachePath string
	if rv.CacheDir != "" {
		sum := sha256.Sum256([]byte(u))
		cachePath = filepath.Join(rv.CacheDir, hex.EncodeToString(sum[:])+".json")
		if b, err := os.ReadFile(cachePath); err == nil {
			rv.Logger.Debug("schema cache hit", "url", u, "path", cachePath)
			return b, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := rv.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching schema %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching schema %s: HTTP status %d", u, resp.StatusCode)
	}
	limit := rv.MaxSchemaSize
	if limit <= 0 {
		limit = DefaultMaxSchemaSize
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetching schema %s: %w", u, err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("fetching schema %s: schema too large (over %d bytes)", u, limit)
	}
	rv.Logger.Debug("fetched schema", "url", u, "size", len(b))

	if cachePath != "" {
		if err := os.MkdirAll(rv.CacheDir, 0o755); err != nil {
			rv.Logger.Warn("could not create schema cache", "dir", rv.CacheDir, "err", err)
		} else if err := os.WriteFile(cachePath, b, 0o644); err != nil {
			rv.Logger.Warn("could not cache schema", "path", cachePath, "err", err)
		}
	}
	return b, nil
}

// violations flattens the validation error tree into its leaves.
func violations(ve *jsonschema.ValidationError) []schema.Violation {
	if len(ve.Causes) == 0 {
		return []schema.Violation{{
			InstanceLocation: ve.InstanceLocation,
			KeywordLocation:  ve.KeywordLocation,
			Message:          strings.TrimSpace(ve.Message),
		}}
	}
	var out []schema.Violation
	for _, c := range ve.Causes {
		out = append(out, violations(c)...)
	}
	return out
}
