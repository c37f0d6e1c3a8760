// Package build drives one generation run over a collection directory.
//
// A run moves through Init, Loaded, TypesEmitted and Finalized in order. Every type document is
// processed independently: a failure is recorded against its file and the remaining documents are
// still attempted. The index, collection and docs modules are only written once every type succeeded.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sivrad/matrix-tools/gen"
	"github.com/sivrad/matrix-tools/install"
	"github.com/sivrad/matrix-tools/lint"
	"github.com/sivrad/matrix-tools/schema"
)

const (
	SourceDir = "src"
	DocsDir   = "docs"
	DocsFile  = "types.md"
)

type State int

const (
	Init State = iota
	Loaded
	TypesEmitted
	Finalized
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Loaded:
		return "loaded"
	case TypesEmitted:
		return "types-emitted"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

type Options struct {
	// collection directory holding collection.json and types/
	Dir string
	// defaults to Dir
	OutDir string
	Config *gen.Config
	Logger *slog.Logger
	// max type modules emitted concurrently; 0 or less means one
	Jobs int
	// when set, the manifest and every type document are checked before they are normalized
	Validator lint.Validator
	// when set, notified once with the external collection packages after a successful run
	Installer install.Installer
	Docs      bool
}

// Failure is a per-file error.
type Failure struct {
	Path string
	Err  error
}

type Report struct {
	State    State
	Manifest *schema.CollectionManifest
	// every file written, in write order per phase
	Written  []string
	Failures []Failure
	// external collection packages the generated types extend
	Packages []string
}

// Err joins every per-file failure, or returns nil when the run succeeded.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

type Builder struct {
	opts   Options
	logger *slog.Logger
	state  State

	registry *schema.Registry
	gen      *gen.Generator
	report   *Report

	mu       sync.Mutex
	installs sync.WaitGroup
}

func NewBuilder(opts Options) *Builder {
	if opts.Config == nil {
		opts.Config = gen.DefaultConfig()
	}
	if opts.OutDir == "" {
		opts.OutDir = opts.Dir
	}
	if opts.Jobs <= 0 {
		opts.Jobs = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := schema.NewRegistry()
	return &Builder{
		opts:     opts,
		logger:   logger.With("subsystem", "build", "dir", opts.Dir),
		state:    Init,
		registry: reg,
		gen:      gen.NewGenerator(opts.Config, reg),
		report:   &Report{State: Init},
	}
}

func (b *Builder) State() State {
	return b.state
}

// Schemas returns the loaded types in discovery order. Empty before Load.
func (b *Builder) Schemas() []*schema.TypeSchema {
	return b.registry.Schemas()
}

// Run performs a whole generation run. The returned error is only set for failures that stop the run
// outright (an unreadable manifest, a missing types directory); per-file failures are in the report.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	if err := b.Load(ctx); err != nil {
		return b.report, err
	}
	if err := b.EmitTypes(ctx); err != nil {
		return b.report, err
	}
	if err := b.Finalize(ctx); err != nil {
		return b.report, err
	}
	b.notifyInstaller(ctx)
	return b.report, nil
}

func (b *Builder) advance(from, to State) error {
	if b.state != from {
		return fmt.Errorf("build: can not move to %s from %s", to, b.state)
	}
	b.state = to
	b.report.State = to
	b.logger.Debug("build state", "state", to)
	return nil
}

// Load reads the manifest and every type document, then drops types whose names clash.
func (b *Builder) Load(ctx context.Context) error {
	if b.state != Init {
		return fmt.Errorf("build: can not move to %s from %s", Loaded, b.state)
	}

	manifestPath := filepath.Join(b.opts.Dir, schema.CollectionFile)
	doc, err := schema.ReadDocument(manifestPath)
	if err != nil {
		return err
	}
	if b.opts.Validator != nil {
		if err := lint.ValidateDocument(ctx, b.opts.Validator, manifestPath, doc); err != nil {
			return err
		}
	}
	manifest, err := schema.CollectionFromDocument(manifestPath, doc)
	if err != nil {
		return err
	}
	b.report.Manifest = manifest

	docs, other, err := schema.FindTypeFiles(b.opts.Dir)
	if err != nil {
		return fmt.Errorf("listing type documents: %w", err)
	}
	for _, p := range other {
		b.logger.Warn("skipping file with unsupported extension", "path", p)
	}

	for _, p := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := b.loadType(ctx, p)
		if err != nil {
			b.fail(p, err)
			continue
		}
		if err := b.registry.Add(s); err != nil {
			return err
		}
	}
	for _, e := range b.registry.RemoveDuplicates() {
		b.fail(e.Path, e)
	}

	b.logger.Info("loaded collection", "collection", manifest.ID, "types", b.registry.Len(), "failures", len(b.report.Failures))
	return b.advance(Init, Loaded)
}

func (b *Builder) loadType(ctx context.Context, p string) (*schema.TypeSchema, error) {
	doc, err := schema.ReadDocument(p)
	if err != nil {
		return nil, err
	}
	if b.opts.Validator != nil {
		if err := lint.ValidateDocument(ctx, b.opts.Validator, p, doc); err != nil {
			return nil, err
		}
	}
	return schema.TypeFromDocument(p, doc)
}

// EmitTypes resolves and writes the module for every loaded type.
func (b *Builder) EmitTypes(ctx context.Context) error {
	if b.state != Loaded {
		return fmt.Errorf("build: can not move to %s from %s", TypesEmitted, b.state)
	}

	typesDir := filepath.Join(b.opts.OutDir, SourceDir, schema.TypesDir)
	if b.registry.Len() > 0 {
		if err := os.MkdirAll(typesDir, 0o755); err != nil {
			return err
		}
	}

	schemas := b.registry.Schemas()
	errs := make([]error, len(schemas))
	written := make([]string, len(schemas))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.opts.Jobs)
	for i, s := range schemas {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			out := filepath.Join(typesDir, gen.ModuleFile(s.Name))
			if err := b.emitType(s, out); err != nil {
				errs[i] = err
				return nil
			}
			written[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, s := range schemas {
		if errs[i] != nil {
			b.fail(s.Path, errs[i])
			continue
		}
		b.report.Written = append(b.report.Written, written[i])
		b.logger.Debug("wrote type module", "type", s.Name, "path", written[i])
	}
	return b.advance(Loaded, TypesEmitted)
}

func (b *Builder) emitType(s *schema.TypeSchema, out string) error {
	parent, err := b.gen.ResolveParent(s)
	if err != nil {
		return err
	}
	src, err := b.gen.EmitClass(s, parent, gen.NewImportSet())
	if err != nil {
		return err
	}
	return os.WriteFile(out, src, 0o644)
}

// Finalize writes the aggregation modules. It is a no-op that leaves the run in TypesEmitted when any
// file failed.
func (b *Builder) Finalize(ctx context.Context) error {
	if b.state != TypesEmitted {
		return fmt.Errorf("build: can not move to %s from %s", Finalized, b.state)
	}
	if len(b.report.Failures) > 0 {
		b.logger.Warn("not writing index and collection modules", "failures", len(b.report.Failures))
		return nil
	}

	schemas := b.registry.Schemas()
	srcDir := filepath.Join(b.opts.OutDir, SourceDir)
	files := []struct {
		path string
		body []byte
	}{
		{filepath.Join(srcDir, schema.TypesDir, "index.ts"), gen.EmitIndex(schemas)},
		{filepath.Join(srcDir, "index.ts"), gen.EmitPackageIndex()},
		{filepath.Join(srcDir, "collection.ts"), b.gen.EmitCollection(b.report.Manifest, schemas)},
	}
	if b.opts.Docs {
		docs, err := b.gen.EmitDocs(b.report.Manifest, schemas)
		if err != nil {
			return fmt.Errorf("rendering docs: %w", err)
		}
		files = append(files, struct {
			path string
			body []byte
		}{filepath.Join(b.opts.OutDir, DocsDir, DocsFile), docs})
	}

	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(f.path, f.body, 0o644); err != nil {
			return err
		}
		b.report.Written = append(b.report.Written, f.path)
	}
	b.report.Packages = b.externalPackages()

	b.logger.Info("generated collection", "collection", b.report.Manifest.ID, "types", len(schemas), "files", len(b.report.Written))
	return b.advance(TypesEmitted, Finalized)
}

// externalPackages is the sorted union of the packages any type's parent lives in, other than the
// root package and the local one.
func (b *Builder) externalPackages() []string {
	pkgs := []string{}
	for _, s := range b.registry.Schemas() {
		ref, err := b.opts.Config.ResolveParent(s.Parent)
		if err != nil || ref.Kind != gen.ParentExternal {
			continue
		}
		if !slices.Contains(pkgs, ref.Package) {
			pkgs = append(pkgs, ref.Package)
		}
	}
	slices.Sort(pkgs)
	return pkgs
}

// notifyInstaller hands the external packages to the installer without waiting for it; its outcome is
// only logged. See Wait.
func (b *Builder) notifyInstaller(ctx context.Context) {
	if b.opts.Installer == nil || b.state != Finalized || len(b.report.Packages) == 0 {
		return
	}
	pkgs := slices.Clone(b.report.Packages)
	ctx = context.WithoutCancel(ctx)
	b.installs.Add(1)
	go func() {
		defer b.installs.Done()
		if err := b.opts.Installer.Install(ctx, pkgs, b.opts.OutDir); err != nil {
			b.logger.Warn("failed to install collection packages", "packages", pkgs, "err", err)
			return
		}
		b.logger.Info("installed collection packages", "packages", pkgs)
	}()
}

// Wait blocks until a pending install notification has finished.
func (b *Builder) Wait() {
	b.installs.Wait()
}

func (b *Builder) fail(path string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger.Debug("type failed", "path", path, "err", err)
	b.report.Failures = append(b.report.Failures, Failure{Path: path, Err: err})
}
