package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sivrad/matrix-tools/lint"
	"github.com/sivrad/matrix-tools/schema"
)

func writeCollection(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func zooFiles() map[string]string {
	return map[string]string{
		"collection.json":   `{"id": "zoo", "label": "Zoo", "description": "d"}`,
		"types/animal.json": `{"name": "animal", "isAbstract": true}`,
		"types/dog.json":    `{"name": "dog", "parent": "animal", "fields": {"legs": {"type": "number", "defaultValue": 4}}}`,
		"types/cat.json":    `{"name": "cat", "parent": "zoo-pkg.lion", "fields": {}}`,
	}
}

func readOutput(t *testing.T, dir string, parts ...string) string {
	b, err := os.ReadFile(filepath.Join(append([]string{dir}, parts...)...))
	require.NoError(t, err)
	return string(b)
}

func TestBuildZoo(t *testing.T) {
	assert := assert.New(t)
	dir := writeCollection(t, zooFiles())

	b := NewBuilder(Options{Dir: dir})
	rep, err := b.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, rep.Err())
	assert.Equal(Finalized, b.State())
	assert.Equal(Finalized, rep.State)
	assert.Equal("zoo", rep.Manifest.ID)
	assert.Equal([]string{"@sivrad/matrix-collection-zoo-pkg"}, rep.Packages)
	assert.Len(rep.Written, 6)

	animal := readOutput(t, dir, "src", "types", "animal.ts")
	assert.Contains(animal, "export type SerializedAnimal = SerializedMatrixBaseType;\n")
	assert.Contains(animal, "export class Animal extends MatrixBaseType {\n")
	assert.Contains(animal, "static classFields: Record<string, Field> = {};\n")

	dog := readOutput(t, dir, "src", "types", "dog.ts")
	assert.Contains(dog, "import { Animal, SerializedAnimal } from './animal';\n")
	assert.Contains(dog, "export interface SerializedDog extends SerializedAnimal {\n")
	assert.Contains(dog, "    legs?: number;\n")
	assert.Contains(dog, "export class Dog extends Animal {\n")
	assert.Contains(dog, "    getLegs(): number {\n")
	assert.Contains(dog, "    setLegs(value: number): void {\n")

	cat := readOutput(t, dir, "src", "types", "cat.ts")
	assert.Contains(cat, "import { Lion, SerializedLion } from '@sivrad/matrix-collection-zoo-pkg';\n")
	assert.Contains(cat, "export type SerializedCat = SerializedLion;\n")
	assert.Contains(cat, "export class Cat extends Lion {\n")

	index := readOutput(t, dir, "src", "types", "index.ts")
	assert.Contains(index, "export { Animal, SerializedAnimal } from './animal';\n"+
		"export { Cat, SerializedCat } from './cat';\n"+
		"export { Dog, SerializedDog } from './dog';\n")

	coll := readOutput(t, dir, "src", "collection.ts")
	assert.Contains(coll, "import { Animal, Cat, Dog } from './types';\n")
	assert.Contains(coll, "    [Animal, Cat, Dog],\n")

	pkgIndex := readOutput(t, dir, "src", "index.ts")
	assert.Contains(pkgIndex, "export * from './types';\n")

	_, err = os.Stat(filepath.Join(dir, DocsDir, DocsFile))
	assert.True(os.IsNotExist(err))
}

func TestBuildDeterministic(t *testing.T) {
	outA := t.TempDir()
	outB := t.TempDir()
	dir := writeCollection(t, zooFiles())

	_, err := NewBuilder(Options{Dir: dir, OutDir: outA, Jobs: 1}).Run(context.Background())
	require.NoError(t, err)
	_, err = NewBuilder(Options{Dir: dir, OutDir: outB, Jobs: 4}).Run(context.Background())
	require.NoError(t, err)

	for _, p := range [][]string{
		{"src", "types", "animal.ts"},
		{"src", "types", "dog.ts"},
		{"src", "types", "cat.ts"},
		{"src", "types", "index.ts"},
		{"src", "collection.ts"},
	} {
		assert.Equal(t, readOutput(t, outA, p...), readOutput(t, outB, p...), filepath.Join(p...))
	}
}

func TestBuildDocs(t *testing.T) {
	dir := writeCollection(t, zooFiles())

	_, err := NewBuilder(Options{Dir: dir, Docs: true}).Run(context.Background())
	require.NoError(t, err)
	docs := readOutput(t, dir, DocsDir, DocsFile)
	assert.Contains(t, docs, "# Zoo\n")
	assert.Contains(t, docs, "| Dog | Animal | no |")
}

func TestBuildDuplicateType(t *testing.T) {
	assert := assert.New(t)
	files := zooFiles()
	files["types/hound.json"] = `{"name": "dog", "parent": "animal"}`
	dir := writeCollection(t, files)

	b := NewBuilder(Options{Dir: dir})
	rep, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(TypesEmitted, b.State())

	require.Len(t, rep.Failures, 1)
	var se *schema.Error
	require.ErrorAs(t, rep.Failures[0].Err, &se)
	assert.Equal(schema.DuplicateType, se.Kind)
	assert.ElementsMatch([]string{
		filepath.Join(dir, "types", "dog.json"),
		filepath.Join(dir, "types", "hound.json"),
	}, se.Paths)
	assert.True(schema.IsKind(rep.Err(), schema.DuplicateType))

	for _, p := range []string{"dog.ts", "hound.ts", "index.ts"} {
		_, err := os.Stat(filepath.Join(dir, "src", "types", p))
		assert.True(os.IsNotExist(err), p)
	}
	_, err = os.Stat(filepath.Join(dir, "src", "collection.ts"))
	assert.True(os.IsNotExist(err))

	// unrelated types are still emitted
	_, err = os.Stat(filepath.Join(dir, "src", "types", "animal.ts"))
	assert.NoError(err)
}

func TestBuildCollectsEveryFailure(t *testing.T) {
	assert := assert.New(t)
	files := zooFiles()
	files["types/bird.json"] = `{"name": "bird", "fields": {"wing": {"type": "feather"}}}`
	files["types/fish.json"] = `{"name": "fish", "parent": "a.b.c"}`
	files["types/broken.json"] = `{"name": `
	files["types/nameless.json"] = `{"label": "Nameless"}`
	files["types/orphan.json"] = `{"name": "orphan", "parent": "ghost"}`
	files["types/readme.md"] = `# not a type`
	dir := writeCollection(t, files)

	rep, err := NewBuilder(Options{Dir: dir, Jobs: 3}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(TypesEmitted, rep.State)

	kinds := map[string]schema.ErrorKind{}
	for _, f := range rep.Failures {
		var se *schema.Error
		require.ErrorAs(t, f.Err, &se)
		kinds[filepath.Base(f.Path)] = se.Kind
	}
	assert.Equal(map[string]schema.ErrorKind{
		"bird.json":     schema.UnresolvableFieldType,
		"fish.json":     schema.MalformedParentReference,
		"broken.json":   schema.MalformedDocument,
		"nameless.json": schema.MissingRequiredField,
		"orphan.json":   schema.UnresolvableParent,
	}, kinds)

	for _, name := range []string{"animal.ts", "dog.ts", "cat.ts"} {
		_, err := os.Stat(filepath.Join(dir, "src", "types", name))
		assert.NoError(err, name)
	}
	_, err = os.Stat(filepath.Join(dir, "src", "types", "index.ts"))
	assert.True(os.IsNotExist(err))
}

func TestBuildMissingManifest(t *testing.T) {
	dir := writeCollection(t, map[string]string{
		"types/dog.json": `{"name": "dog"}`,
	})
	b := NewBuilder(Options{Dir: dir})
	_, err := b.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Init, b.State())
}

func TestBuildStateOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	b := NewBuilder(Options{Dir: writeCollection(t, zooFiles())})

	assert.Error(b.EmitTypes(ctx))
	assert.Error(b.Finalize(ctx))
	require.NoError(t, b.Load(ctx))
	assert.Equal(Loaded, b.State())
	assert.Error(b.Load(ctx))
	require.NoError(t, b.EmitTypes(ctx))
	require.NoError(t, b.Finalize(ctx))
	assert.Equal(Finalized, b.State())
}

type fakeInstaller struct {
	mu    sync.Mutex
	calls [][]string
	dir   string
	err   error
}

func (fi *fakeInstaller) Install(ctx context.Context, packages []string, dir string) error {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.calls = append(fi.calls, packages)
	fi.dir = dir
	return fi.err
}

func TestBuildInstall(t *testing.T) {
	assert := assert.New(t)
	dir := writeCollection(t, zooFiles())

	fi := &fakeInstaller{}
	b := NewBuilder(Options{Dir: dir, Installer: fi})
	_, err := b.Run(context.Background())
	require.NoError(t, err)
	b.Wait()
	assert.Equal([][]string{{"@sivrad/matrix-collection-zoo-pkg"}}, fi.calls)
	assert.Equal(dir, fi.dir)

	failing := &fakeInstaller{err: errors.New("yarn exploded")}
	b = NewBuilder(Options{Dir: writeCollection(t, zooFiles()), Installer: failing})
	rep, err := b.Run(context.Background())
	b.Wait()
	require.NoError(t, err)
	assert.NoError(rep.Err())
	assert.Len(failing.calls, 1)
}

func TestBuildInstallSkippedOnFailure(t *testing.T) {
	files := zooFiles()
	files["types/bird.json"] = `{"name": "bird", "fields": {"wing": {"type": "feather"}}}`
	fi := &fakeInstaller{}
	b := NewBuilder(Options{Dir: writeCollection(t, files), Installer: fi})
	_, err := b.Run(context.Background())
	require.NoError(t, err)
	b.Wait()
	assert.Empty(t, fi.calls)
}

type rejectingValidator struct {
	reject string
}

func (rv rejectingValidator) Validate(ctx context.Context, doc *schema.Object, kind lint.Kind) (*lint.ValidationResult, error) {
	if name, _ := doc.Get("name"); name == rv.reject {
		return &lint.ValidationResult{Violations: []schema.Violation{
			{InstanceLocation: "/fields", KeywordLocation: "/properties/fields/type", Message: "expected object"},
		}}, nil
	}
	return &lint.ValidationResult{OK: true}, nil
}

func TestBuildValidationGate(t *testing.T) {
	assert := assert.New(t)
	dir := writeCollection(t, zooFiles())

	rep, err := NewBuilder(Options{Dir: dir, Validator: rejectingValidator{reject: "cat"}}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Failures, 1)
	assert.Equal(filepath.Join(dir, "types", "cat.json"), rep.Failures[0].Path)

	var se *schema.Error
	require.ErrorAs(t, rep.Failures[0].Err, &se)
	assert.Equal(schema.ValidationFailed, se.Kind)
	assert.Equal("/fields: expected object", se.Violations[0].String())
}

func TestBuildClassNameClash(t *testing.T) {
	assert := assert.New(t)
	files := zooFiles()
	files["types/big-cat.json"] = `{"name": "big-cat", "parent": "animal"}`
	files["types/bigCat.json"] = `{"name": "bigCat", "parent": "animal"}`
	dir := writeCollection(t, files)

	rep, err := NewBuilder(Options{Dir: dir}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(TypesEmitted, rep.State)

	require.Len(t, rep.Failures, 1)
	var se *schema.Error
	require.ErrorAs(t, rep.Failures[0].Err, &se)
	assert.Equal(schema.DuplicateType, se.Kind)
	assert.Len(se.Paths, 2)
	for _, p := range []string{"big-cat.ts", "bigCat.ts"} {
		_, err := os.Stat(filepath.Join(dir, "src", "types", p))
		assert.True(os.IsNotExist(err), p)
	}
}

func TestBuildRejectsPathLikeName(t *testing.T) {
	assert := assert.New(t)
	files := zooFiles()
	files["types/evil.json"] = `{"name": "../../escaped"}`
	dir := writeCollection(t, files)

	rep, err := NewBuilder(Options{Dir: dir}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Failures, 1)
	assert.Equal("evil.json", filepath.Base(rep.Failures[0].Path))
	assert.True(schema.IsKind(rep.Failures[0].Err, schema.MalformedDocument))

	for _, p := range []string{filepath.Join(dir, "escaped.ts"), filepath.Join(dir, "src", "escaped.ts")} {
		_, err := os.Stat(p)
		assert.True(os.IsNotExist(err), p)
	}
}

func TestBuildAliasesClashingParent(t *testing.T) {
	assert := assert.New(t)
	files := zooFiles()
	files["types/lion.json"] = `{"name": "lion", "parent": "zoo-pkg.lion"}`
	dir := writeCollection(t, files)

	b := NewBuilder(Options{Dir: dir})
	rep, err := b.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, rep.Err())
	assert.Equal(Finalized, b.State())

	lion := readOutput(t, dir, "src", "types", "lion.ts")
	assert.Contains(lion, "import { Lion as ZooPkgLion, SerializedLion as SerializedZooPkgLion } from '@sivrad/matrix-collection-zoo-pkg';\n")
	assert.Contains(lion, "export class Lion extends ZooPkgLion {\n")
}
