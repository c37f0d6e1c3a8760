package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sivrad/matrix-tools/schema"
)

func TestResolveParent(t *testing.T) {
	assert := assert.New(t)
	cfg := DefaultConfig()

	root, err := cfg.ResolveParent("")
	require.NoError(t, err)
	assert.Equal(ParentRoot, root.Kind)
	assert.Equal("@sivrad/matrix", root.Package)
	assert.Equal("MatrixBaseType", root.ClassName)
	assert.Equal("SerializedMatrixBaseType", root.SerializedName())
	assert.Equal("@sivrad/matrix", root.Module())

	local, err := cfg.ResolveParent("guinea-pig")
	require.NoError(t, err)
	assert.Equal(ParentLocal, local.Kind)
	assert.Equal(LocalPackage, local.Package)
	assert.Equal("GuineaPig", local.ClassName)
	assert.Equal("./guinea-pig", local.Module())
	assert.True(IsLocal(local.Package))
	assert.True(IsLocal(local.Module()))

	ext, err := cfg.ResolveParent("zoo-pkg.lion")
	require.NoError(t, err)
	assert.Equal(ParentExternal, ext.Kind)
	assert.Equal("@sivrad/matrix-collection-zoo-pkg", ext.Package)
	assert.Equal("Lion", ext.ClassName)
	assert.False(IsLocal(ext.Package))

	again, err := cfg.ResolveParent("zoo-pkg.lion")
	require.NoError(t, err)
	assert.Equal(ext, again)

	for _, bad := range []string{"a.b.c", ".lion", "zoo.", "../lion", "zoo/pkg.lion", "zoo-pkg.../lion", "guinea pig"} {
		_, err := cfg.ResolveParent(bad)
		assert.True(schema.IsKind(err, schema.MalformedParentReference), bad)
	}
}

func TestGeneratorResolveParent(t *testing.T) {
	assert := assert.New(t)

	reg := schema.NewRegistry()
	require.NoError(t, reg.Add(&schema.TypeSchema{Path: "types/animal.json", Name: "animal"}))
	g := NewGenerator(nil, reg)

	ref, err := g.ResolveParent(&schema.TypeSchema{Path: "types/dog.json", Name: "dog", Parent: "animal"})
	require.NoError(t, err)
	assert.Equal("Animal", ref.ClassName)

	_, err = g.ResolveParent(&schema.TypeSchema{Path: "types/dog.json", Name: "dog", Parent: "wolf"})
	assert.True(schema.IsKind(err, schema.UnresolvableParent))

	_, err = g.ResolveParent(&schema.TypeSchema{Path: "types/dog.json", Name: "dog", Parent: "dog"})
	assert.True(schema.IsKind(err, schema.UnresolvableParent))

	_, err = g.ResolveParent(&schema.TypeSchema{Path: "types/dog.json", Name: "dog", Parent: "x.y.z"})
	require.Error(t, err)
	var se *schema.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(schema.MalformedParentReference, se.Kind)
	assert.Equal("types/dog.json", se.Path)
}
