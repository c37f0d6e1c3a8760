package gen

import (
	"bytes"
	"strings"

	"github.com/sivrad/matrix-tools/schema"
)

const (
	// module of the types index, relative to the package source root
	TypesModule = "./types"
	// module of the collection instance, relative to the package source root
	CollectionModule = "./collection"
)

const generatedHeader = "// Code generated by matrix. DO NOT EDIT.\n\n"

// EmitIndex renders the types index: one re-export line per type, in the order given (discovery order).
func EmitIndex(schemas []*schema.TypeSchema) []byte {
	buf := new(bytes.Buffer)
	pf := printerf(buf)
	pf(generatedHeader)
	for _, s := range schemas {
		cls := ClassName(s.Name)
		pf("export { %s, %s } from %s;\n", cls, SerializedName(cls), tsString(LocalModule(s.Name)))
	}
	return buf.Bytes()
}

// EmitPackageIndex renders the package entrypoint re-exporting the types and the collection.
func EmitPackageIndex() []byte {
	buf := new(bytes.Buffer)
	pf := printerf(buf)
	pf(generatedHeader)
	pf("export * from %s;\n", tsString(TypesModule))
	pf("export { collection } from %s;\n", tsString(CollectionModule))
	return buf.Bytes()
}

// EmitCollection renders the module instantiating the collection descriptor from the manifest and every type.
func (g *Generator) EmitCollection(manifest *schema.CollectionManifest, schemas []*schema.TypeSchema) []byte {
	classes := make([]string, len(schemas))
	for i, s := range schemas {
		classes[i] = ClassName(s.Name)
	}

	imports := NewImportSet().Add(g.Config.RootPackage, "Collection")
	if len(classes) > 0 {
		imports.Add(TypesModule, classes...)
	}

	buf := new(bytes.Buffer)
	pf := printerf(buf)
	pf(generatedHeader)
	pf("%s\n", imports)
	pf("/**\n * The %s Collection instance.\n */\n", docText(manifest.Label))
	pf("export const collection = new Collection(\n")
	pf("    %s,\n", tsString(manifest.ID))
	pf("    %s,\n", tsString(manifest.Label))
	pf("    %s,\n", tsString(manifest.Description))
	pf("    %s,\n", tsString(manifest.Icon))
	pf("    [%s],\n", strings.Join(classes, ", "))
	pf(");\n")
	return buf.Bytes()
}
