package gen

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sivrad/matrix-tools/schema"
)

// Generator renders the modules of one package.
type Generator struct {
	Config *Config
	// types generated alongside; field references to these become local imports
	Types TypeSet
}

func NewGenerator(cfg *Config, types TypeSet) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Generator{
		Config: cfg,
		Types:  types,
	}
}

// ResolveParent resolves a schema's parent reference, checking that local parents are part of the package.
func (g *Generator) ResolveParent(s *schema.TypeSchema) (ParentRef, error) {
	ref, err := g.Config.ResolveParent(s.Parent)
	if err != nil {
		var se *schema.Error
		if errors.As(err, &se) {
			se.Path = s.Path
			se.Message = fmt.Sprintf("%s (type '%s' in '%s')", se.Message, s.Name, s.Path)
		}
		return ParentRef{}, err
	}
	if ref.Kind != ParentLocal {
		return ref, nil
	}
	if ref.Type == s.Name {
		return ParentRef{}, schema.NewError(schema.UnresolvableParent, s.Path, "type '%s' can not extend itself in '%s'", s.Name, s.Path)
	}
	if g.Types != nil {
		if _, ok := g.Types.Resolve(ref.Type); !ok {
			return ParentRef{}, schema.NewError(schema.UnresolvableParent, s.Path, "parent type '%s' of '%s' is not defined in this package ('%s')", ref.Type, s.Name, s.Path)
		}
	}
	return ref, nil
}

// ClassName is the generated class for a type name.
func ClassName(typeName string) string {
	return schema.FormatAsClassName(typeName)
}

// ModuleFile is the file name of the generated module for a type.
func ModuleFile(typeName string) string {
	return typeName + ".ts"
}

// EmitClass renders the module for one type: its serialized-data contract and its class.
// The parent must already be resolved; imports collects everything the module needs.
func (g *Generator) EmitClass(s *schema.TypeSchema, parent ParentRef, imports *ImportSet) ([]byte, error) {
	className := ClassName(s.Name)
	serialized := SerializedName(className)
	imports.Reserve(className, serialized)

	if err := checkAccessors(s); err != nil {
		return nil, err
	}

	parentClass, err := imports.Bind(parent.Module(), parent.ClassName, g.ImportAlias(parent.Module(), parent.ClassName))
	if err != nil {
		return nil, schema.NewError(schema.UnresolvableParent, s.Path, "parent of type '%s' in '%s': %s", s.Name, s.Path, err)
	}
	parentSerialized, err := imports.Bind(parent.Module(), parent.SerializedName(), SerializedName(g.ImportAlias(parent.Module(), parent.ClassName)))
	if err != nil {
		return nil, schema.NewError(schema.UnresolvableParent, s.Path, "parent of type '%s' in '%s': %s", s.Name, s.Path, err)
	}
	fieldClass, err := imports.Bind(g.Config.RootPackage, "Field", g.ImportAlias(g.Config.RootPackage, "Field"))
	if err != nil {
		return nil, schema.NewError(schema.MalformedDocument, s.Path, "type '%s' in '%s': %s", s.Name, s.Path, err)
	}

	exprs, err := g.ScanFieldTypes(s, imports)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	pf := printerf(buf)

	pf("// Code generated by matrix from %s. DO NOT EDIT.\n\n", filepath.Base(s.Path))
	pf("%s\n", imports)

	pf("/**\n * Serialized %s.\n */\n", docText(s.Label))
	if len(s.Fields) == 0 {
		pf("export type %s = %s;\n\n", serialized, parentSerialized)
	} else {
		pf("export interface %s extends %s {\n", serialized, parentSerialized)
		for _, f := range s.Fields {
			opt := "?"
			if f.Required {
				opt = ""
			}
			pf("    /**\n     * %s\n     */\n", docText(f.Description))
			pf("    %s%s: %s;\n", tsKey(f.Key), opt, exprs[f.Key])
		}
		pf("}\n\n")
	}

	pf("/**\n * Matrix Type %s.\n *\n * %s\n */\n", docText(s.Label), docText(s.Description))
	pf("export class %s extends %s {\n", className, parentClass)
	writeClassFields(pf, s, fieldClass)
	pf("    public static _classInformation = {\n")
	pf("        name: %s,\n", tsString(s.Name))
	pf("        label: %s,\n", tsString(s.Label))
	pf("        description: %s,\n", tsString(s.Description))
	pf("        icon: '',\n")
	if s.IsAbstract {
		pf("        isAbstract: true,\n")
	}
	pf("    };\n\n")

	methods := []string{}
	ctor, err := generateMethod(method{
		Name:        "constructor",
		Description: fmt.Sprintf("Constructor for the %s.", docText(s.Label)),
		Args:        []methodArg{{Name: "data", Type: serialized, Description: "Serialized data."}},
		Code:        "super(data);",
		Constructor: true,
	})
	if err != nil {
		return nil, err
	}
	methods = append(methods, ctor)

	typeClass, err := generateMethod(method{
		Name:        "getTypeClass",
		Description: "Get the class of the type.",
		Returns:     &methodReturn{Type: "typeof " + className, Description: "The type class."},
		Code:        fmt.Sprintf("return %s;", className),
		Access:      "protected",
	})
	if err != nil {
		return nil, err
	}
	methods = append(methods, typeClass)

	for _, f := range s.Fields {
		fm, err := generateFieldMethods(f, exprs[f.Key])
		if err != nil {
			return nil, err
		}
		methods = append(methods, fm...)
	}
	pf("%s\n", strings.Join(methods, "\n\n"))
	pf("}\n")

	return buf.Bytes(), nil
}

func writeClassFields(pf func(string, ...any), s *schema.TypeSchema, fieldClass string) {
	if len(s.Fields) == 0 {
		pf("    static classFields: Record<string, %s> = {};\n", fieldClass)
		return
	}
	pf("    static classFields: Record<string, %s> = {\n", fieldClass)
	for _, f := range s.Fields {
		pf("        %s: {\n", tsKey(f.Key))
		pf("            type: %s,\n", tsString(f.Type))
		pf("            label: %s,\n", tsString(f.Label))
		pf("            description: %s,\n", tsString(f.Description))
		pf("            defaultValue: %s,\n", tsLiteral(f.DefaultValue))
		pf("            required: %t,\n", f.Required)
		pf("        },\n")
	}
	pf("    };\n")
}

// checkAccessors rejects field keys that would produce the same accessor pair, e.g. "first-name" and "firstName".
func checkAccessors(s *schema.TypeSchema) error {
	seen := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		suffix := schema.FormatAsClassName(f.Key)
		if prev, ok := seen[suffix]; ok {
			return schema.NewError(schema.MalformedDocument, s.Path,
				"fields '%s' and '%s' of type '%s' both generate the accessor 'get%s' in '%s'", prev, f.Key, s.Name, suffix, s.Path)
		}
		seen[suffix] = f.Key
	}
	return nil
}

// generateFieldMethods renders the accessor and mutator for a field. Both go through the base type's
// getField/setField rather than touching storage.
func generateFieldMethods(f *schema.FieldSchema, typeExpr string) ([]string, error) {
	suffix := schema.FormatAsClassName(f.Key)
	getter, err := generateMethod(method{
		Name:        "get" + suffix,
		Description: fmt.Sprintf("Retrieve the %s field.", docText(f.Label)),
		Returns:     &methodReturn{Type: typeExpr, Description: docText(f.Description)},
		Code:        fmt.Sprintf("return this.getField<%s>(%s);", typeExpr, tsString(f.Key)),
	})
	if err != nil {
		return nil, err
	}
	setter, err := generateMethod(method{
		Name:        "set" + suffix,
		Description: fmt.Sprintf("Set the %s field.", docText(f.Label)),
		Args:        []methodArg{{Name: "value", Type: typeExpr, Description: "The value to set."}},
		Returns:     &methodReturn{Type: "void"},
		Code:        fmt.Sprintf("this.setField(%s, value);", tsString(f.Key)),
	})
	if err != nil {
		return nil, err
	}
	return []string{getter, setter}, nil
}

type methodArg struct {
	Name        string
	Type        string
	Description string
}

type methodReturn struct {
	Type        string
	Description string
}

type method struct {
	Name        string
	Description string
	Args        []methodArg
	Returns     *methodReturn
	Code        string
	// "" means public
	Access      string
	Constructor bool
}

// generateMethod renders a class method with an aligned JSDoc block.
func generateMethod(m method) (string, error) {
	var table [][]string
	for _, a := range m.Args {
		table = append(table, []string{"     * @param", "{" + a.Type + "}", a.Name, a.Description})
	}
	if m.Returns != nil {
		table = append(table, []string{"     * @returns", "{" + m.Returns.Type + "}", "", m.Returns.Description})
	}

	buf := new(bytes.Buffer)
	pf := printerf(buf)
	pf("    /**\n     * %s\n", m.Description)
	if len(table) > 0 {
		tbl, err := formatTable(table)
		if err != nil {
			return "", err
		}
		pf("%s\n", tbl)
	}
	pf("     */\n")

	sig := make([]string, len(m.Args))
	for i, a := range m.Args {
		sig[i] = a.Name + ": " + a.Type
	}
	access := ""
	if m.Access != "" && m.Access != "public" {
		access = m.Access + " "
	}
	ret := ""
	if !m.Constructor && m.Returns != nil {
		ret = ": " + m.Returns.Type
	}
	pf("    %s%s(%s)%s {\n", access, m.Name, strings.Join(sig, ", "), ret)
	pf("        %s\n", m.Code)
	pf("    }")
	return buf.String(), nil
}
