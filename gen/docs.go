package gen

import (
	"github.com/flosch/pongo2/v6"

	"github.com/sivrad/matrix-tools/schema"
)

var docsTemplate = pongo2.Must(pongo2.FromString(`{% autoescape off %}# {{ collection.Label }}

{{ collection.Description }}

Collection id: ` + "`{{ collection.ID }}`" + `

| Type | Extends | Abstract | Description |
| --- | --- | --- | --- |
{% for t in types %}| {{ t.ClassName }} | {{ t.Extends }} | {% if t.IsAbstract %}yes{% else %}no{% endif %} | {{ t.Description }} |
{% endfor %}{% for t in types %}
## {{ t.ClassName }}

{{ t.Description }}
{% if t.Fields %}
| Field | Type | Required | Default | Description |
| --- | --- | --- | --- | --- |
{% for f in t.Fields %}| {{ f.Key }} | {{ f.Type }} | {% if f.Required %}yes{% else %}no{% endif %} | {{ f.Default }} | {{ f.Description }} |
{% endfor %}{% endif %}{% endfor %}{% endautoescape %}`))

type docsType struct {
	ClassName   string
	Extends     string
	IsAbstract  bool
	Description string
	Fields      []docsField
}

type docsField struct {
	Key         string
	Type        string
	Required    bool
	Default     string
	Description string
}

// EmitDocs renders a markdown overview of the collection and its types.
func (g *Generator) EmitDocs(manifest *schema.CollectionManifest, schemas []*schema.TypeSchema) ([]byte, error) {
	types := make([]docsType, 0, len(schemas))
	for _, s := range schemas {
		dt := docsType{
			ClassName:   ClassName(s.Name),
			IsAbstract:  s.IsAbstract,
			Description: mdCell(s.Description),
		}
		if parent, err := g.Config.ResolveParent(s.Parent); err == nil {
			dt.Extends = parent.ClassName
			if parent.Kind == ParentExternal {
				dt.Extends += " (" + parent.Package + ")"
			}
		} else {
			dt.Extends = s.Parent
		}
		for _, f := range s.Fields {
			df := docsField{
				Key:         f.Key,
				Type:        mdCell(f.Type),
				Required:    f.Required,
				Description: mdCell(f.Description),
			}
			if !f.Required {
				df.Default = mdCell(tsLiteral(f.DefaultValue))
			}
			dt.Fields = append(dt.Fields, df)
		}
		types = append(types, dt)
	}

	out, err := docsTemplate.Execute(pongo2.Context{
		"collection": manifest,
		"types":      types,
	})
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// mdCell keeps a value from breaking a markdown table row.
func mdCell(s string) string {
	return docText(escapePipes(s))
}

func escapePipes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '|' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
