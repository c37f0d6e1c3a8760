package gen

import (
	"fmt"
	"slices"

	"github.com/xlab/treeprint"

	"github.com/sivrad/matrix-tools/schema"
)

// HierarchyTree renders the inheritance hierarchy of schemas below the root class. External parents
// appear as branches of the root; types whose parent can not be placed are listed last.
func (c *Config) HierarchyTree(schemas []*schema.TypeSchema) string {
	local := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		local[s.Name] = true
	}

	children := make(map[string][]*schema.TypeSchema)
	var externals, unresolved []string
	externalLabels := make(map[string]string)
	for _, s := range schemas {
		ref, err := c.ResolveParent(s.Parent)
		var key string
		switch {
		case err != nil, ref.Kind == ParentLocal && (ref.Type == s.Name || !local[ref.Type]):
			unresolved = append(unresolved, s.Name)
			continue
		case ref.Kind == ParentLocal:
			key = ref.Type
		case ref.Kind == ParentExternal:
			key = ref.Package + "#" + ref.Type
			if _, ok := externalLabels[key]; !ok {
				externals = append(externals, key)
				externalLabels[key] = fmt.Sprintf("%s (%s)", ref.ClassName, ref.Package)
			}
		}
		children[key] = append(children[key], s)
	}

	visited := make(map[string]bool)
	var walk func(node treeprint.Tree, key string)
	walk = func(node treeprint.Tree, key string) {
		for _, s := range children[key] {
			if visited[s.Name] {
				continue
			}
			visited[s.Name] = true
			label := ClassName(s.Name)
			if s.IsAbstract {
				label += " [abstract]"
			}
			walk(node.AddBranch(label), s.Name)
		}
	}

	tree := treeprint.NewWithRoot(fmt.Sprintf("%s (%s)", c.RootClass, c.RootPackage))
	walk(tree, "")
	for _, key := range externals {
		walk(tree.AddBranch(externalLabels[key]), key)
	}
	for _, s := range schemas {
		if !visited[s.Name] && !slices.Contains(unresolved, s.Name) {
			unresolved = append(unresolved, s.Name)
		}
	}
	if len(unresolved) > 0 {
		branch := tree.AddBranch("(unresolved parent)")
		for _, name := range unresolved {
			branch.AddNode(ClassName(name))
		}
	}
	return tree.String()
}
