// Package pyscan provides Python source inspection for validation: an
// identifier scanner (which names does this code mention) and a small
// flake-style checker that categorizes findings into warnings and errors.
// Both are Python-only; callers are expected to gate on language.
package pyscan

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Result holds checker output split by severity. Errors are syntax problems
// that make the source unrunnable; warnings are name-level findings
// (undefined names, unused imports).
type Result struct {
	Warnings string
	Errors   string
}

func newParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return p
}

// UsedNames returns the set of identifier names appearing anywhere in src.
// Attribute and keyword-argument names are excluded: "a.b" mentions a, not
// b. Parsing is error-tolerant, so this works even on source with syntax
// problems.
func UsedNames(src string) (map[string]struct{}, error) {
	parser := newParser()
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("parsing python source: %w", err)
	}
	defer tree.Close()

	names := map[string]struct{}{}
	content := []byte(src)
	walk(tree.RootNode(), func(n *sitter.Node) {
		if n.Type() != "identifier" {
			return
		}
		if isAttributeName(n) || isKeywordArgumentName(n) {
			return
		}
		names[string(content[n.StartByte():n.EndByte()])] = struct{}{}
	})
	return names, nil
}

// Check runs the static checker over src. filename is used only for
// diagnostics formatting, one finding per line.
func Check(src, filename string) Result {
	parser := newParser()
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	if err != nil {
		return Result{Errors: fmt.Sprintf("%s:1: could not parse source: %v\n", filename, err)}
	}
	defer tree.Close()

	c := &checker{
		content:  []byte(src),
		filename: filename,
		bound:    map[string]struct{}{},
		imported: map[string]uint32{},
	}
	root := tree.RootNode()
	c.collectSyntaxErrors(root)

	var res Result
	if len(c.syntaxErrors) > 0 {
		for _, e := range c.syntaxErrors {
			res.Errors += e + "\n"
		}
		return res
	}

	c.collectBindings(root)
	c.collectUses(root)

	for _, u := range c.uses {
		if _, ok := c.bound[u.name]; ok {
			continue
		}
		if _, ok := pythonBuiltins[u.name]; ok {
			continue
		}
		res.Warnings += fmt.Sprintf("%s:%d: undefined name '%s'\n", filename, u.line, u.name)
	}

	used := map[string]struct{}{}
	for _, u := range c.uses {
		used[u.name] = struct{}{}
	}
	for name, line := range c.imported {
		if _, ok := used[name]; !ok {
			res.Warnings += fmt.Sprintf("%s:%d: '%s' imported but unused\n", filename, line+1, name)
		}
	}
	return res
}

type nameUse struct {
	name string
	line uint32
}

type checker struct {
	content      []byte
	filename     string
	syntaxErrors []string
	bound        map[string]struct{}
	imported     map[string]uint32 // name -> 0-based line of the import
	uses         []nameUse
}

func (c *checker) text(n *sitter.Node) string {
	return string(c.content[n.StartByte():n.EndByte()])
}

func (c *checker) collectSyntaxErrors(root *sitter.Node) {
	walk(root, func(n *sitter.Node) {
		if n.Type() == "ERROR" || n.IsMissing() {
			c.syntaxErrors = append(c.syntaxErrors,
				fmt.Sprintf("%s:%d: invalid syntax", c.filename, n.StartPoint().Row+1))
		}
	})
}

// collectBindings records every name the module binds: assignment targets,
// def/class names, parameters, loop and comprehension targets, imports and
// "as" aliases.
func (c *checker) collectBindings(root *sitter.Node) {
	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "assignment", "augmented_assignment":
			if left := n.ChildByFieldName("left"); left != nil {
				c.bindTargets(left)
			}
		case "named_expression":
			if name := n.ChildByFieldName("name"); name != nil {
				c.bindTargets(name)
			}
		case "function_definition", "class_definition":
			if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				c.bound[c.text(name)] = struct{}{}
			}
			if params := n.ChildByFieldName("parameters"); params != nil {
				c.bindParameters(params)
			}
		case "lambda":
			if params := n.ChildByFieldName("parameters"); params != nil {
				c.bindParameters(params)
			}
		case "for_statement", "for_in_clause":
			if left := n.ChildByFieldName("left"); left != nil {
				c.bindTargets(left)
			}
		case "as_pattern":
			// "with open(f) as fh", "except E as e", "import x as y"
			if alias := n.ChildByFieldName("alias"); alias != nil {
				c.bindTargets(alias)
			} else if n.NamedChildCount() > 0 {
				c.bindTargets(n.NamedChild(int(n.NamedChildCount()) - 1))
			}
		case "import_statement", "import_from_statement":
			c.bindImport(n)
		}
	})
}

// bindTargets binds every identifier in a target subtree, skipping
// attribute/subscript stores which do not introduce names.
func (c *checker) bindTargets(n *sitter.Node) {
	switch n.Type() {
	case "identifier":
		c.bound[c.text(n)] = struct{}{}
	case "attribute", "subscript":
		// obj.attr = ... / seq[i] = ... bind nothing
	case "as_pattern_target", "tuple_pattern", "list_pattern", "pattern_list",
		"parenthesized_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c.bindTargets(n.NamedChild(i))
		}
	}
}

func (c *checker) bindParameters(params *sitter.Node) {
	walk(params, func(n *sitter.Node) {
		switch n.Type() {
		case "identifier":
			parent := n.Parent()
			// skip annotation/default value expressions
			if parent != nil {
				switch parent.Type() {
				case "parameters", "lambda_parameters", "tuple_pattern":
					c.bound[c.text(n)] = struct{}{}
				case "default_parameter", "typed_parameter", "typed_default_parameter",
					"list_splat_pattern", "dictionary_splat_pattern":
					if sameNode(parent.ChildByFieldName("name"), n) || sameNode(parent.NamedChild(0), n) {
						c.bound[c.text(n)] = struct{}{}
					}
				}
			}
		}
	})
}

func (c *checker) bindImport(n *sitter.Node) {
	line := n.StartPoint().Row
	bind := func(name string) {
		c.bound[name] = struct{}{}
		c.imported[name] = line
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			// "import a.b" binds a; for import_from the module path is
			// the first dotted_name and the names come after "import",
			// but binding the head identifier is right in both cases
			// except the from-module itself, handled below.
			if n.Type() == "import_from_statement" && sameNode(n.ChildByFieldName("module_name"), child) {
				continue
			}
			if child.NamedChildCount() > 0 {
				bind(c.text(child.NamedChild(0)))
			}
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				bind(c.text(alias))
			}
		case "wildcard_import":
			// "from x import *": nothing we can track
		}
	}
}

// collectUses records identifier loads: names read in expression position.
func (c *checker) collectUses(root *sitter.Node) {
	walk(root, func(n *sitter.Node) {
		if n.Type() != "identifier" {
			return
		}
		if isAttributeName(n) || isKeywordArgumentName(n) || isBindingPosition(n) {
			return
		}
		c.uses = append(c.uses, nameUse{name: c.text(n), line: n.StartPoint().Row + 1})
	})
}

// isBindingPosition reports whether an identifier occurrence introduces a
// name rather than reading one.
func isBindingPosition(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "assignment", "augmented_assignment":
		return sameNode(parent.ChildByFieldName("left"), n)
	case "named_expression":
		return sameNode(parent.ChildByFieldName("name"), n)
	case "function_definition", "class_definition":
		return sameNode(parent.ChildByFieldName("name"), n)
	case "parameters", "lambda_parameters":
		return true
	case "default_parameter", "typed_default_parameter":
		// the default value expression is a use, only the name binds
		return sameNode(parent.ChildByFieldName("name"), n)
	case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		return sameNode(parent.NamedChild(0), n)
	case "for_statement", "for_in_clause":
		return sameNode(parent.ChildByFieldName("left"), n)
	case "as_pattern_target":
		return true
	case "dotted_name", "aliased_import":
		return true
	case "pattern_list", "tuple_pattern", "list_pattern":
		return isBindingPosition(parent)
	case "as_pattern":
		return sameNode(parent.ChildByFieldName("alias"), n) ||
			sameNode(parent.NamedChild(int(parent.NamedChildCount())-1), n)
	}
	return false
}

func isAttributeName(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Type() == "attribute" &&
		sameNode(parent.ChildByFieldName("attribute"), n)
}

func isKeywordArgumentName(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Type() == "keyword_argument" &&
		sameNode(parent.ChildByFieldName("name"), n)
}

// sameNode reports whether two node handles refer to the same syntax node.
// Handles are fresh wrappers on every accessor call, so identity has to go
// through positions, not pointers.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// walk visits every node in the tree, parents before children.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}
