package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// pythonExtractor reads "upstream = [...]" and "product = ..." assignments
// from a Python parameters cell.
type pythonExtractor struct {
	source string
}

// ExtractUpstream finds the top-level "upstream" assignment. The value must
// be a list of string literals or None; a missing assignment or an explicit
// None both mean "no upstream dependencies".
func (e *pythonExtractor) ExtractUpstream() ([]string, error) {
	var names []string
	err := e.withAssignmentValue("upstream", func(value *sitter.Node) error {
		switch value.Type() {
		case "none":
			return nil
		case "list":
			for i := 0; i < int(value.NamedChildCount()); i++ {
				item := value.NamedChild(i)
				if item.Type() != "string" {
					return fmt.Errorf("upstream must be a list of string literals, found %s", item.Type())
				}
				names = append(names, stringContent(item, e.source))
			}
			return nil
		default:
			return fmt.Errorf("upstream must be a list or None, found %s", value.Type())
		}
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// ExtractProduct finds the top-level "product" assignment and returns its
// value expression verbatim.
func (e *pythonExtractor) ExtractProduct() (string, error) {
	var product string
	found := false
	err := e.withAssignmentValue("product", func(value *sitter.Node) error {
		product = e.source[value.StartByte():value.EndByte()]
		found = true
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf(`could not find a "product" assignment in the parameters cell`)
	}
	return product, nil
}

// withAssignmentValue parses the cell and calls fn with the value node of
// the last module-level assignment to name. fn runs while the tree is still
// alive; the node must not escape it. A cell with no such assignment is not
// an error and fn is simply not called.
func (e *pythonExtractor) withAssignmentValue(name string, fn func(*sitter.Node) error) error {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(e.source))
	if err != nil {
		return fmt.Errorf("parsing parameters cell: %w", err)
	}
	defer tree.Close()

	var found *sitter.Node
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			continue
		}
		if e.source[left.StartByte():left.EndByte()] != name {
			continue
		}
		if right := assign.ChildByFieldName("right"); right != nil {
			found = right
		}
	}

	if found == nil {
		return nil
	}
	return fn(found)
}

// stringContent returns a string literal's text without quotes.
func stringContent(n *sitter.Node, source string) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "string_content" {
			return source[child.StartByte():child.EndByte()]
		}
	}
	// older grammars expose no string_content node; strip quotes manually
	text := source[n.StartByte():n.EndByte()]
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}
