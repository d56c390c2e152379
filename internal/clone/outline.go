package clone

import (
	"context"
	"fmt"
	"strings"
)

// Outline renders the structure below root as indented lines, one node
// per line, in the order a clone would visit them. Two outlines of the
// same tree are comparable line by line.
func Outline(ctx context.Context, store Store, root *Node) ([]string, error) {
	var lines []string
	var walk func(n *Node, depth int) error
	walk = func(n *Node, depth int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		children, err := store.Children(ctx, n)
		if err != nil {
			return fmt.Errorf("failed to list children of %q: %w", n.Name, err)
		}
		sortByPosition(children)
		for _, child := range children {
			lines = append(lines, fmt.Sprintf("%s%s [%s]", strings.Repeat("  ", depth), child.Name, child.Kind))
			if child.Kind.IsLeaf() {
				continue
			}
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0); err != nil {
		return nil, err
	}
	return lines, nil
}
