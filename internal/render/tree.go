// Package render formats an outline as JSON, Markdown, HTML or a tree.
package render

import "github.com/dgallion1/outliner/internal/outline"

// Node is a heading with the headings nested beneath it.
type Node struct {
	Heading  outline.RankedHeading
	Children []*Node
}

// Tree nests each heading under the nearest preceding heading of a
// shallower level. A heading with no such predecessor is a root.
func Tree(headings []outline.RankedHeading) []*Node {
	type stackEntry struct {
		node  *Node
		depth int
	}

	var (
		roots []*Node
		stack []stackEntry
	)
	for _, h := range headings {
		depth := h.Level.Depth()
		if depth == 0 {
			depth = len(outline.Levels)
		}
		node := &Node{Heading: h}

		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, stackEntry{node: node, depth: depth})
	}
	return roots
}
