package tree

// Lookup pairs a found node with its direct parent (nil for the root).
type Lookup struct {
	Node   *Node
	Parent *Node
}

// FindByID locates a node by id via depth-first pre-order search.
func FindByID(root *Node, id string) (Lookup, bool) {
	return find(root, nil, id)
}

func find(node, parent *Node, id string) (Lookup, bool) {
	if node.ID == id {
		return Lookup{Node: node, Parent: parent}, true
	}
	if node.Kind == KindFolder {
		for _, child := range node.Children {
			if found, ok := find(child, node, id); ok {
				return found, ok
			}
		}
	}
	return Lookup{}, false
}

// Update deep-copies the tree and applies mutate to the copy of the
// node with the given id. Ids are unique so at most one node changes;
// a missing id yields an equivalent copy.
func Update(root *Node, id string, mutate func(*Node)) *Node {
	copied := root.Clone()
	Walk(copied, func(n, _ *Node) {
		if n.ID == id {
			mutate(n)
		}
	})
	return copied
}

// Insert deep-copies the tree and prepends child to the folder with
// parentID. A missing parent or a file target is a silent no-op;
// callers validate the target kind when they want feedback.
func Insert(root *Node, parentID string, child *Node) *Node {
	copied := root.Clone()
	Walk(copied, func(n, _ *Node) {
		if n.ID == parentID && n.Kind == KindFolder {
			if n.Children == nil {
				n.Children = []*Node{}
			}
			n.Children = append([]*Node{child}, n.Children...)
		}
	})
	return copied
}

// Remove deep-copies the tree and detaches the subtree rooted at id.
// The root itself is protected: removing it returns an unchanged copy.
func Remove(root *Node, id string) *Node {
	copied := root.Clone()
	if copied.ID == id {
		return copied
	}
	Walk(copied, func(n, _ *Node) {
		if n.Kind != KindFolder || n.Children == nil {
			return
		}
		kept := n.Children[:0]
		for _, child := range n.Children {
			if child.ID != id {
				kept = append(kept, child)
			}
		}
		n.Children = kept
	})
	return copied
}

// Path returns the chain of nodes from the root down to id, both
// inclusive. A missing id yields an empty slice.
func Path(root *Node, id string) []*Node {
	var result []*Node
	var recur func(node *Node, chain []*Node) bool
	recur = func(node *Node, chain []*Node) bool {
		if node.ID == id {
			result = append(append(result, chain...), node)
			return true
		}
		if node.Kind == KindFolder {
			next := append(chain, node)
			for _, child := range node.Children {
				if recur(child, next) {
					return true
				}
			}
		}
		return false
	}
	recur(root, nil)
	return result
}

// SetExpandedAll deep-copies the tree with every folder's expanded
// flag set to the given value.
func SetExpandedAll(root *Node, expanded bool) *Node {
	copied := root.Clone()
	Walk(copied, func(n, _ *Node) {
		if n.Kind == KindFolder {
			n.Expanded = expanded
		}
	})
	return copied
}
