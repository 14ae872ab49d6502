package tree

import "strings"

// UploadMatcher reports whether any attachment of the given file node
// matches the lowercased query. The tree has no knowledge of uploads,
// so content search is delegated through this callback.
type UploadMatcher func(nodeID, query string) bool

// Filter prunes branches that do not match the query. Matching is a
// case-insensitive substring test against name and note; a folder
// survives when it matches itself or keeps at least one surviving
// child, a file additionally when the upload matcher fires. An empty
// or whitespace-only query returns the original tree as-is. When
// nothing matches, the root is returned with an empty children list
// so it is always shown.
func Filter(root *Node, query string, matcher UploadMatcher) *Node {
	if strings.TrimSpace(query) == "" {
		return root
	}
	q := strings.ToLower(query)

	var recur func(node *Node) *Node
	recur = func(node *Node) *Node {
		selfMatch := strings.Contains(strings.ToLower(node.Name), q) ||
			strings.Contains(strings.ToLower(node.Note), q)

		if node.Kind == KindFolder {
			var kept []*Node
			for _, child := range node.Children {
				if filtered := recur(child); filtered != nil {
					kept = append(kept, filtered)
				}
			}
			if selfMatch || len(kept) > 0 {
				copied := *node
				copied.Children = kept
				return &copied
			}
			return nil
		}

		if selfMatch || (matcher != nil && matcher(node.ID, q)) {
			copied := *node
			return &copied
		}
		return nil
	}

	if filtered := recur(root); filtered != nil {
		return filtered
	}
	copied := *root
	copied.Children = []*Node{}
	return &copied
}
