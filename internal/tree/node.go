// Package tree holds the document tree data model and its pure
// operations. Nothing in here performs I/O; every mutating operation
// returns a fresh tree value and leaves its input untouched.
package tree

import (
	"strings"

	"github.com/google/uuid"
)

// Kind discriminates the two node variants.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// MaxNameLen is the hard cap applied by SanitizeName.
const MaxNameLen = 20

// Default icons per node kind.
const (
	FolderIcon = "📁"
	FileIcon   = "📄"
)

// Node is one entry in the document tree. Folders own an ordered list
// of children; files reference externally stored attachments by their
// node id and never have children.
type Node struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"type"`
	Name     string  `json:"name"`
	Icon     string  `json:"icon,omitempty"`
	Note     string  `json:"note,omitempty"`
	Expanded bool    `json:"expanded,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// GenerateID produces an opaque unique token for new nodes.
func GenerateID() string {
	return uuid.NewString()
}

// SanitizeName trims whitespace and truncates to MaxNameLen runes.
// The second return value is false when nothing usable remains.
func SanitizeName(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}
	runes := []rune(trimmed)
	if len(runes) > MaxNameLen {
		return string(runes[:MaxNameLen]), true
	}
	return trimmed, true
}

// NewFolder creates an empty expanded folder with a fresh id.
func NewFolder(name string) *Node {
	return &Node{
		ID:       GenerateID(),
		Kind:     KindFolder,
		Name:     name,
		Icon:     FolderIcon,
		Expanded: true,
		Children: []*Node{},
	}
}

// NewFile creates a file reference node with a fresh id.
func NewFile(name string) *Node {
	return &Node{
		ID:   GenerateID(),
		Kind: KindFile,
		Name: name,
		Icon: FileIcon,
	}
}

// Default returns the built-in starter tree: Root > Ordner 1 > Dokument 1.
func Default() *Node {
	doc := NewFile("Dokument 1")
	doc.Note = "Beispiel-Dokument (nur Referenz)"
	folder := NewFolder("Ordner 1")
	folder.Children = []*Node{doc}
	root := NewFolder("Root")
	root.Note = "Dies ist Ihr Wurzelordner. Fügen Sie darunter Ordner/Dateien hinzu."
	root.Children = []*Node{folder}
	return root
}

// Clone deep-copies a tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	copied := *n
	if n.Children != nil {
		copied.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			copied.Children[i] = child.Clone()
		}
	}
	return &copied
}

// Walk visits every node depth-first in pre-order, passing each node
// together with its direct parent (nil for the root).
func Walk(root *Node, visit func(node, parent *Node)) {
	walk(root, nil, visit)
}

func walk(node, parent *Node, visit func(node, parent *Node)) {
	visit(node, parent)
	if node.Kind == KindFolder {
		for _, child := range node.Children {
			walk(child, node, visit)
		}
	}
}
