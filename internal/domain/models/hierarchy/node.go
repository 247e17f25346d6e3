package hierarchy

import (
	"slices"
	"time"
)

// Kind discriminates the two node variants
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// FileHandle is an uploaded file held in memory. Data must not be mutated
// once the handle is attached to a node; copies of a node share it.
type FileHandle struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Node is a file or folder entry. Values handed out by the store are copies;
// editing them never changes the tree.
type Node struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"type"`
	Name     string    `json:"name"`
	Modified time.Time `json:"modified"`
	Path     Path      `json:"path"` // Derived from the parent chain, never stored

	// File-only fields
	Size    string      `json:"size,omitempty"`
	Content []string    `json:"content,omitempty"` // Simulated text pages
	Handle  *FileHandle `json:"file,omitempty"`
	URL     string      `json:"url,omitempty"` // Reusable reference, adopted as-is by the viewer

	// Populated only in tree snapshots
	Children []Node `json:"children,omitempty"`
}

// IsFolder reports whether the node is a folder
func (n *Node) IsFolder() bool { return n.Kind == KindFolder }

// IsFile reports whether the node is a file
func (n *Node) IsFile() bool { return n.Kind == KindFile }

// FullPath returns the path of the node itself (its parent path plus its name)
func (n *Node) FullPath() Path {
	return n.Path.Child(n.Name)
}

// Clone returns a deep copy. The file handle is shared since its bytes are immutable.
func (n Node) Clone() Node {
	c := n
	c.Path = slices.Clone(n.Path)
	c.Content = slices.Clone(n.Content)
	if n.Children != nil {
		c.Children = make([]Node, len(n.Children))
		for i := range n.Children {
			c.Children[i] = n.Children[i].Clone()
		}
	}
	return c
}

// FileInput is what upload and scan collaborators supply to AddFiles.
// At least one of Content, Handle or URL should be set for the viewer to
// show anything meaningful.
type FileInput struct {
	Name     string      `json:"name,omitempty"`
	Modified *time.Time  `json:"modified,omitempty"`
	Size     string      `json:"size,omitempty"`
	Path     Path        `json:"path,omitempty"`
	Content  []string    `json:"content,omitempty"`
	Handle   *FileHandle `json:"-"`
	URL      string      `json:"url,omitempty"`
}

// Defaults applied by AddFiles for absent FileInput fields
const (
	DefaultFileName = "Unnamed File"
	DefaultFileSize = "0 KB"
)
