package hierarchy

import (
	"slices"
	"strings"
)

// DefaultRootLabel is the conventional first segment of every path
const DefaultRootLabel = "Home"

// Path is the ordered list of names from the root to a node's parent.
// Element 0 is always the root label.
type Path []string

// RootPath returns the path denoting the root collection
func RootPath(label string) Path {
	return Path{label}
}

// ParsePath splits a slash-joined path ("Home/Licenses") into segments.
// Empty segments are dropped.
func ParsePath(s string) Path {
	var p Path
	for _, seg := range strings.Split(s, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// IsRoot reports whether the path denotes the root collection
func (p Path) IsRoot() bool { return len(p) == 1 }

// Depth is the number of segments, root included
func (p Path) Depth() int { return len(p) }

// Terminal returns the last segment, or "" for an empty path
func (p Path) Terminal() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Segments returns the names below the root label
func (p Path) Segments() []string {
	if len(p) <= 1 {
		return nil
	}
	return p[1:]
}

// Child returns a new path extended by name
func (p Path) Child(name string) Path {
	c := make(Path, len(p), len(p)+1)
	copy(c, p)
	return append(c, name)
}

// Equal compares two paths segment by segment
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// HasPrefix reports whether prefix is a leading run of whole segments of p.
// "Home/AB" does not have prefix "Home/A".
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return slices.Equal(p[:len(prefix)], prefix)
}

// String renders the path slash-joined
func (p Path) String() string {
	return strings.Join(p, "/")
}
