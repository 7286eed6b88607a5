package mltree

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Branch selects a child of a split node.
type Branch int

const (
	Left Branch = iota
	Right
)

func (b Branch) String() string {
	if b == Left {
		return "left"
	}
	return "right"
}

// Path addresses a node as the sequence of branches taken from the root.
// The empty path is the root itself.
type Path []Branch

// ParsePath reads a path like "L/R/L" or "left/right". "root" and the
// empty string address the root.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "root") {
		return Path{}, nil
	}
	parts := strings.Split(s, "/")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "l", "left":
			p = append(p, Left)
		case "r", "right":
			p = append(p, Right)
		default:
			return nil, fmt.Errorf("%w: %q", ErrBadPath, part)
		}
	}
	return p, nil
}

// String renders "root" for the empty path, otherwise "L/R/..." tokens.
func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	var b strings.Builder
	for i, br := range p {
		if i > 0 {
			b.WriteByte('/')
		}
		if br == Left {
			b.WriteByte('L')
		} else {
			b.WriteByte('R')
		}
	}
	return b.String()
}

func (p Path) Clone() Path {
	return append(Path(nil), p...)
}

// Child returns a new path extended by one branch.
func (p Path) Child(b Branch) Path {
	c := make(Path, len(p), len(p)+1)
	copy(c, p)
	return append(c, b)
}

func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the path as an array of "left"/"right" tokens.
func (p Path) MarshalJSON() ([]byte, error) {
	tokens := make([]string, len(p))
	for i, b := range p {
		tokens[i] = b.String()
	}
	return json.Marshal(tokens)
}

func (p *Path) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	out := make(Path, 0, len(tokens))
	for _, t := range tokens {
		switch strings.ToLower(t) {
		case "l", "left":
			out = append(out, Left)
		case "r", "right":
			out = append(out, Right)
		default:
			return fmt.Errorf("%w: %q", ErrBadPath, t)
		}
	}
	*p = out
	return nil
}

// Resolve walks path from root. It returns ErrPathNotFound when the
// walk reaches a leaf before the path is exhausted, or when root is nil.
func Resolve(root *Node, path Path) (*Node, error) {
	if root == nil {
		return nil, ErrPathNotFound
	}
	n := root
	for _, b := range path {
		if n.Kind != KindSplit {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		if b == Left {
			n = n.Left
		} else {
			n = n.Right
		}
		if n == nil {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
	}
	return n, nil
}

// ReplaceAt returns a new tree with the node at path replaced by sub.
// Nodes along the path are copied and their sample counts refreshed;
// every other node is shared with the input tree, which stays untouched.
func ReplaceAt(root *Node, path Path, sub *Node) (*Node, error) {
	if sub == nil {
		return nil, ErrNilNode
	}
	if len(path) == 0 {
		return sub, nil
	}
	if root == nil || root.Kind != KindSplit {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	cp := *root
	var err error
	if path[0] == Left {
		cp.Left, err = ReplaceAt(root.Left, path[1:], sub)
	} else {
		cp.Right, err = ReplaceAt(root.Right, path[1:], sub)
	}
	if err != nil {
		return nil, err
	}
	cp.Samples = cp.Left.Samples + cp.Right.Samples
	return &cp, nil
}
