package prompt

import (
	"fmt"
	"math"
)

// Kind returns a short name for the node's type, used in tree paths.
func Kind(n Node) string {
	switch n := n.(type) {
	case Leaf:
		return "text"
	case Container:
		return "group"
	case RoleMessage:
		return string(n.Role)
	case Weighted:
		if n.Name != "" {
			return "weighted:" + n.Name
		}
		return "weighted"
	case AtomicGroup:
		return "atomic"
	case CacheBoundary:
		return "boundary"
	case Async:
		if n.Name != "" {
			return "async:" + n.Name
		}
		return "async"
	case Reference:
		return "ref:" + n.ID
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", n)
	}
}

// ChildPath returns the path of the i-th child of the node at parent.
func ChildPath(parent string, i int, child Node) string {
	return fmt.Sprintf("%s/%d.%s", parent, i, Kind(child))
}

// RootPath is the path of the root node.
const RootPath = "root"

// Validate checks the tree's structure. Async nodes are checked for a
// producer only; their subtrees are validated once resolved.
func Validate(root Node) error {
	v := validator{}
	return v.walk(root, RootPath)
}

type validator struct {
	inMessage bool
	inAtomic  bool
}

func (v validator) walk(n Node, path string) error {
	switch n := n.(type) {
	case Leaf:
		if !v.inMessage && n.Text != "" {
			return invalid(path, "text outside a role message")
		}
	case Container:
		return v.children(n.Children, path)
	case RoleMessage:
		if v.inMessage {
			return invalid(path, "nested role message")
		}
		if !n.Role.Valid() {
			return invalid(path, fmt.Sprintf("unknown role %q", n.Role))
		}
		v.inMessage = true
		return v.children(n.Children, path)
	case Weighted:
		if n.MaxTokens < 0 {
			return invalid(path, fmt.Sprintf("negative maxTokens %d", n.MaxTokens))
		}
		if n.FlexGrow < 0 || math.IsNaN(n.FlexGrow) || math.IsInf(n.FlexGrow, 0) {
			return invalid(path, fmt.Sprintf("flexGrow must be finite and non-negative, got %v", n.FlexGrow))
		}
		if v.inAtomic && n.MaxTokens > 0 {
			return invalid(path, "maxTokens inside an atomic group")
		}
		if n.Child == nil {
			return invalid(path, "weighted node without child")
		}
		return v.walk(n.Child, path+"/child")
	case AtomicGroup:
		if n.Child == nil {
			return invalid(path, "atomic group without child")
		}
		v.inAtomic = true
		return v.walk(n.Child, path+"/child")
	case CacheBoundary:
	case Async:
		if n.Produce == nil {
			return invalid(path, "async node without producer")
		}
	case Reference:
		if n.ID == "" {
			return invalid(path, "reference without id")
		}
		if n.Child != nil {
			return v.walk(n.Child, path+"/child")
		}
	case nil:
		return invalid(path, "nil node")
	default:
		return invalid(path, fmt.Sprintf("unsupported node type %T", n))
	}
	return nil
}

func (v validator) children(children []Node, path string) error {
	for i, c := range children {
		if err := v.walk(c, ChildPath(path, i, c)); err != nil {
			return err
		}
	}
	return nil
}

func invalid(path, reason string) error {
	return &ValidationError{Path: path, Reason: reason}
}
