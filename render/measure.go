package render

import (
	"fmt"

	"github.com/randalmurphal/promptkit/prompt"
)

type kind int

const (
	kindLeaf kind = iota
	kindGroup
	kindMessage
	kindWeighted
	kindAtomic
	kindBoundary
	kindReference
)

// measured is a resolved node annotated with its sizes.
type measured struct {
	kind     kind
	path     string
	text     string
	role     prompt.Role
	children []*measured

	// size is the token count when fully included; min is the part that is
	// required under the node's inherited requiredness.
	size int
	min  int

	priority int
	flex     float64
	cap      int
	name     string

	ref *Reference

	// Rendered state of an allocation unit, set by allocateUnits.
	pieces []Piece
	used   int
}

// want is the node's size clamped to its cap.
func (m *measured) want() int {
	if m.cap > 0 && m.cap < m.size {
		return m.cap
	}
	return m.size
}

// allOrNothing reports whether the node is dropped rather than cut when it
// does not fit.
func (m *measured) allOrNothing() bool {
	return m.kind == kindAtomic || (m.kind == kindWeighted && m.flex == 0)
}

func (r *Renderer) measure(n prompt.Node, path string, role prompt.Role, priority int, required bool) (*measured, error) {
	switch n := n.(type) {
	case prompt.Leaf:
		size, err := r.estimate(n.Text)
		if err != nil {
			return nil, err
		}
		m := &measured{kind: kindLeaf, path: path, role: role, text: n.Text, size: size, priority: priority}
		if required {
			m.min = size
		}
		return m, nil

	case prompt.Container:
		m := &measured{kind: kindGroup, path: path, role: role, priority: priority}
		return m, r.measureChildren(m, n.Children, priority, required)

	case prompt.RoleMessage:
		m := &measured{kind: kindMessage, path: path, role: n.Role, priority: priority}
		return m, r.measureChildren(m, n.Children, priority, required)

	case prompt.Weighted:
		child, err := r.measure(n.Child, path+"/child", role, n.Priority, required && n.Required())
		if err != nil {
			return nil, err
		}
		m := &measured{
			kind:     kindWeighted,
			path:     path,
			role:     role,
			children: []*measured{child},
			size:     child.size,
			min:      child.min,
			priority: n.Priority,
			flex:     n.FlexGrow,
			cap:      n.MaxTokens,
			name:     n.Name,
		}
		if m.cap > 0 && m.min > m.cap {
			at := path
			if n.Name != "" {
				at = n.Name
			}
			return nil, &prompt.ValidationError{
				Path:   at,
				Reason: fmt.Sprintf("required content of %d tokens exceeds maxTokens %d", m.min, m.cap),
			}
		}
		return m, nil

	case prompt.AtomicGroup:
		child, err := r.measure(n.Child, path+"/child", role, priority, required)
		if err != nil {
			return nil, err
		}
		m := &measured{kind: kindAtomic, path: path, role: role, children: []*measured{child}, size: child.size, priority: priority}
		if required {
			m.min = m.size
		}
		return m, nil

	case prompt.CacheBoundary:
		return &measured{kind: kindBoundary, path: path, role: role, priority: priority}, nil

	case prompt.Reference:
		m := &measured{kind: kindReference, path: path, role: role, priority: priority, ref: &Reference{ID: n.ID, Value: n.Value}}
		if n.Child == nil {
			return m, nil
		}
		child, err := r.measure(n.Child, path+"/child", role, priority, required)
		if err != nil {
			return nil, err
		}
		m.children = []*measured{child}
		m.size, m.min = child.size, child.min
		return m, nil

	case prompt.Async:
		return nil, &prompt.ValidationError{Path: path, Reason: "unresolved async node"}
	}
	return nil, &prompt.ValidationError{Path: path, Reason: fmt.Sprintf("unsupported node type %T", n)}
}

func (r *Renderer) measureChildren(m *measured, children []prompt.Node, priority int, required bool) error {
	m.children = make([]*measured, 0, len(children))
	for i, c := range children {
		cm, err := r.measure(c, prompt.ChildPath(m.path, i, c), m.role, priority, required)
		if err != nil {
			return err
		}
		m.children = append(m.children, cm)
		m.size += cm.size
		m.min += cm.min
	}
	return nil
}

func (r *Renderer) estimate(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	n, err := r.estimator.Estimate(text)
	if err != nil {
		return 0, prompt.NewEstimatorError(text, err)
	}
	if n < 0 {
		return 0, prompt.NewEstimatorError(text, fmt.Errorf("negative count %d", n))
	}
	return n, nil
}

// requiredNodes lists the nodes that contribute to the required minimum:
// named Weighted nodes by name, other content by path.
func requiredNodes(m *measured) []string {
	var out []string
	var walk func(*measured)
	walk = func(m *measured) {
		if m.min == 0 {
			return
		}
		if m.kind == kindWeighted && m.name != "" {
			out = append(out, m.name)
			return
		}
		if m.kind == kindLeaf {
			out = append(out, m.path)
			return
		}
		for _, c := range m.children {
			walk(c)
		}
	}
	walk(m)
	return out
}
