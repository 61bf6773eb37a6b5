package prompt

import "strings"

// Text returns a leaf holding s.
func Text(s string) Leaf {
	return Leaf{Text: s}
}

// Lines returns a leaf holding the lines joined by newlines, with a trailing
// newline so consecutive leaves concatenate cleanly.
func Lines(lines ...string) Leaf {
	if len(lines) == 0 {
		return Leaf{}
	}
	return Leaf{Text: strings.Join(lines, "\n") + "\n"}
}

// Group returns a container of children. Nil children are skipped.
func Group(children ...Node) Container {
	return Container{Children: compact(children)}
}

// System returns a system message.
func System(children ...Node) RoleMessage {
	return RoleMessage{Role: RoleSystem, Children: compact(children)}
}

// User returns a user message.
func User(children ...Node) RoleMessage {
	return RoleMessage{Role: RoleUser, Children: compact(children)}
}

// Assistant returns an assistant message.
func Assistant(children ...Node) RoleMessage {
	return RoleMessage{Role: RoleAssistant, Children: compact(children)}
}

// Prioritized wraps child with a priority and a flex weight of 1.
func Prioritized(priority int, child Node) Weighted {
	return Weighted{Priority: priority, FlexGrow: 1, Child: child}
}

// Required wraps child so it is never dropped.
func Required(child Node) Weighted {
	return Weighted{Priority: PriorityRequired, Child: child}
}

// Atomic wraps child so it renders fully or not at all.
func Atomic(child Node) AtomicGroup {
	return AtomicGroup{Child: child}
}

// Boundary returns a cache boundary marker.
func Boundary() CacheBoundary {
	return CacheBoundary{}
}

// Defer returns a node resolved by produce at render time.
func Defer(name string, produce Producer) Async {
	return Async{Name: name, Produce: produce}
}

// Cite wraps child with a reference identifier.
func Cite(id string, value any, child Node) Reference {
	return Reference{ID: id, Value: value, Child: child}
}

// Named returns w with its name set.
func (w Weighted) Named(name string) Weighted {
	w.Name = name
	return w
}

// Capped returns w with MaxTokens set.
func (w Weighted) Capped(maxTokens int) Weighted {
	w.MaxTokens = maxTokens
	return w
}

// Flex returns w with FlexGrow set.
func (w Weighted) Flex(grow float64) Weighted {
	w.FlexGrow = grow
	return w
}

func compact(children []Node) []Node {
	out := children[:0:0]
	for _, c := range children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
