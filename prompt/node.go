package prompt

import (
	"context"
	"math"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// PriorityRequired marks content that must be rendered in full. A tree whose
// required content exceeds the budget fails to render.
const PriorityRequired = math.MaxInt

// Node is an element of a prompt tree. The set of implementations is closed;
// trees are values and are never mutated after construction.
type Node interface {
	isNode()
}

// Leaf is a fragment of rendered text.
type Leaf struct {
	Text string
}

// Container groups children without introducing a message boundary.
type Container struct {
	Children []Node
}

// RoleMessage marks a message boundary. RoleMessages may not be nested.
type RoleMessage struct {
	Role     Role
	Children []Node
}

// Weighted annotates a subtree for allocation. Larger priorities are kept
// first. FlexGrow shares leftover budget among partially included siblings;
// a zero FlexGrow makes the subtree all-or-nothing. MaxTokens caps the
// subtree's allocation; zero means no cap.
type Weighted struct {
	Name      string
	Priority  int
	FlexGrow  float64
	MaxTokens int
	Child     Node
}

// Required reports whether the subtree must be rendered in full.
func (w Weighted) Required() bool {
	return w.Priority == PriorityRequired
}

// AtomicGroup is rendered either in full or not at all.
type AtomicGroup struct {
	Child Node
}

// CacheBoundary is a zero-token marker whose position is reported in the
// render result.
type CacheBoundary struct{}

// Producer builds a subtree on demand. It must honor ctx cancellation.
type Producer func(ctx context.Context) (Node, error)

// Async is a subtree that is not known until Produce resolves.
type Async struct {
	Name    string
	Produce Producer
}

// Reference declares an attachment or citation carried by its content. The
// reference is reported when Child renders any tokens, or unconditionally
// when Child is nil.
type Reference struct {
	ID    string
	Value any
	Child Node
}

func (Leaf) isNode()          {}
func (Container) isNode()     {}
func (RoleMessage) isNode()   {}
func (Weighted) isNode()      {}
func (AtomicGroup) isNode()   {}
func (CacheBoundary) isNode() {}
func (Async) isNode()         {}
func (Reference) isNode()     {}
