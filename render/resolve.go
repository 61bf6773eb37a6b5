package render

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/promptkit/prompt"
)

// resolve replaces every Async node with the subtree its producer returns.
// Sibling subtrees holding Async nodes resolve concurrently; the first
// failure cancels the producers still running.
func resolve(ctx context.Context, n prompt.Node) (prompt.Node, error) {
	if !hasAsync(n) {
		return n, nil
	}

	switch n := n.(type) {
	case prompt.Async:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		produced, err := n.Produce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s: %w", prompt.ErrProducer, asyncName(n), err)
		}
		if produced == nil {
			return prompt.Container{}, nil
		}
		return resolve(ctx, produced)

	case prompt.Container:
		children, err := resolveAll(ctx, n.Children)
		if err != nil {
			return nil, err
		}
		return prompt.Container{Children: children}, nil

	case prompt.RoleMessage:
		children, err := resolveAll(ctx, n.Children)
		if err != nil {
			return nil, err
		}
		return prompt.RoleMessage{Role: n.Role, Children: children}, nil

	case prompt.Weighted:
		child, err := resolve(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		n.Child = child
		return n, nil

	case prompt.AtomicGroup:
		child, err := resolve(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return prompt.AtomicGroup{Child: child}, nil

	case prompt.Reference:
		child, err := resolve(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		n.Child = child
		return n, nil
	}
	return n, nil
}

func resolveAll(ctx context.Context, children []prompt.Node) ([]prompt.Node, error) {
	out := make([]prompt.Node, len(children))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range children {
		if !hasAsync(c) {
			out[i] = c
			continue
		}
		g.Go(func() error {
			resolved, err := resolve(gctx, c)
			if err != nil {
				return err
			}
			out[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func hasAsync(n prompt.Node) bool {
	switch n := n.(type) {
	case prompt.Async:
		return true
	case prompt.Container:
		return anyAsync(n.Children)
	case prompt.RoleMessage:
		return anyAsync(n.Children)
	case prompt.Weighted:
		return hasAsync(n.Child)
	case prompt.AtomicGroup:
		return hasAsync(n.Child)
	case prompt.Reference:
		return n.Child != nil && hasAsync(n.Child)
	}
	return false
}

func anyAsync(children []prompt.Node) bool {
	for _, c := range children {
		if hasAsync(c) {
			return true
		}
	}
	return false
}

func asyncName(n prompt.Async) string {
	if n.Name != "" {
		return n.Name
	}
	return "unnamed"
}
