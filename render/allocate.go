package render

import (
	"log/slog"
	"sort"

	"github.com/randalmurphal/promptkit/prompt"
)

// maxFlexRounds bounds leftover redistribution per allocation group.
const maxFlexRounds = 16

// units returns the allocation units under m. Groups, messages and
// references are transparent: their descendants compete with each other as
// siblings. Leaves, Weighted nodes and atomic groups are units. Boundaries
// take no tokens and are not units.
func units(m *measured) []*measured {
	switch m.kind {
	case kindGroup, kindMessage, kindReference:
		var out []*measured
		for _, c := range m.children {
			out = append(out, units(c)...)
		}
		return out
	case kindBoundary:
		return nil
	}
	return []*measured{m}
}

// emit collects the pieces of m in document order from the rendered state of
// its units.
func emit(m *measured) []Piece {
	switch m.kind {
	case kindGroup, kindMessage:
		var out []Piece
		for _, c := range m.children {
			out = append(out, emit(c)...)
		}
		return out
	case kindBoundary:
		return []Piece{{Kind: PieceBoundary}}
	case kindReference:
		ref := Piece{Kind: PieceReference, RefID: m.ref.ID, RefValue: m.ref.Value}
		if len(m.children) == 0 {
			return []Piece{ref}
		}
		pieces := emit(m.children[0])
		if !hasText(pieces) {
			return pieces
		}
		return append([]Piece{ref}, pieces...)
	}
	return m.pieces
}

// renderUnit renders one unit within grant tokens. The result never exceeds
// grant.
func (r *Renderer) renderUnit(m *measured, grant int) ([]Piece, int, error) {
	switch m.kind {
	case kindLeaf:
		return r.renderLeaf(m, grant)

	case kindWeighted:
		if m.cap > 0 && grant > m.cap {
			grant = m.cap
		}
		return r.renderSubtree(m.children[0], grant)

	case kindAtomic:
		if grant < m.size {
			if m.size > 0 {
				r.logger.Debug("atomic group dropped",
					slog.String("path", m.path),
					slog.Int("size", m.size),
					slog.Int("grant", grant))
			}
			return nil, 0, nil
		}
		return r.renderSubtree(m.children[0], m.size)
	}
	return nil, 0, nil
}

func (r *Renderer) renderSubtree(m *measured, grant int) ([]Piece, int, error) {
	used, err := r.allocateUnits(units(m), grant)
	if err != nil {
		return nil, 0, err
	}
	return emit(m), used, nil
}

func (r *Renderer) renderLeaf(m *measured, grant int) ([]Piece, int, error) {
	if m.text == "" {
		return nil, 0, nil
	}
	if grant >= m.size {
		return []Piece{{Kind: PieceText, Role: m.role, Text: m.text, Tokens: m.size}}, m.size, nil
	}
	if grant <= 0 {
		r.logger.Debug("text dropped", slog.String("path", m.path), slog.Int("size", m.size))
		return nil, 0, nil
	}

	out, _, err := r.truncator.Truncate(m.text, grant)
	if err != nil {
		return nil, 0, prompt.NewEstimatorError(m.text, err)
	}
	if out == "" {
		return nil, 0, nil
	}
	used, err := r.estimate(out)
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("text truncated",
		slog.String("path", m.path),
		slog.Int("size", m.size),
		slog.Int("used", used))
	return []Piece{{Kind: PieceText, Role: m.role, Text: out, Tokens: used}}, used, nil
}

// allocateUnits distributes grant among sibling units and records each
// unit's rendered state. Units are visited by priority, highest first, with
// document order breaking ties. Each unit takes what it wants while the
// minimums of the units not yet visited stay reserved; a unit that does not
// fit is cut to what remains unless it is all-or-nothing, in which case it
// keeps only its minimum. A unit is rendered as soon as it is granted and
// only what it actually uses is taken, so later units compete for the real
// remainder. Tokens still unused at the end go to partially rendered units
// with a positive flex weight, in proportion to that weight. It returns the
// tokens used, which never exceed grant.
func (r *Renderer) allocateUnits(us []*measured, grant int) (int, error) {
	n := len(us)
	if n == 0 {
		return 0, nil
	}

	order := make([]int, n)
	pending := 0
	for i, u := range us {
		order[i] = i
		pending += u.min
	}
	sort.SliceStable(order, func(a, b int) bool {
		return us[order[a]].priority > us[order[b]].priority
	})

	pieces := make([][]Piece, n)
	used := make([]int, n)
	remaining := grant
	for _, i := range order {
		u := us[i]
		pending -= u.min
		want := u.want()
		avail := remaining - pending

		var g int
		switch {
		case want <= avail:
			g = want
		case u.allOrNothing():
			g = u.min
		default:
			g = max(avail, u.min)
		}
		g = max(min(g, remaining), 0)

		p, got, err := r.renderUnit(u, g)
		if err != nil {
			return 0, err
		}
		pieces[i], used[i] = p, got
		remaining -= got
	}

	total := grant - remaining
	if remaining > 0 {
		var err error
		total, err = r.redistribute(us, order, pieces, used, remaining)
		if err != nil {
			return 0, err
		}
	}

	for i, u := range us {
		u.pieces, u.used = pieces[i], used[i]
	}
	return total, nil
}

// redistribute hands leftover tokens to flexible units that rendered below
// what they want, re-rendering them with the larger grant. It returns the new
// total used.
func (r *Renderer) redistribute(us []*measured, order []int, pieces [][]Piece, used []int, leftover int) (int, error) {
	saturated := make([]bool, len(us))
	for round := 0; leftover > 0 && round < maxFlexRounds; round++ {
		var candidates []int
		totalFlex := 0.0
		for _, i := range order {
			u := us[i]
			if saturated[i] || u.flex <= 0 || u.allOrNothing() || used[i] >= u.want() {
				continue
			}
			candidates = append(candidates, i)
			totalFlex += u.flex
		}
		if len(candidates) == 0 {
			break
		}

		shares := make([]int, len(candidates))
		granted := 0
		for k, i := range candidates {
			shares[k] = int(float64(leftover) * us[i].flex / totalFlex)
			granted += shares[k]
		}
		if granted == 0 {
			shares[0] = leftover
		}

		r.logger.Debug("redistributing leftover tokens",
			slog.Int("round", round),
			slog.Int("leftover", leftover),
			slog.Int("candidates", len(candidates)))

		for k, i := range candidates {
			g := min(used[i]+shares[k], us[i].want())
			if g <= used[i] {
				saturated[i] = true
				continue
			}
			p, got, err := r.renderUnit(us[i], g)
			if err != nil {
				return 0, err
			}
			if got <= used[i] || got > g {
				saturated[i] = true
				continue
			}
			leftover -= got - used[i]
			pieces[i], used[i] = p, got
		}
	}

	total := 0
	for _, u := range used {
		total += u
	}
	return total, nil
}

func hasText(pieces []Piece) bool {
	for _, p := range pieces {
		if p.Kind == PieceText && p.Text != "" {
			return true
		}
	}
	return false
}
