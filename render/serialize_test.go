package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/promptkit/prompt"
)

func TestSerialize(t *testing.T) {
	text := func(role prompt.Role, s string, n int) Piece {
		return Piece{Kind: PieceText, Role: role, Text: s, Tokens: n}
	}
	boundary := Piece{Kind: PieceBoundary}
	ref := func(id string) Piece {
		return Piece{Kind: PieceReference, RefID: id}
	}

	tests := []struct {
		name       string
		pieces     []Piece
		messages   []Message
		boundaries []int
		refs       []string
		total      int
	}{
		{
			name:       "empty",
			messages:   []Message{},
			boundaries: []int{},
			refs:       []string{},
		},
		{
			name: "same role merges",
			pieces: []Piece{
				text(prompt.RoleUser, "a", 1),
				text(prompt.RoleUser, "b", 2),
			},
			messages:   []Message{{Role: prompt.RoleUser, Content: "ab", Tokens: 3}},
			boundaries: []int{},
			refs:       []string{},
			total:      3,
		},
		{
			name: "role change splits",
			pieces: []Piece{
				text(prompt.RoleUser, "a", 1),
				text(prompt.RoleAssistant, "b", 1),
				text(prompt.RoleUser, "c", 1),
			},
			messages: []Message{
				{Role: prompt.RoleUser, Content: "a", Tokens: 1},
				{Role: prompt.RoleAssistant, Content: "b", Tokens: 1},
				{Role: prompt.RoleUser, Content: "c", Tokens: 1},
			},
			boundaries: []int{},
			refs:       []string{},
			total:      3,
		},
		{
			name: "boundary splits same role",
			pieces: []Piece{
				text(prompt.RoleSystem, "a", 1),
				boundary,
				text(prompt.RoleSystem, "b", 1),
			},
			messages: []Message{
				{Role: prompt.RoleSystem, Content: "a", Tokens: 1},
				{Role: prompt.RoleSystem, Content: "b", Tokens: 1},
			},
			boundaries: []int{1},
			refs:       []string{},
			total:      2,
		},
		{
			name: "empty text dropped and does not split",
			pieces: []Piece{
				text(prompt.RoleUser, "a", 1),
				text(prompt.RoleAssistant, "", 0),
				text(prompt.RoleUser, "b", 1),
			},
			messages:   []Message{{Role: prompt.RoleUser, Content: "ab", Tokens: 2}},
			boundaries: []int{},
			refs:       []string{},
			total:      2,
		},
		{
			name: "leading and duplicate boundaries dropped",
			pieces: []Piece{
				boundary,
				text(prompt.RoleUser, "a", 1),
				boundary,
				boundary,
			},
			messages:   []Message{{Role: prompt.RoleUser, Content: "a", Tokens: 1}},
			boundaries: []int{1},
			refs:       []string{},
			total:      1,
		},
		{
			name: "references de-duplicated in first-seen order",
			pieces: []Piece{
				ref("b"),
				ref("a"),
				ref("b"),
			},
			messages:   []Message{},
			boundaries: []int{},
			refs:       []string{"b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Serialize(tt.pieces)
			assert.Equal(t, tt.messages, res.Messages)
			assert.Equal(t, tt.boundaries, res.CacheBoundaries)
			assert.Equal(t, tt.total, res.TotalTokens)

			ids := []string{}
			for _, r := range res.References {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.refs, ids)
		})
	}
}
