package console

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns Markdown into styled terminal output.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer builds a glamour renderer. When styled is false, or glamour
// cannot start, Render returns its input unchanged.
func NewRenderer(styled bool) *Renderer {
	if !styled {
		return &Renderer{}
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{term: term}
}

func (r *Renderer) Render(md string) string {
	if r.term == nil {
		return md
	}
	out, err := r.term.Render(md)
	if err != nil {
		return md
	}
	return out
}
