package render

import (
	"strings"

	html2md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/charmbracelet/glamour"
	"github.com/morikuni/failure/v2"
)

// Terminal converts HTML fragments to markdown and styles them for a terminal
type Terminal struct {
	converter *html2md.Converter
	glamour   *glamour.TermRenderer
}

// NewTerminal creates a Terminal wrapping lines at width.
// Styling is skipped when styled is false, leaving plain markdown.
func NewTerminal(width int, styled bool) (*Terminal, error) {
	t := &Terminal{
		converter: html2md.NewConverter("", true, &html2md.Options{}),
	}
	if !styled {
		return t, nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrRender))
	}
	t.glamour = r
	return t, nil
}

// Markdown converts the concatenated fragments to markdown
func (t *Terminal) Markdown(fragments []string) (string, error) {
	md, err := t.converter.ConvertString(strings.Join(fragments, ""))
	if err != nil {
		return "", failure.Wrap(err, failure.WithCode(ErrRender))
	}
	return md, nil
}

// Render converts the fragments to markdown and styles it when enabled
func (t *Terminal) Render(fragments []string) (string, error) {
	md, err := t.Markdown(fragments)
	if err != nil {
		return "", err
	}
	if t.glamour == nil {
		return md, nil
	}

	out, err := t.glamour.Render(md)
	if err != nil {
		return "", failure.Wrap(err, failure.WithCode(ErrRender))
	}
	return out, nil
}
