// Package render turns site records into HTML fragments using named
// templates, and converts fragments for display in a terminal.
package render

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/morikuni/failure/v2"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names
const (
	SiteDataItem     = "siteData/item"
	SiteDataError    = "siteData/error"
	RelatedLinkItem  = "relatedLink/item"
	RelatedLinkError = "relatedLink/error"
	PageLayout       = "page"
)

// ErrorCode defines error types for rendering
type ErrorCode string

const (
	ErrTemplateNotFound ErrorCode = "TemplateNotFound"
	ErrRender           ErrorCode = "RenderFailed"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Renderer produces an HTML fragment from a named template and a data object
type Renderer interface {
	Render(name string, data any) (string, error)
}

// Templates is the Renderer backed by the embedded template set
type Templates struct {
	t *template.Template
}

var _ Renderer = (*Templates)(nil)

// New parses the embedded templates
func New() (*Templates, error) {
	t, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrRender), failure.Message("Failed to parse templates"))
	}
	return &Templates{t: t}, nil
}

// Render executes the named template with data and returns the fragment
func (t *Templates) Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := t.execute(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// PageData is the data for the page layout
type PageData struct {
	Title       string
	SessionPath string
}

// Page writes the full page layout to w
func (t *Templates) Page(w io.Writer, data PageData) error {
	return t.execute(w, PageLayout, data)
}

func (t *Templates) execute(w io.Writer, name string, data any) error {
	tmpl := t.t.Lookup(name)
	if tmpl == nil {
		return failure.New(ErrTemplateNotFound,
			failure.Message("Unknown template"),
			failure.Context{"template": name},
		)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return failure.Wrap(err, failure.WithCode(ErrRender), failure.Context{"template": name})
	}
	return nil
}
