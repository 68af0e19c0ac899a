package ui

import (
	"embed"
	"html/template"
	"io"
	"sync"
)

const (
	PageTemplate     = "page"
	ComposerTemplate = "composer"
	FeedTemplate     = "feed"
	SignInTemplate   = "sign_in"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	templatesOnce sync.Once
	templates     *template.Template
)

// Templates returns the parsed page templates.
func Templates() *template.Template {
	templatesOnce.Do(func() {
		templates = template.Must(template.New("ui").ParseFS(templateFS, "templates/*.html"))
	})
	return templates
}

func (c *Composer) Render(w io.Writer) error {
	return Templates().ExecuteTemplate(w, ComposerTemplate, c.View())
}

func (f *Feed) Render(w io.Writer) error {
	return Templates().ExecuteTemplate(w, FeedTemplate, f.View())
}

// SignInView is the data of the sign-in form.
type SignInView struct {
	Title    string
	Error    string
	Username string
}
