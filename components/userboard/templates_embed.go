package userboard

import (
	"embed"
	"fmt"
	"io/fs"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// NewTemplateRenderer creates a go-template renderer that reads only the
// embedded templates, so it works from any working directory.
func NewTemplateRenderer() (Renderer, error) {
	templates, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("userboard: embedded templates: %w", err)
	}
	return template.NewRenderer(
		template.WithFS(templates),
		template.WithExtension(".html"),
	)
}
