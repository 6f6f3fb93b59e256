package markup

import (
	"embed"
	"io/fs"
	"strings"
	"sync"

	"github.com/goliatone/go-lookup/pkg/render/gotemplate"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

var (
	engineOnce sync.Once
	engine     *gotemplate.Engine
	engineErr  error
)

func templates() (*gotemplate.Engine, error) {
	engineOnce.Do(func() {
		engine, engineErr = gotemplate.New(
			gotemplate.WithFS(TemplatesFS()),
			gotemplate.WithExtension(".tmpl"),
			gotemplate.WithGlobalData(map[string]any{
				"classes": map[string]any{
					"suggestions":  ClassSuggestions,
					"item":         ClassItem,
					"active":       ClassActive,
					"empty":        ClassEmpty,
					"trigger":      ClassTrigger,
					"modal":        ClassModal,
					"search_input": ClassSearchInput,
					"search_go":    ClassSearchGo,
					"close":        ClassClose,
					"results":      ClassResults,
				},
				"attrs": map[string]any{
					"entity":        AttrEntity,
					"endpoint":      AttrEndpoint,
					"limit":         AttrLimit,
					"mode":          AttrMode,
					"target_prefix": AttrTargetPrefix,
					"index":         AttrIndex,
					"session":       AttrSession,
				},
				"empty_text": EmptyText,
			}),
		)
	})
	return engine, engineErr
}

func renderTemplate(name string, data map[string]any) (string, error) {
	tmpl, err := templates()
	if err != nil {
		return "", err
	}
	out, err := tmpl.RenderTemplate("templates/"+name, data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
