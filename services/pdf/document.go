package pdf

import (
	"embed"
	"strconv"
	"strings"
	"text/template"
)

//go:embed assets/document.css assets/document.html.tmpl
var assets embed.FS

// StyleSheetVersion identifies the embedded style sheet. Pagination and typography
// of every generated document depend on it, so bump it on any change.
const StyleSheetVersion = "documento-v1"

var (
	styleSheet       = mustReadAsset("assets/document.css")
	documentTemplate = template.Must(
		template.New("document").
			Funcs(template.FuncMap{"mm": formatMM}).
			Parse(mustReadAsset("assets/document.html.tmpl")),
	)
)

type documentData struct {
	PageConfig
	StyleSheet      string
	ViewportWidthPx int
	Content         string
}

// StyleSheet returns the fixed style sheet applied to every document.
func StyleSheet() string {
	return styleSheet
}

// BuildDocument wraps an HTML fragment into a complete, self-contained document
// laid out for the given page. The fragment is inserted verbatim.
func BuildDocument(fragment string, cfg PageConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(styleSheet) + len(fragment) + 1024)
	err := documentTemplate.Execute(&sb, documentData{
		PageConfig:      cfg,
		StyleSheet:      styleSheet,
		ViewportWidthPx: cfg.ContentWidthPx(),
		Content:         fragment,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func mustReadAsset(name string) string {
	b, err := assets.ReadFile(name)
	if err != nil {
		panic("pdf: missing embedded asset " + name + ": " + err.Error())
	}
	return string(b)
}
