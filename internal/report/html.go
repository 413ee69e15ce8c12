package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/nao1215/markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/nao1215/wcagscan/internal/model"
)

// HTML report themes.
const (
	ThemeDefault = "defaultTheme"
	ThemeDark    = "darkTheme"
	ThemeLight   = "lightTheme"
)

// themes maps a theme name to its stylesheet.
var themes = map[string]string{
	ThemeDefault: `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:72rem;color:#1f2328;background:#f6f8fa;padding:0 1rem}
table{border-collapse:collapse;margin:1rem 0;width:100%}th,td{border:1px solid #d0d7de;padding:.4rem .6rem;text-align:left;vertical-align:top}
th{background:#eaeef2}pre{background:#fff;border:1px solid #d0d7de;padding:.8rem;overflow:auto}a{color:#0969da}`,
	ThemeDark: `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:72rem;color:#e6edf3;background:#0d1117;padding:0 1rem}
table{border-collapse:collapse;margin:1rem 0;width:100%}th,td{border:1px solid #30363d;padding:.4rem .6rem;text-align:left;vertical-align:top}
th{background:#161b22}pre{background:#161b22;border:1px solid #30363d;padding:.8rem;overflow:auto}a{color:#4493f8}`,
	ThemeLight: `body{font-family:Georgia,serif;margin:2rem auto;max-width:72rem;color:#222;background:#fff;padding:0 1rem}
table{border-collapse:collapse;margin:1rem 0;width:100%}th,td{border:1px solid #ccc;padding:.4rem .6rem;text-align:left;vertical-align:top}
th{background:#f4f4f4}pre{background:#fafafa;border:1px solid #ccc;padding:.8rem;overflow:auto}a{color:#0645ad}`,
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body class="{{.Theme}}">
{{.Body}}
</body>
</html>
`))

// HTMLWriter outputs run reports as a standalone HTML page.
// The page body is the Markdown report rendered with goldmark.
type HTMLWriter struct {
	baseWriter
	doc   document
	theme string
}

// HTMLOption configures an HTMLWriter.
type HTMLOption func(*HTMLWriter)

// WithHTMLTitle sets the page title and heading.
func WithHTMLTitle(title string) HTMLOption {
	return func(w *HTMLWriter) {
		if title != "" {
			w.doc.title = title
		}
	}
}

// WithHTMLTheme selects one of the report themes. Unknown names are
// rejected by Write.
func WithHTMLTheme(theme string) HTMLOption {
	return func(w *HTMLWriter) {
		if theme != "" {
			w.theme = theme
		}
	}
}

// WithHTMLFailureMessages includes the failure text of every failed test.
func WithHTMLFailureMessages(include bool) HTMLOption {
	return func(w *HTMLWriter) {
		w.doc.failureMessages = include
	}
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, opts ...HTMLOption) *HTMLWriter {
	w := &HTMLWriter{
		baseWriter: newBaseWriter(output),
		doc: document{
			title:           DefaultTitle,
			failureMessages: true,
		},
		theme: ThemeDefault,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run as an HTML page.
func (w *HTMLWriter) Write(run *model.RunReport) (int, error) {
	style, ok := themes[w.theme]
	if !ok {
		return 0, fmt.Errorf("unknown HTML theme %q", w.theme)
	}

	var src bytes.Buffer
	md := markdown.NewMarkdown(&src)
	w.doc.build(md, run)
	if err := md.Build(); err != nil {
		return 0, fmt.Errorf("failed to build report markdown: %w", err)
	}

	var body bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := converter.Convert(src.Bytes(), &body); err != nil {
		return 0, fmt.Errorf("failed to render report markdown: %w", err)
	}

	css := template.CSS(style)              //nolint:gosec // constant stylesheet
	content := template.HTML(body.String()) //nolint:gosec // goldmark omits raw HTML by default

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Style template.CSS
		Theme string
		Body  template.HTML
	}{
		Title: w.doc.title,
		Style: css,
		Theme: w.theme,
		Body:  content,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to render report page: %w", err)
	}

	return w.output.Write(page.Bytes())
}
