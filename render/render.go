// Package render turns a finished letter into a downloadable document.
package render

import (
	"bytes"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// ParseFormat accepts "text", "txt", "html" and "htm", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", errors.Errorf("unknown format %q (expected text or html)", s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".txt"
}

// Document is a letter with the context shown around it.
type Document struct {
	Letter      string
	CompanyName string
	Sources     []string
	GeneratedAt time.Time
}

// Text returns the letter as plain text with a trailing newline.
func Text(doc Document) string {
	return strings.TrimSpace(doc.Letter) + "\n"
}

var page = template.Must(template.New("letter").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 42rem; margin: 3rem auto; line-height: 1.55; color: #222; }
footer { margin-top: 3rem; font-size: 0.85rem; color: #666; }
</style>
</head>
<body>
<article>
{{.Body}}
</article>
{{- if or .Sources .Date}}
<footer>
{{- if .Date}}
<p>Generated {{.Date}}</p>
{{- end}}
{{- if .Sources}}
<p>Company research sources:</p>
<ul>
{{- range .Sources}}
<li><a href="{{.}}">{{.}}</a></li>
{{- end}}
</ul>
{{- end}}
</footer>
{{- end}}
</body>
</html>
`))

type pageData struct {
	Title   string
	Body    template.HTML
	Sources []string
	Date    string
}

// HTML renders the letter as a standalone HTML page. The letter body is
// treated as Markdown.
func HTML(doc Document) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(strings.TrimSpace(doc.Letter)), &body); err != nil {
		return "", errors.Wrap(err, "failed to convert letter")
	}

	data := pageData{
		Title:   "Cover Letter",
		Body:    template.HTML(body.String()),
		Sources: doc.Sources,
	}
	if doc.CompanyName != "" {
		data.Title = "Cover Letter for " + doc.CompanyName
	}
	if !doc.GeneratedAt.IsZero() {
		data.Date = doc.GeneratedAt.Format("January 2, 2006")
	}

	var out bytes.Buffer
	if err := page.Execute(&out, data); err != nil {
		return "", errors.Wrap(err, "failed to render page")
	}
	return out.String(), nil
}

// Write renders doc in format f to w.
func Write(w io.Writer, f Format, doc Document) error {
	var content string
	switch f {
	case FormatHTML:
		html, err := HTML(doc)
		if err != nil {
			return err
		}
		content = html
	case FormatText:
		content = Text(doc)
	default:
		return errors.Errorf("unknown format %q", f)
	}
	_, err := io.WriteString(w, content)
	return errors.Wrap(err, "failed to write letter")
}
