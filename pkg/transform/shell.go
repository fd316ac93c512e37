package transform

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var shell = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body>
{{.Body}}
{{- if .Notice}}
<p class="notice">{{.Notice}}</p>
{{- end}}
</body>
</html>
`))

// Render wraps body in the page shell
func Render(title, body, notice string) ([]byte, error) {
	var buf bytes.Buffer
	err := shell.Execute(&buf, struct {
		Title  string
		Body   template.HTML
		Notice string
	}{title, template.HTML(body), notice})
	if err != nil {
		return nil, fmt.Errorf("failed to render page shell: %w", err)
	}
	return buf.Bytes(), nil
}

// Document concatenates unwrapped fragments into one shared body
type Document struct {
	title     string
	notice    string
	body      strings.Builder
	fragments int
}

// NewDocument starts an empty single-document body
func NewDocument(title, notice string) *Document {
	return &Document{title: title, notice: notice}
}

// Append adds the unwrapped content region of f
func (d *Document) Append(f *Fragment) {
	if d.fragments > 0 {
		d.body.WriteString("\n")
	}
	d.body.WriteString(f.Inner)
	d.fragments++
}

// Len returns the number of appended fragments
func (d *Document) Len() int {
	return d.fragments
}

// Bytes renders the document in the page shell
func (d *Document) Bytes() ([]byte, error) {
	return Render(d.title, d.body.String(), d.notice)
}
