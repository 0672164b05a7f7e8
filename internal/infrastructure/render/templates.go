// Package render turns notification contexts into HTML bodies, the textual mail part
// and the PNG snapshot.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/ports"
)

const (
	bodyTemplate = "template.html"
	styleSheet   = "style.css"
)

//go:embed templates/*
var embedded embed.FS

const fonts = `
<link rel="preconnect" href="https://fonts.googleapis.com">
<link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
<link href="https://fonts.googleapis.com/css2?family=Montserrat:wght@400;700&family=Mountains+of+Christmas:wght@400;700&display=swap" rel="stylesheet">
`

// Templates renders the body template and exposes the shared stylesheet.
type Templates struct {
	body  *template.Template
	style string
}

var _ ports.Renderer = (*Templates)(nil)

// LoadTemplates reads template.html and style.css from dir, or the built-in copies when dir is empty.
func LoadTemplates(dir string) (*Templates, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("open embedded templates: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	body, err := template.ParseFS(fsys, bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", bodyTemplate, err)
	}

	style, err := fs.ReadFile(fsys, styleSheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", styleSheet, err)
	}

	return &Templates{body: body, style: string(style)}, nil
}

// Render executes the body template.
func (t *Templates) Render(rc domain.RenderContext) (string, error) {
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, rc); err != nil {
		return "", fmt.Errorf("render body for %s: %w", rc.Giver.Name, err)
	}
	return buf.String(), nil
}

// Style returns the stylesheet inlined into finalized documents.
func (t *Templates) Style() string {
	return t.style
}

// Document wraps body with the fonts and the stylesheet.
func (t *Templates) Document(body string) string {
	return Finalize(body, t.style)
}

// Finalize wraps a body fragment into a full HTML document.
func Finalize(body, style string) string {
	return "<html><head>" + fonts + "<style>" + style + "</style></head><body>" + body + "</body></html>"
}
