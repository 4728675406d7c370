package render

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/creastat/contractbot"
)

// Default action delimiters. Braces are everywhere in LaTeX, brackets around
// brackets almost never are.
const (
	DefaultLeftDelim  = "[["
	DefaultRightDelim = "]]"
)

// Template is a parsed contract template.
type Template struct {
	tmpl *template.Template
}

// LoadTemplate reads and parses the template at path. Unknown keys make
// Execute fail instead of rendering "<no value>".
func LoadTemplate(path, left, right string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractbot.ErrTemplateLoad, err)
	}
	return ParseTemplate(path, string(data), left, right)
}

// ParseTemplate parses template text.
func ParseTemplate(name, text, left, right string) (*Template, error) {
	if left == "" {
		left = DefaultLeftDelim
	}
	if right == "" {
		right = DefaultRightDelim
	}
	tmpl, err := template.New(name).
		Delims(left, right).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractbot.ErrTemplateLoad, err)
	}
	return &Template{tmpl: tmpl}, nil
}

// Execute renders the template with ctx.
func (t *Template) Execute(ctx Context) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, map[string]string(ctx)); err != nil {
		return "", fmt.Errorf("%w: %v", contractbot.ErrRender, err)
	}
	return buf.String(), nil
}
