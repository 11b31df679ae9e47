// Package template renders agent prompts.
package template

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/spboyer/forge/internal/models"
)

//go:embed prompts/*.tmpl
var prompts embed.FS

// Built-in prompt names.
const (
	ProducerPrompt  = "producer.tmpl"
	EvaluatorPrompt = "evaluator.tmpl"
)

// Criterion is one voting criterion as shown to an evaluator.
type Criterion struct {
	Name        string
	Description string
	Percent     int
}

// Context holds all variables available for template resolution.
type Context struct {
	AgentName string
	Direction string

	Genre string
	Plot  string

	// Candidates are listed in the order they should be presented.
	Candidates []*models.Candidate
	Criteria   []Criterion

	// User-defined variables from the agent's params
	Vars map[string]string
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// Render resolves template expressions in the given string.
// Uses Go's text/template syntax: {{.Genre}}, {{.Vars.myvar}}.
// Returns the input unchanged if it contains no template delimiters.
func Render(tmpl string, ctx *Context) (string, error) {
	// Fast path: no template delimiters means no work to do.
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("template: parse: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("template: render: %w", err)
	}

	return buf.String(), nil
}

// Builtin returns the text of a built-in prompt.
func Builtin(name string) (string, error) {
	raw, err := prompts.ReadFile("prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("template: no built-in prompt %q", name)
	}
	return string(raw), nil
}

// RenderBuiltin renders a built-in prompt.
func RenderBuiltin(name string, ctx *Context) (string, error) {
	tmpl, err := Builtin(name)
	if err != nil {
		return "", err
	}
	return Render(tmpl, ctx)
}
