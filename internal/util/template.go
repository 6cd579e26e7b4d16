package util

import (
	"bytes"
	"strings"
	"text/template"
)

// RenderTemplate substitutes {{.key}} markers in instruction text using
// session state. Text without template markers is returned unchanged.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", err
	}
	return buf.String(), nil
}
