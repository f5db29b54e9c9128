package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

func loadPrompt(templatePath string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templatesFS, templatePath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

// extractJSONObject trims chatter and code fences around a JSON object.
func extractJSONObject(response string) (string, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return response[start : end+1], true
}

// extractJSONArray trims chatter and code fences around a JSON array.
func extractJSONArray(response string) (string, bool) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return response[start : end+1], true
}
