package prompts

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

const systemPromptTemplate = `You are a helpful AI assistant. Your responses should be concise, accurate, and helpful. If you don't know something, say so rather than making up information.
{{- if .Knowledge}}

Use the following stored knowledge when it is relevant to the user's message.
{{formatKnowledge .Knowledge}}
{{- end}}`

// SystemData holds the values rendered into the system prompt.
type SystemData struct {
	// Knowledge maps knowledge keys to their values.
	Knowledge map[string]string
}

// System renders the system instruction sent as the first message of every request.
func System(data SystemData) (string, error) {
	return generateFromTemplate(systemPromptTemplate, data)
}

// generateFromTemplate is a generic function that generates a prompt from any template and data.
func generateFromTemplate[T any](templateString string, data T) (string, error) {
	funcMap := template.FuncMap{
		"formatKnowledge": formatKnowledge,
	}

	tmpl, err := template.New("prompt").Funcs(funcMap).Parse(templateString)
	if err != nil {
		return "", err
	}
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, data); err != nil {
		return "", err
	}
	return prompt.String(), nil
}

// formatKnowledge formats the entries as key-value pairs within Knowledge tags, sorted by key.
func formatKnowledge(knowledge map[string]string) string {
	if len(knowledge) == 0 {
		return ""
	}

	keys := make([]string, 0, len(knowledge))
	for key := range knowledge {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString("<Knowledge>\n")
	for _, key := range keys {
		builder.WriteString(fmt.Sprintf("%s: %s\n", key, knowledge[key]))
	}
	builder.WriteString("</Knowledge>")
	return builder.String()
}
