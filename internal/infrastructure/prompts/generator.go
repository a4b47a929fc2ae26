package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"

	"agent-platform/internal/domain/entity"
)

const noContext = "No prior context"

type ClassifierPromptData struct {
	Agents  []entity.AgentInfo
	Query   string
	Context string
}

// GenerateClassifierPrompt renders the routing prompt. Agents are listed by name.
func GenerateClassifierPrompt(baseTemplate string, agents []entity.AgentInfo, query string, queryContext map[string]any) (string, error) {
	sorted := make([]entity.AgentInfo, len(agents))
	copy(sorted, agents)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	data := ClassifierPromptData{
		Agents:  sorted,
		Query:   query,
		Context: formatContext(queryContext),
	}

	tmpl, err := template.New("classifier").Parse(baseTemplate)
	if err != nil {
		return "", fmt.Errorf("parse classifier template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render classifier template: %w", err)
	}

	return buf.String(), nil
}

func formatContext(queryContext map[string]any) string {
	if len(queryContext) == 0 {
		return noContext
	}
	// json.Marshal sorts map keys, which keeps the prompt stable.
	data, err := json.Marshal(queryContext)
	if err != nil {
		return fmt.Sprintf("%v", queryContext)
	}
	return string(data)
}
