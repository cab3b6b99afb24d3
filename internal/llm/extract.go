package llm

import (
	"encoding/json"
	"strings"
)

// Extractor pulls assistant text out of a decoded response envelope.
// It returns ok=false when the envelope does not have its shape.
type Extractor struct {
	Name    string
	Extract func(envelope map[string]any) (string, bool)
}

// Extractors are tried in order; the first match wins.
var Extractors = []Extractor{
	{Name: "output.content.output_text", Extract: fromOutputItems},
	{Name: "choices.message.content", Extract: fromChoices},
	{Name: "output_text", Extract: fromOutputText},
	{Name: "content.text", Extract: fromContentList},
	{Name: "message", Extract: fromMessage},
}

// ExtractContent decodes body and runs Extractors. Bodies that are not JSON
// objects, or match no extractor, yield empty content.
func ExtractContent(body []byte) (envelope map[string]any, content, source string) {
	if err := json.Unmarshal(body, &envelope); err != nil || envelope == nil {
		return map[string]any{}, "", ""
	}
	for _, ex := range Extractors {
		if text, ok := ex.Extract(envelope); ok {
			return envelope, text, ex.Name
		}
	}
	return envelope, "", ""
}

func fromOutputItems(env map[string]any) (string, bool) {
	items, ok := env["output"].([]any)
	if !ok {
		return "", false
	}
	var texts []string
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		parts, _ := obj["content"].([]any)
		for _, p := range parts {
			part, ok := p.(map[string]any)
			if !ok || part["type"] != "output_text" {
				continue
			}
			if text, ok := part["text"].(string); ok {
				texts = append(texts, text)
			}
		}
	}
	joined := strings.Join(texts, "\n")
	return joined, joined != ""
}

func fromChoices(env map[string]any) (string, bool) {
	choices, ok := env["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := first["message"].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := msg["content"].(string)
	return text, ok && text != ""
}

func fromOutputText(env map[string]any) (string, bool) {
	text, ok := env["output_text"].(string)
	return text, ok
}

func fromContentList(env map[string]any) (string, bool) {
	parts, ok := env["content"].([]any)
	if !ok {
		return "", false
	}
	for _, p := range parts {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := part["text"].(string); ok && text != "" {
			return text, true
		}
		if text, ok := part["output_text"].(string); ok && text != "" {
			return text, true
		}
	}
	return "", true
}

func fromMessage(env map[string]any) (string, bool) {
	text, ok := env["message"].(string)
	return text, ok
}

// StringField returns env[key] when it is a non-empty string, else def.
func StringField(env map[string]any, key, def string) string {
	if s, ok := env[key].(string); ok && s != "" {
		return s
	}
	return def
}
