package openai

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	titlePlaceholder   = "{{title}}"
	contentPlaceholder = "{{originalContent}}"
)

// PromptTemplate holds the message list sent to the completion endpoint.
// Entries carry either fixed content or a template with placeholder
// substitution for the review title and original content.
type PromptTemplate struct {
	Messages []PromptMessage `json:"messages"`
}

// PromptMessage is a single role/content pair. Exactly one of Content and
// Template should be set.
type PromptMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content,omitempty"`
	Template string `json:"template,omitempty"`
}

// DefaultPromptTemplate returns the built-in improvement prompt, used when no
// prompt file is configured.
func DefaultPromptTemplate() PromptTemplate {
	return PromptTemplate{
		Messages: []PromptMessage{
			{
				Role:    "system",
				Content: "You are an assistant that improves user book reviews. Keep the author's voice and language, fix structure and clarity, and return only the improved review text.",
			},
			{
				Role:     "user",
				Template: "Title: {{title}}\n\nReview:\n{{originalContent}}",
			},
		},
	}
}

// LoadPromptTemplate reads a prompt template from a JSON file.
func LoadPromptTemplate(path string) (PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PromptTemplate{}, fmt.Errorf("read prompt file %s: %w", path, err)
	}

	var tpl PromptTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		return PromptTemplate{}, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	if err := tpl.validate(); err != nil {
		return PromptTemplate{}, fmt.Errorf("prompt file %s: %w", path, err)
	}
	return tpl, nil
}

func (t PromptTemplate) validate() error {
	if len(t.Messages) == 0 {
		return fmt.Errorf("prompt template must include a messages array")
	}
	for i, msg := range t.Messages {
		if strings.TrimSpace(msg.Role) == "" {
			return fmt.Errorf("message %d: role must not be blank", i)
		}
		if strings.TrimSpace(msg.Content) == "" && strings.TrimSpace(msg.Template) == "" {
			return fmt.Errorf("message %d: content or template must be set", i)
		}
	}
	return nil
}

// Render substitutes the title and original content into the template and
// returns the message list for the completion request.
func (t PromptTemplate) Render(title, originalContent string) []Message {
	messages := make([]Message, 0, len(t.Messages))
	for _, msg := range t.Messages {
		content := msg.Content
		if content == "" {
			content = strings.ReplaceAll(msg.Template, titlePlaceholder, title)
			content = strings.ReplaceAll(content, contentPlaceholder, originalContent)
		}
		messages = append(messages, Message{Role: msg.Role, Content: content})
	}
	return messages
}
