package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/ZaguanLabs/hfit"
)

// OpenAIProvider translates a batch with one chat completion that answers a
// JSON array of strings.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL for compatible APIs (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates a batch of texts using one chat completion.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &hfit.ProviderError{
			Provider:  NameOpenAI,
			Message:   "chat completion failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &hfit.ProviderError{
			Provider:  NameOpenAI,
			Message:   "empty completion",
			Retryable: true,
		}
	}

	return parseResponse(resp.Choices[0].Message.Content, len(req.Texts))
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}
	targetName := hfit.GetLanguageName(req.TargetLang)

	contextText := "The content is a web page."
	if req.Context != "" {
		contextText = fmt.Sprintf("The content is for: %s.", req.Context)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `# Role
You are a native %s translator. The source language is %s.

# Context
%s

# Register
%s

# Task
Each input string is one paragraph-level block of a web page, or one text run of a block.
Translate every string into idiomatic %s.
- Keep leading and trailing whitespace as it is.
- Do not translate URLs, email addresses, code, or placeholders such as {name} and %%s.
- Items with a "context" field carry a hint about where the text sits. Use it to disambiguate, never translate it.`,
		targetName, hfit.GetLanguageName(sourceLang), contextText, hfit.GetStyleDescription(req.Style), targetName)

	if len(req.Glossary) > 0 {
		b.WriteString("\n\n# Glossary\nPrefer these translations:")
		keys := make([]string, 0, len(req.Glossary))
		for k := range req.Glossary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n- %q → %s", k, req.Glossary[k])
		}
	}

	if len(req.ExcludedTerms) > 0 {
		b.WriteString("\n\n# Exclusions\nKeep these terms exactly as written:\n- ")
		b.WriteString(strings.Join(req.ExcludedTerms, "\n- "))
	}

	b.WriteString(`

# Format
Return a JSON object with a single key "translations" holding an array of strings, one per input, in input order.
Example: {"translations": ["first", "second"]}`)

	return b.String()
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	hasContexts := false
	for _, c := range req.TextContexts {
		if c != "" {
			hasContexts = true
			break
		}
	}

	if !hasContexts {
		data, _ := json.Marshal(req.Texts)
		return string(data)
	}

	type item struct {
		Text    string `json:"text"`
		Context string `json:"context,omitempty"`
	}
	items := make([]item, len(req.Texts))
	for i, text := range req.Texts {
		items[i].Text = text
		if i < len(req.TextContexts) {
			items[i].Context = req.TextContexts[i]
		}
	}
	data, _ := json.Marshal(map[string][]item{"items": items})
	return string(data)
}

// parseResponse accepts {"translations": [...]}, an object whose first
// array value holds the strings, or a bare array.
func parseResponse(content string, expectedCount int) ([]string, error) {
	if !gjson.Valid(content) {
		return nil, &hfit.ProviderError{
			Provider: NameOpenAI,
			Message:  "reply is not valid JSON",
		}
	}

	root := gjson.Parse(content)
	var arr gjson.Result
	switch {
	case root.IsArray():
		arr = root
	case root.Get("translations").IsArray():
		arr = root.Get("translations")
	case root.IsObject():
		root.ForEach(func(_, v gjson.Result) bool {
			if v.IsArray() {
				arr = v
				return false
			}
			return true
		})
	}
	if !arr.Exists() {
		return nil, &hfit.ProviderError{
			Provider: NameOpenAI,
			Message:  "reply holds no translation array",
		}
	}

	items := arr.Array()
	result := make([]string, len(items))
	for i, v := range items {
		result[i] = v.String()
	}
	if len(result) != expectedCount {
		return nil, &hfit.CountMismatchError{Expected: expectedCount, Got: len(result)}
	}
	return result, nil
}

func isRetryableError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"rate limit", "timeout", "connection refused", "temporary", "429", "502", "503"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements AIProvider
var _ AIProvider = (*OpenAIProvider)(nil)
