package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI-compatible provider kinds.
const (
	KindOpenAI   = "openai"
	KindDeepSeek = "deepseek"
	KindOllama   = "ollama"
)

type openAIDefaults struct {
	baseURL string
	model   string
}

var openAIKinds = map[string]openAIDefaults{
	KindOpenAI:   {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
	KindDeepSeek: {baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat"},
	KindOllama:   {baseURL: "http://localhost:11434/v1", model: "llama3.1"},
}

// langchaingo reports HTTP failures only in the error text.
var statusCodePattern = regexp.MustCompile(`status code: (\d{3})`)

// OpenAIProvider talks to any OpenAI-compatible chat completions API.
type OpenAIProvider struct {
	name  string
	model string
	llm   llms.Model
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds a provider for the openai, deepseek or ollama kind.
// Ollama does not check the key, so a placeholder is used when none is set.
func NewOpenAIProvider(spec ProviderSpec) (*OpenAIProvider, error) {
	defaults, ok := openAIKinds[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible kind %q", spec.Kind)
	}

	token := spec.ResolveAPIKey()
	if token == "" {
		if spec.Kind != KindOllama {
			return nil, fmt.Errorf("%s: %w", spec.DisplayName(), ErrMissingAPIKey)
		}
		token = "ollama"
	}
	baseURL := spec.BaseURL
	if baseURL == "" {
		baseURL = defaults.baseURL
	}
	model := spec.Model
	if model == "" {
		model = defaults.model
	}

	client, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", spec.Kind, err)
	}
	return &OpenAIProvider{name: spec.DisplayName(), model: model, llm: client}, nil
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, m := range req.Messages {
		messages = append(messages, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := p.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, newProviderError(p.name, statusFromError(err), err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, &ProviderError{Provider: p.name, Err: ErrEmptyResponse}
	}
	return &Response{Text: resp.Choices[0].Content, Provider: p.name, Model: p.model}, nil
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func statusFromError(err error) int {
	m := statusCodePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}
