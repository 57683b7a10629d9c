package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/airsift/airsift/pkg/config"
	"github.com/airsift/airsift/pkg/tools"
)

// openAIProvider serves both the openai backend and the local backend
// (any OpenAI-compatible server, e.g. Ollama, via BaseURL). The local
// path assumes no native tool calling and relies on free-form extraction.
type openAIProvider struct {
	client      *openai.Client
	cfg         config.LLMConfig
	registry    *tools.Registry
	executor    *tools.Executor
	extractMode bool
}

func newOpenAIProvider(cfg config.LLMConfig, registry *tools.Registry, executor *tools.Executor) (*openAIProvider, error) {
	key := apiKey(cfg, "OPENAI_API_KEY")
	if cfg.Backend == "openai" && key == "" {
		return nil, errors.New("openai backend requires an API key")
	}

	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		cfg:         cfg,
		registry:    registry,
		executor:    executor,
		extractMode: cfg.Backend == "local" && executor != nil,
	}, nil
}

func (p *openAIProvider) ProcessMessage(ctx context.Context, in *Input) (*Output, error) {
	out, err := withRetries(ctx, p.cfg.MaxAttempts, func() (*Output, error) {
		return p.complete(ctx, p.buildMessages(in, ""), in)
	})
	if err != nil {
		return nil, err
	}

	// Local models declare tool intent in prose; run the calls and give
	// the model one final turn with the results.
	if p.extractMode {
		if calls := extractToolCalls(out.Text, p.registry); len(calls) > 0 {
			transcript, used := runExtractedCalls(ctx, p.executor, calls)
			if transcript != "" {
				final, err := withRetries(ctx, p.cfg.MaxAttempts, func() (*Output, error) {
					return p.complete(ctx, p.buildMessages(in, out.Text+"\n\n"+transcript), in)
				})
				if err == nil {
					final.ToolsUsed = used
					final.TokensUsed += out.TokensUsed
					return final, nil
				}
			}
		}
	}
	return out, nil
}

func (p *openAIProvider) buildMessages(in *Input, toolTranscript string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(in.History)+3)
	if in.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: in.System})
	}
	for _, m := range in.History {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: in.Message})
	if toolTranscript != "" {
		msgs = append(msgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: toolTranscript},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser,
				Content: "Answer the question using the tool results above."})
	}
	return msgs
}

func (p *openAIProvider) complete(ctx context.Context, msgs []openai.ChatCompletionMessage, in *Input) (*Output, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    msgs,
		Temperature: in.Temperature,
		TopP:        in.TopP,
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	choice := resp.Choices[0]
	finish := FinishStop
	if choice.FinishReason == openai.FinishReasonLength {
		finish = FinishLength
	}
	return &Output{
		Text:         choice.Message.Content,
		TokensUsed:   resp.Usage.TotalTokens,
		FinishReason: finish,
	}, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (p *openAIProvider) GetToolSchemas() []tools.Definition {
	if p.registry == nil {
		return nil
	}
	return p.registry.Definitions()
}

func (p *openAIProvider) Setup(ctx context.Context) error {
	// Listing models is the cheapest credential check. Local servers may
	// not implement it; treat that as non-fatal.
	if _, err := p.client.ListModels(ctx); err != nil && p.cfg.Backend == "openai" {
		return fmt.Errorf("openai credential check failed: %w", err)
	}
	return nil
}

func (p *openAIProvider) Cleanup() error {
	return nil
}
