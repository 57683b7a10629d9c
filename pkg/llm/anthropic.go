package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/airsift/airsift/pkg/config"
	"github.com/airsift/airsift/pkg/tools"
)

type anthropicProvider struct {
	client   anthropic.Client
	cfg      config.LLMConfig
	registry *tools.Registry
}

func newAnthropicProvider(cfg config.LLMConfig, registry *tools.Registry) (*anthropicProvider, error) {
	key := apiKey(cfg, "ANTHROPIC_API_KEY")
	if key == "" {
		return nil, errors.New("anthropic backend requires an API key")
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicProvider{
		client:   anthropic.NewClient(opts...),
		cfg:      cfg,
		registry: registry,
	}, nil
}

func (p *anthropicProvider) ProcessMessage(ctx context.Context, in *Input) (*Output, error) {
	return withRetries(ctx, p.cfg.MaxAttempts, func() (*Output, error) {
		return p.complete(ctx, in)
	})
}

func (p *anthropicProvider) complete(ctx context.Context, in *Input) (*Output, error) {
	msgs := make([]anthropic.MessageParam, 0, len(in.History)+1)
	for _, m := range in.History {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(in.Message)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Model),
		MaxTokens: int64(in.MaxTokens),
		Messages:  msgs,
	}
	if in.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: in.System}}
	}
	if in.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(in.Temperature))
	}
	if in.TopP > 0 {
		params.TopP = anthropic.Float(float64(in.TopP))
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	finish := FinishStop
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		finish = FinishLength
	}
	return &Output{
		Text:         text.String(),
		TokensUsed:   int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		FinishReason: finish,
	}, nil
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (p *anthropicProvider) GetToolSchemas() []tools.Definition {
	if p.registry == nil {
		return nil
	}
	return p.registry.Definitions()
}

func (p *anthropicProvider) Setup(ctx context.Context) error {
	return nil
}

func (p *anthropicProvider) Cleanup() error {
	return nil
}
