package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-resty/resty/v2"
)

const (
	groqChatModel      = "llama-3.3-70b-versatile"
	anthropicChatModel = "claude-3-5-haiku-latest"
	chatMaxTokens      = 1024
)

// GroqChat calls Groq's OpenAI-style chat completions API.
type GroqChat struct {
	client *resty.Client
	model  string
}

func NewGroqChat(baseURL, apiKey string, timeout time.Duration) *GroqChat {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &GroqChat{client: c, model: groqChatModel}
}

type chatCompletionRequest struct {
	Model    string     `json:"model"`
	Messages []chatTurn `json:"messages"`
}

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
}

// Complete generates a reply from the prompt, history and an optional system
// preamble.
func (g *GroqChat) Complete(ctx context.Context, system, prompt string, history []ChatMessage) (ChatReply, error) {
	turns := make([]chatTurn, 0, len(history)+2)
	if system != "" {
		turns = append(turns, chatTurn{Role: "system", Content: system})
	}
	for _, h := range history {
		turns = append(turns, chatTurn{Role: h.Role, Content: h.Content})
	}
	turns = append(turns, chatTurn{Role: "user", Content: prompt})

	var out chatCompletionResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(&chatCompletionRequest{Model: g.model, Messages: turns}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return ChatReply{}, fmt.Errorf("groq request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return ChatReply{}, fmt.Errorf("groq status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	if len(out.Choices) == 0 {
		return ChatReply{}, fmt.Errorf("groq returned no choices")
	}
	model := out.Model
	if model == "" {
		model = g.model
	}
	return ChatReply{
		Content:  out.Choices[0].Message.Content,
		Provider: "groq",
		Model:    model,
	}, nil
}

// AnthropicChat is the fallback chat provider.
type AnthropicChat struct {
	client anthropic.Client
	model  string
}

func NewAnthropicChat(apiKey string) *AnthropicChat {
	return &AnthropicChat{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropicChatModel,
	}
}

func (a *AnthropicChat) Complete(ctx context.Context, system, prompt string, history []ChatMessage) (ChatReply, error) {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, h := range history {
		block := anthropic.NewTextBlock(h.Content)
		if h.Role == "assistant" {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: chatMaxTokens,
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return ChatReply{}, fmt.Errorf("anthropic request: %w", err)
	}

	var parts []string
	for _, b := range resp.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	if len(parts) == 0 {
		return ChatReply{}, fmt.Errorf("anthropic returned no text content")
	}
	return ChatReply{
		Content:  strings.Join(parts, "\n"),
		Provider: "anthropic",
		Model:    a.model,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
