package response

import (
	"context"
	"fmt"
	"log"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/dialog"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/types"
)

// Generator produces the next agent utterance for a prompt intent. It never
// decides phase transitions; wording only.
type Generator interface {
	Generate(ctx context.Context, prompt dialog.Prompt, history []types.Utterance) (string, error)
}

// OpenAIGenerator drives a chat-completion model with the running transcript
// as context. Concurrent calls across sessions are bounded by a gate.
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	company string
	timeout time.Duration
	gate    chan struct{}
}

var _ Generator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(cfg config.Config) *OpenAIGenerator {
	maxInFlight := cfg.OpenAI.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 8
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(option.WithAPIKey(cfg.OpenAI.APIKey)),
		model:   cfg.OpenAI.Model,
		company: cfg.Server.CompanyName,
		timeout: time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
		gate:    make(chan struct{}, maxInFlight),
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt dialog.Prompt, history []types.Utterance) (string, error) {
	select {
	case g.gate <- struct{}{}:
		defer func() { <-g.gate }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt(g.company)),
	}
	for _, u := range history {
		if u.Role == types.RoleAgent {
			msgs = append(msgs, openai.AssistantMessage(u.Text))
		} else {
			msgs = append(msgs, openai.UserMessage(u.Text))
		}
	}
	msgs = append(msgs, openai.SystemMessage(instruction(prompt)))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    openai.ChatModel(g.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	log.Printf("[response] generated prompt=%s len=%d", prompt, len(resp.Choices[0].Message.Content))
	return resp.Choices[0].Message.Content, nil
}

// StaticGenerator returns the canned line for each prompt. Used in tests and
// when no model credentials are configured.
type StaticGenerator struct{}

var _ Generator = StaticGenerator{}

func (StaticGenerator) Generate(ctx context.Context, prompt dialog.Prompt, history []types.Utterance) (string, error) {
	return Fallback(prompt), nil
}
