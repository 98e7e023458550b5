package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 30 * time.Second
)

// DefaultScreenPrompt is the system prompt used when none is configured
const DefaultScreenPrompt = `You review prompt suggestions submitted to a creative community.

A suggestion should be flagged when it is:
1. Offensive, hateful or sexual
2. Spam, advertising or a link dump
3. Clearly not a prompt (for example a question for the moderators)

Reply only "YES" if the suggestion should be flagged, otherwise "NO".`

// Client is an OpenAI-compatible chat client
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new client. An empty baseURL uses the OpenAI endpoint.
func NewClient(apiKey, baseURL, model string) *Client {
	if model == "" {
		model = defaultModel
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Chat sends a message and returns the response
func (c *Client) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: 0.1,
		MaxTokens:   10, // YES/NO
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Classify asks a YES/NO question about text
func (c *Client) Classify(ctx context.Context, systemPrompt, text string) (bool, error) {
	if systemPrompt == "" {
		systemPrompt = DefaultScreenPrompt
	}

	resp, err := c.Chat(ctx, systemPrompt, text)
	if err != nil {
		return false, err
	}

	resp = strings.TrimSpace(resp)
	yes := IsYes(resp)
	fmt.Printf("[OpenAI] Response: %q -> %v\n", resp, yes)
	return yes, nil
}

// IsYes reports whether a model reply is an affirmative answer
func IsYes(reply string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(reply)), "YES")
}
