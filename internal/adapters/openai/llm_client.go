package openai

import (
	"context"
	"fmt"

	"github.com/mikey/spam-sweeper/internal/core"
	"github.com/mikey/spam-sweeper/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// classifyPrompt is the fixed one-word classification prompt.
const classifyPrompt = `Does the following email seem like spam?
Sender: %s
Subject: %s
Body: %s
Answer with one word: spam or not-spam.`

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Classify labels a single message as spam or not-spam
func (c *OpenAIClient) Classify(ctx context.Context, sender, subject, body string) (string, error) {
	snippet := c.textProcessor.ProcessText(body, c.maxBodySize)
	prompt := fmt.Sprintf(classifyPrompt, sender, subject, snippet)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	output := resp.Choices[0].Message.Content
	label := core.ParseLabel(output)

	c.logger.Debug("Classified message",
		zap.String("model", c.modelName),
		zap.String("output", output),
		zap.String("label", label))
	return label, nil
}

// Ensure OpenAIClient implements core.LLMClient
var _ core.LLMClient = (*OpenAIClient)(nil)
