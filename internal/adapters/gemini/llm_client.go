package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/spam-sweeper/internal/core"
	"github.com/mikey/spam-sweeper/internal/utils"
	"go.uber.org/zap"
)

// classifyPrompt is the fixed one-word classification prompt.
const classifyPrompt = `Does the following email seem like spam?
Sender: %s
Subject: %s
Body: %s
Answer with one word: spam or not-spam.`

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	client *genai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *GeminiClient {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify labels a single message as spam or not-spam
func (c *GeminiClient) Classify(ctx context.Context, sender, subject, body string) (string, error) {
	snippet := c.textProcessor.ProcessText(body, c.maxBodySize)
	prompt := fmt.Sprintf(classifyPrompt, sender, subject, snippet)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	output := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	label := core.ParseLabel(output)

	c.logger.Debug("Classified message",
		zap.String("model", c.modelName),
		zap.String("output", output),
		zap.String("label", label))
	return label, nil
}

// Ensure GeminiClient implements core.LLMClient
var _ core.LLMClient = (*GeminiClient)(nil)
