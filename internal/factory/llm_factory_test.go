package factory

import (
	"testing"

	"github.com/mikey/spam-sweeper/internal/config"
	"github.com/mikey/spam-sweeper/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFactoryForProvider(provider string) *LLMFactory {
	v := config.NewEmptyViper()
	v.Set("llm.provider", provider)
	logger := zap.NewNop()
	return NewLLMFactory(config.NewFromViper(v), logger, utils.NewTextProcessor(logger))
}

func TestCreateLLMClientOpenAI(t *testing.T) {
	client, err := newFactoryForProvider("openai").CreateLLMClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestCreateLLMClientUnsupportedProvider(t *testing.T) {
	_, err := newFactoryForProvider("flan-t5").CreateLLMClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}
