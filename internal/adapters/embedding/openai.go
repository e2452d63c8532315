// Package embedding provides the OpenAI embedding adapter implementing
// ports.EmbeddingService.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/dipa-ai/dipa/internal/domain/entities"
)

// DefaultModel is used when no embedding model is configured.
const DefaultModel = "text-embedding-3-small"

// OpenAIAdapter generates embeddings through the OpenAI API.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// NewOpenAIAdapter creates an embedding adapter. Extra request options
// (base URL, API key) are passed through to the client, which lets tests
// point it at a local server.
func NewOpenAIAdapter(model string, opts ...option.RequestOption) *OpenAIAdapter {
	if model == "" {
		model = DefaultModel
	}
	client := openai.NewClient(opts...)
	return &OpenAIAdapter{client: &client, model: model}
}

// Embed generates an embedding for a single text.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(a.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, wrapEmbeddingErr(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty response", entities.ErrEmbedding)
	}
	return toFloat32(resp.Data[0].Embedding), nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (a *OpenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := a.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(a.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, wrapEmbeddingErr(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			entities.ErrEmbedding, len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, item := range resp.Data {
		i := int(item.Index)
		if i < 0 || i >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", entities.ErrEmbedding, i)
		}
		embeddings[i] = toFloat32(item.Embedding)
	}
	return embeddings, nil
}

func wrapEmbeddingErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out: %v", entities.ErrEmbedding, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", entities.ErrEmbedding, err)
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
