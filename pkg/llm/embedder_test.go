package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/topicnews/pkg/llm"
)

type fakeEmbeddingClient struct {
	dim   int
	err   error
	short bool
	calls [][]string
}

func (f *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, f.dim)
		out[i][0] = float32(len(texts[i]))
	}
	return out, nil
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{Client: &fakeEmbeddingClient{dim: 4}})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text:latest", emb.Config.Model)
	assert.Equal(t, "http://localhost:11434", emb.Config.BaseURL)
}

func TestEmbed(t *testing.T) {
	client := &fakeEmbeddingClient{dim: 4}
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{Client: client})
	require.NoError(t, err)

	vectors, err := emb.Embed(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
	assert.Equal(t, float32(3), vectors[1][0])

	vectors, err = emb.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Len(t, client.calls, 1)
}

func TestEmbedQuery(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{Client: &fakeEmbeddingClient{dim: 8}})
	require.NoError(t, err)

	vector, err := emb.EmbedQuery(context.Background(), "solar power")
	require.NoError(t, err)
	assert.Len(t, vector, 8)
}

func TestEmbedErrors(t *testing.T) {
	clientErr := errors.New("ollama offline")
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{Client: &fakeEmbeddingClient{err: clientErr}})
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, clientErr)

	emb, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{Client: &fakeEmbeddingClient{dim: 2, short: true}})
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), []string{"x", "y"})
	assert.Error(t, err)
}
