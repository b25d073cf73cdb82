package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_PrepareAndEmbed(t *testing.T) {
	e := NewEmbedder()
	texts := []string{"data show growth", "model grow fast", "data model"}
	require.NoError(t, e.Prepare(texts))
	assert.Equal(t, 6, e.Dimension())

	vecs, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, 6)
		norm := 0.0
		for _, x := range v {
			norm += x * x
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	}

	again, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, vecs, again)
}

func TestEmbedder_UnknownTermsYieldZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"data growth"}))

	vecs, err := e.EmbedBatch(context.Background(), []string{"the unseen words"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, vecs[0])
}

func TestEmbedder_Errors(t *testing.T) {
	e := NewEmbedder()
	_, err := e.EmbedBatch(context.Background(), []string{"x"})
	assert.Error(t, err)

	assert.Error(t, e.Prepare(nil))
	assert.Error(t, e.Prepare([]string{"the and of"}))

	require.NoError(t, e.Prepare([]string{"data"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.EmbedBatch(ctx, []string{"data"})
	assert.ErrorIs(t, err, context.Canceled)
}
