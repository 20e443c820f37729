package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/rag/vectorstore/sqliteVec"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

var topicWords = []string{"solar", "volcano", "glacier"}

// topicEmbedder maps text to keyword counts, so similarity is driven purely
// by which topic a chunk talks about.
type topicEmbedder struct{}

func (topicEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return topicVector(query), nil
}

func (topicEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = topicVector(c)
	}
	return out, nil
}

func topicVector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(topicWords))
	for i, word := range topicWords {
		vec[i] = float32(strings.Count(lower, word))
	}
	return vec
}

func TestChunkEmbedStore_RetrievesPageTwoContent(t *testing.T) {
	logger_i.Init()
	logger = logger_i.NewLogger("retrieval_test")
	ctx := testCtx()

	pages := []rawPage{
		{Number: 1, Content: strings.Repeat("solar panels convert sunlight into power all day long. ", 20)},
		{Number: 2, Content: strings.Repeat("the volcano erupted and covered the valley floor in ash. ", 20)},
		{Number: 3, Content: strings.Repeat("the glacier retreats a little further up the fjord each year. ", 20)},
	}
	doc := ragModel.Document{
		Id:          "doc-geo",
		Name:        "geology.pdf",
		IngestedAt:  time.Now(),
		ContentType: ragModel.PDF,
	}

	chunks, err := PrepareChunks(pages, doc, 500, 50)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 3, "each page should split into multiple chunks")

	embedder := topicEmbedder{}
	vectors, err := EmbedChunks(ctx, chunks, embedder)
	require.NoError(t, err)
	require.Len(t, vectors, len(chunks))

	store, err := sqliteVec.Open(t.TempDir(), "topic-counter", len(topicWords))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Add(ctx, chunks, vectors))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(chunks), count)

	queryVec, err := embedder.GetEmbedding(ctx, "what happened when the volcano erupted?")
	require.NoError(t, err)

	result, err := store.Search(ctx, queryVec, 3)
	require.NoError(t, err)
	require.NotEmpty(t, result.Matches)

	top := result.Matches[0].Chunk
	assert.Equal(t, 2, top.PageNum)
	assert.Contains(t, strings.ToLower(top.Content), "volcano")

	// Offsets are rune positions inside the source page.
	pageLen := len([]rune(pages[1].Content))
	assert.GreaterOrEqual(t, top.StartOffset, 0)
	assert.LessOrEqual(t, top.EndOffset, pageLen)
	assert.Equal(t, top.Content, string([]rune(pages[1].Content)[top.StartOffset:top.EndOffset]))
}
