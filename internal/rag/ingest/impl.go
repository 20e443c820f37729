package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docchat-ai/docchat/internal/adapter/utils"
	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/rag/chunker"
	"github.com/docchat-ai/docchat/internal/rag/embedding"
)

func getDocType(docPath string) ragModel.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return ragModel.PDF
	case ".docx", ".txt", ".rtf", ".odt":
		return ragModel.DOCX
	default:
		return ragModel.ERR
	}
}

func extractText(path string, contentType ragModel.DocType) ([]rawPage, error) {
	switch contentType {
	case ragModel.PDF:
		return extractPDF(path)
	case ragModel.DOCX:
		return extractdocxTxtRtf(path)
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

// PrepareChunks splits each page and maps the pieces into stored chunks.
// Ordinals run across the whole document so retrieval ties resolve in
// reading order.
func PrepareChunks(pages []rawPage, doc ragModel.Document, chunkSize int, overlap int) ([]ragModel.Chunk, error) {
	var all []ragModel.Chunk

	ordinal := 0
	for _, page := range pages {
		pieces, err := chunker.Chunk(page.Content, chunkSize, overlap)
		if err != nil {
			return nil, err
		}
		for _, piece := range pieces {
			all = append(all, ragModel.Chunk{
				Doc:         doc,
				ChunkId:     utils.GetNewUUID(),
				Content:     piece.Text,
				PageNum:     page.Number,
				Ordinal:     ordinal,
				StartOffset: piece.Start,
				EndOffset:   piece.End,
			})
			ordinal++
		}
	}
	return all, nil
}

// EmbedChunks embeds a document's chunks in batches and returns all vectors
// together. Nothing is stored here; the caller writes the whole document in
// one call once every batch succeeded.
func EmbedChunks(ctx context.Context, chunks []ragModel.Chunk, e embedding.Embedder) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	batchSize := config.EmbeddingBatchSize
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Content)
		}

		batch, err := e.BatchEmbedding(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding batch starting at chunk %d: %w", i, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ragModel.ErrEmbeddingFailed, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
