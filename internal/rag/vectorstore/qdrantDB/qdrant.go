// Package qdrantDB is the alternate vector store backend, talking to a
// Qdrant server over gRPC. Cosine distance is configured on the collection,
// so scores come back directly comparable to the SQLite backend's.
package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/rag/vectorstore"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

var logger *logger_i.Logger

type store struct {
	client     *qdrant.Client
	collection string

	// mu guards lazy collection creation on the first Add.
	mu        sync.Mutex
	dimension uint64
}

// Open connects to Qdrant and ensures the collection exists. With dimension 0
// the collection is created lazily on the first Add, once the embedding
// backend has revealed its output size.
func Open(host string, port int, collection string, dimension int) (vectorstore.Store, error) {
	logger = logger_i.NewLogger("qdrant_vectorstore")

	if collection == "" {
		return nil, errors.New("empty collection name")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", ragModel.ErrServiceUnavailable, err)
	}

	s := &store{
		client:     client,
		collection: collection,
		dimension:  uint64(dimension),
	}
	if dimension > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), config.ExternalCallTimeout)
		defer cancel()
		if err := s.ensureCollection(ctx, uint64(dimension)); err != nil {
			client.Close()
			return nil, err
		}
	}
	logger.Info("Qdrant store opened", "host", host, "collection", collection)
	return s, nil
}

func (s *store) ensureCollection(ctx context.Context, dimension uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return classify(err, "checking collection")
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return classify(err, "creating collection")
	}
	logger.Info("Collection created", "collection", s.collection, "dimension", dimension)
	return nil
}

func (s *store) Add(ctx context.Context, chunks []ragModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.dimension == 0 {
		s.dimension = uint64(len(vectors[0]))
		if err := s.ensureCollection(ctx, s.dimension); err != nil {
			s.dimension = 0
			s.mu.Unlock()
			return err
		}
	}
	dim := s.dimension
	s.mu.Unlock()

	for i, vec := range vectors {
		if uint64(len(vec)) != dim {
			return fmt.Errorf("%w: vector %d has length %d, collection dimensionality is %d", ragModel.ErrDimensionMismatch, i, len(vec), dim)
		}
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":       chunk.Content,
				"page_num":      int64(chunk.PageNum),
				"ordinal":       int64(chunk.Ordinal),
				"start_offset":  int64(chunk.StartOffset),
				"end_offset":    int64(chunk.EndOffset),
				"source_doc_id": chunk.Doc.Id,
				"doc_name":      chunk.Doc.Name,
				"chunk_id":      chunk.ChunkId,
				"ingested_at":   chunk.Doc.IngestedAt.Unix(),
			}),
		}
	}

	// Wait=true: the call returns after the write is durable, so a whole
	// document lands or the call errors.
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return classify(err, "upsert")
	}
	logger.Debug("Stored chunks", "count", len(chunks))
	return nil
}

func (s *store) Search(ctx context.Context, queryVector []float32, topK int) (ragModel.RetrievalResult, error) {
	if topK < 1 {
		return ragModel.RetrievalResult{}, fmt.Errorf("topK must be >= 1, got %d", topK)
	}

	s.mu.Lock()
	dim := s.dimension
	s.mu.Unlock()
	if dim == 0 {
		return ragModel.RetrievalResult{}, nil
	}
	if uint64(len(queryVector)) != dim {
		return ragModel.RetrievalResult{}, fmt.Errorf("%w: query vector has length %d, collection dimensionality is %d", ragModel.ErrDimensionMismatch, len(queryVector), dim)
	}

	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return ragModel.RetrievalResult{}, classify(err, "query")
	}

	matches := make([]ragModel.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		payload := hit.Payload
		chunk := ragModel.Chunk{
			ChunkId:     payload["chunk_id"].GetStringValue(),
			Content:     payload["content"].GetStringValue(),
			PageNum:     int(payload["page_num"].GetIntegerValue()),
			Ordinal:     int(payload["ordinal"].GetIntegerValue()),
			StartOffset: int(payload["start_offset"].GetIntegerValue()),
			EndOffset:   int(payload["end_offset"].GetIntegerValue()),
			Doc: ragModel.Document{
				Id:         payload["source_doc_id"].GetStringValue(),
				Name:       payload["doc_name"].GetStringValue(),
				IngestedAt: time.Unix(payload["ingested_at"].GetIntegerValue(), 0),
			},
		}
		matches = append(matches, ragModel.ScoredChunk{Chunk: chunk, Score: hit.Score})
	}
	return ragModel.RetrievalResult{Matches: matches}, nil
}

func (s *store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return classify(err, "checking collection")
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return classify(err, "deleting collection")
		}
	}
	s.dimension = 0
	logger.Info("Collection dropped", "collection", s.collection)
	return nil
}

func (s *store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	dim := s.dimension
	s.mu.Unlock()
	if dim == 0 {
		return 0, nil
	}

	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, classify(err, "count")
	}
	return int(n), nil
}

func (s *store) Close() error {
	return s.client.Close()
}

// classify maps gRPC transport failures to ErrServiceUnavailable so callers
// can tell "Qdrant is down" apart from a bad request.
func classify(err error, op string) error {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return fmt.Errorf("%w: qdrant %s: %v", ragModel.ErrServiceUnavailable, op, err)
		}
	}
	return fmt.Errorf("%w: qdrant %s: %v", ragModel.ErrStorageIO, op, err)
}
