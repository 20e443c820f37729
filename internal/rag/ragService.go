package rag

import (
	"context"
	"errors"
	"time"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/jobModel"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/metrics"
	"github.com/docchat-ai/docchat/internal/rag/embedding"
	"github.com/docchat-ai/docchat/internal/rag/ingest"
	"github.com/docchat-ai/docchat/internal/rag/llm"
	"github.com/docchat-ai/docchat/internal/rag/vectorstore"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

// Service is the only surface the worker and the MCP server talk to; they
// never see the store, the embedder or the LLM directly.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
	Query(ctx context.Context, question string, topK int) (ragModel.RetrievalResult, error)
}

// Options carries the tunables the pipeline needs from config.
type Options struct {
	ChunkSize int
	Overlap   int
	TopK      int
}

type service struct {
	store       vectorstore.Store
	llmProvider llm.Provider
	embedder    embedding.Embedder
	opts        Options
	logger      *logger_i.Logger
}

func NewService(store vectorstore.Store, llm llm.Provider, em embedding.Embedder, opts Options) Service {
	return &service{
		store:       store,
		llmProvider: llm,
		embedder:    em,
		opts:        opts,
		logger:      logger_i.NewLogger("rag_service"),
	}
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job, messageHistory []string) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", jobt.TraceId, "JobId", jobt.Id)

	processContext, cancel := context.WithTimeout(ctx, config.ExternalCallTimeout)
	defer cancel()

	jobt.CurrentStep = jobModel.RAGCall

	embeddingStep, err := s.executeEmbeddingStep(processContext, inMethodLogger, &jobt)
	if err != nil {
		return s.jobError(jobt, err, "EMBEDDING_FAILURE", retryable(err))
	}

	matches, err := s.executeVectorSearchStep(processContext, inMethodLogger, &jobt, embeddingStep)
	if err != nil {
		return s.jobError(jobt, err, "VECTOR_DB_FAILURE", retryable(err))
	}

	answer, err := s.executeLLMStep(processContext, inMethodLogger, &jobt, matches, messageHistory)
	if err != nil {
		return s.jobError(jobt, err, "LLM_GENERATION_FAILURE", retryable(err))
	}

	return returnOutput(jobt, answer)
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	j := ingest.ProcessDocumentIngestion(ctx, job, s.embedder, s.store, ingest.Options{
		ChunkSize: s.opts.ChunkSize,
		Overlap:   s.opts.Overlap,
	})
	if j.Status != jobModel.JobStatusComplete {
		return s.jobError(j, errors.New("document ingestion failed"), "INGESTION_FAILURE", true)
	}
	return j
}

// Query embeds the question and returns the raw nearest chunks. This is
// what the MCP search tool calls; no LLM step, no chat history.
func (s *service) Query(ctx context.Context, question string, topK int) (ragModel.RetrievalResult, error) {
	if topK < 1 {
		topK = s.opts.TopK
	}

	vector, err := s.embedder.GetEmbedding(ctx, question)
	if err != nil {
		return ragModel.RetrievalResult{}, err
	}
	return s.store.Search(ctx, vector, topK)
}
