package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/jobModel"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/rag"
)

func defaultOptions() rag.Options {
	return rag.Options{ChunkSize: 500, Overlap: 50, TopK: 3}
}

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockStore, l *MockLLM)
		expectedStep   jobModel.InternalStatus
		expectedStatus jobModel.JobStatus
		expectedAnswer string
		expectRetry    bool
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "final answer", nil
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "final answer",
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, ragModel.ErrServiceUnavailable
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectRetry:    true,
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				v.OnSearch = func(ctx context.Context, vec []float32, topK int) (ragModel.RetrievalResult, error) {
					return ragModel.RetrievalResult{}, ragModel.ErrDimensionMismatch
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectRetry:    false,
		},
		{
			name: "Failure_LLM_Generation",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mStore := &MockStore{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mStore, mLLM)

			s := rag.NewService(mStore, mLLM, mEmbed, defaultOptions())

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:      "test-job",
				TraceId: "test-trace",
				JobPayload: jobModel.JobPayload{
					Question: "test question",
				},
			}

			result := s.ProcessRequest(ctx, job, []string{})

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}

			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %s, want %s", result.JobPayload.Answer, tt.expectedAnswer)
			}

			if tt.expectedStatus == jobModel.JobStatusError {
				if result.Error.Code != http.StatusInternalServerError {
					t.Errorf("Error Code got %d, want %d", result.Error.Code, http.StatusInternalServerError)
				}
				if result.Error.Retry != tt.expectRetry {
					t.Errorf("Retry got %v, want %v", result.Error.Retry, tt.expectRetry)
				}
			}
		})
	}
}

func TestProcessRequest_SourcesFromMatches(t *testing.T) {
	mStore := &MockStore{
		OnSearch: func(ctx context.Context, vec []float32, topK int) (ragModel.RetrievalResult, error) {
			return ragModel.RetrievalResult{
				Matches: []ragModel.ScoredChunk{
					{Chunk: ragModel.Chunk{Content: "chunk one", Doc: ragModel.Document{Name: "a.pdf"}, PageNum: 2}, Score: 0.8},
					{Chunk: ragModel.Chunk{Content: "chunk two", Doc: ragModel.Document{Name: "b.pdf"}, PageNum: 5}, Score: 0.7},
				},
			}, nil
		},
	}

	var gotMatches []string
	mLLM := &MockLLM{
		OnGenerate: func(ctx context.Context, q string, m []string, h []string) (string, error) {
			gotMatches = m
			return "answer", nil
		},
	}

	s := rag.NewService(mStore, mLLM, &MockEmbedder{}, defaultOptions())
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	result := s.ProcessRequest(ctx, jobModel.Job{Id: "j1", JobPayload: jobModel.JobPayload{Question: "q"}}, nil)

	if len(gotMatches) != 2 || gotMatches[0] != "chunk one" {
		t.Errorf("LLM got matches %v", gotMatches)
	}
	if len(result.JobPayload.Sources) != 2 {
		t.Fatalf("Sources got %v", result.JobPayload.Sources)
	}
	if result.JobPayload.Sources[0] != "a.pdf (page 2)" {
		t.Errorf("Source[0] got %s", result.JobPayload.Sources[0])
	}
}

func TestQuery_ReturnsRawMatches(t *testing.T) {
	mStore := &MockStore{
		OnSearch: func(ctx context.Context, vec []float32, topK int) (ragModel.RetrievalResult, error) {
			if topK != 3 {
				t.Errorf("topK got %d, want default 3", topK)
			}
			return ragModel.RetrievalResult{
				Matches: []ragModel.ScoredChunk{{Chunk: ragModel.Chunk{Content: "hit"}, Score: 0.5}},
			}, nil
		},
	}

	s := rag.NewService(mStore, &MockLLM{}, &MockEmbedder{}, defaultOptions())

	result, err := s.Query(context.Background(), "question", 0)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(result.Matches) != 1 || result.Matches[0].Chunk.Content != "hit" {
		t.Errorf("Matches got %v", result.Matches)
	}
}

func TestIngestDocument_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockStore)
		expectedStatus jobModel.JobStatus
	}{
		{
			name:           "Ingestion_Success",
			setupMocks:     func(e *MockEmbedder, v *MockStore) {},
			expectedStatus: jobModel.JobStatusComplete,
		},
		{
			name: "Failure_Batch_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockStore) {
				e.OnBatchEmbedding = func(ctx context.Context, chunks []string) ([][]float32, error) {
					return nil, ragModel.ErrServiceUnavailable
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Store_Add",
			setupMocks: func(e *MockEmbedder, v *MockStore) {
				v.OnAdd = func(ctx context.Context, chunks []ragModel.Chunk, vectors [][]float32) error {
					return ragModel.ErrStorageIO
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummyFile := filepath.Join(t.TempDir(), "test_ingest.txt")
			if err := os.WriteFile(dummyFile, []byte("test content for ingestion"), 0644); err != nil {
				t.Fatal(err)
			}

			mEmbed := &MockEmbedder{}
			mStore := &MockStore{}

			tt.setupMocks(mEmbed, mStore)

			s := rag.NewService(mStore, &MockLLM{}, mEmbed, defaultOptions())

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "ingest-trace")
			job := jobModel.Job{
				Id: "ingest-job-1",
				JobPayload: jobModel.JobPayload{
					IngestFiles: []jobModel.IngestFile{{Name: "test_ingest.txt", Path: dummyFile}},
				},
			}

			result := s.IngestDocument(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
		})
	}
}
