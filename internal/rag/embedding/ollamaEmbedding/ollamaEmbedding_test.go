package ollamaEmbedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/docchat-ai/docchat/internal/domain/ragModel"
)

func TestGetEmbedding_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e := GetOllamaEmbeddingClient(srv.URL, "bge-m3:latest")
	vec, err := e.GetEmbedding(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("vector length = %d, want 3", len(vec))
	}
}

func TestGetEmbedding_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{1}})
	}))
	defer srv.Close()

	e := GetOllamaEmbeddingClient(srv.URL, "bge-m3:latest")
	if _, err := e.GetEmbedding(context.Background(), "hello"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestGetEmbedding_EmptyVectorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer srv.Close()

	e := GetOllamaEmbeddingClient(srv.URL, "bge-m3:latest")
	_, err := e.GetEmbedding(context.Background(), "hello")
	if !errors.Is(err, ragModel.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("malformed response was retried: %d calls", calls)
	}
}

func TestGetEmbedding_Unreachable(t *testing.T) {
	e := GetOllamaEmbeddingClient("http://127.0.0.1:1", "bge-m3:latest")
	_, err := e.GetEmbedding(context.Background(), "hello")
	if !errors.Is(err, ragModel.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestBatchEmbedding_PreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		// Encode the prompt length into the vector so the order is checkable.
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{float32(len(req.Prompt))}})
	}))
	defer srv.Close()

	e := GetOllamaEmbeddingClient(srv.URL, "bge-m3:latest")
	texts := []string{"a", "bb", "ccc", "dddd"}
	vectors, err := e.BatchEmbedding(context.Background(), texts)
	if err != nil {
		t.Fatalf("BatchEmbedding failed: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, text := range texts {
		if vectors[i][0] != float32(len(text)) {
			t.Errorf("vector %d = %v, want [%d]", i, vectors[i], len(text))
		}
	}
}

func TestBatchEmbedding_FailureCarriesChunkIndex(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) > 2 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"bad prompt"}`)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{1}})
	}))
	defer srv.Close()

	e := GetOllamaEmbeddingClient(srv.URL, "bge-m3:latest")
	_, err := e.BatchEmbedding(context.Background(), []string{"one", "two", "three"})
	if !errors.Is(err, ragModel.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
}
