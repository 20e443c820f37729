package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/jobModel"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
)

type fakeEmbedder struct {
	failBatch bool
	calls     int
}

func (f *fakeEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	f.calls++
	if f.failBatch {
		return nil, ragModel.ErrServiceUnavailable
	}
	out := make([][]float32, len(chunks))
	for i := range chunks {
		out[i] = []float32{float32(len(chunks[i])), 1}
	}
	return out, nil
}

type fakeStore struct {
	added   []ragModel.Chunk
	addErr  error
	cleared bool
}

func (f *fakeStore) Add(ctx context.Context, chunks []ragModel.Chunk, vectors [][]float32) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, chunks...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, q []float32, k int) (ragModel.RetrievalResult, error) {
	return ragModel.RetrievalResult{}, nil
}
func (f *fakeStore) Clear(ctx context.Context) error      { f.cleared = true; return nil }
func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.added), nil }
func (f *fakeStore) Close() error                          { return nil }

func testCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func writeTempDoc(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func ingestJob(files ...jobModel.IngestFile) jobModel.Job {
	return jobModel.Job{
		Id:         "job-1",
		JobType:    jobModel.JobTypeIngest,
		Status:     jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{IngestFiles: files},
	}
}

func TestGetDocType(t *testing.T) {
	assert.Equal(t, ragModel.PDF, getDocType("/tmp/report.PDF"))
	assert.Equal(t, ragModel.DOCX, getDocType("notes.txt"))
	assert.Equal(t, ragModel.DOCX, getDocType("notes.docx"))
	assert.Equal(t, ragModel.ERR, getDocType("image.png"))
}

func TestPrepareChunks_OrdinalsRunAcrossPages(t *testing.T) {
	doc := ragModel.Document{Id: "d1", Name: "doc.pdf", ContentType: ragModel.PDF}
	pages := []rawPage{
		{Number: 1, Content: "first page text"},
		{Number: 2, Content: "second page text"},
	}

	chunks, err := PrepareChunks(pages, doc, 500, 50)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
	assert.Equal(t, 1, chunks[0].PageNum)
	assert.Equal(t, 2, chunks[1].PageNum)
	assert.NotEqual(t, chunks[0].ChunkId, chunks[1].ChunkId)
}

func TestProcessDocumentIngestion_TxtFile(t *testing.T) {
	path := writeTempDoc(t, "notes.txt", "alpha beta gamma delta")
	store := &fakeStore{}

	job := ProcessDocumentIngestion(testCtx(), ingestJob(jobModel.IngestFile{Name: "notes.txt", Path: path}),
		&fakeEmbedder{}, store, Options{ChunkSize: 500, Overlap: 50})

	assert.Equal(t, jobModel.JobStatusComplete, job.Status)
	require.Len(t, job.JobPayload.Reports, 1)
	assert.Empty(t, job.JobPayload.Reports[0].Error)
	assert.Equal(t, len(store.added), job.JobPayload.Reports[0].ChunksStored)
	assert.NotEmpty(t, store.added)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "uploaded file should be removed after ingestion")
}

func TestProcessDocumentIngestion_UnsupportedType(t *testing.T) {
	path := writeTempDoc(t, "image.png", "not a document")
	store := &fakeStore{}

	job := ProcessDocumentIngestion(testCtx(), ingestJob(jobModel.IngestFile{Name: "image.png", Path: path}),
		&fakeEmbedder{}, store, Options{ChunkSize: 500, Overlap: 50})

	assert.Equal(t, jobModel.JobStatusError, job.Status)
	require.Len(t, job.JobPayload.Reports, 1)
	assert.Contains(t, job.JobPayload.Reports[0].Error, "unsupported")
	assert.Empty(t, store.added)
}

func TestProcessDocumentIngestion_OneBadFileDoesNotAbortBatch(t *testing.T) {
	good := writeTempDoc(t, "good.txt", "useful content here")
	bad := writeTempDoc(t, "bad.png", "binary")
	store := &fakeStore{}

	job := ProcessDocumentIngestion(testCtx(), ingestJob(
		jobModel.IngestFile{Name: "bad.png", Path: bad},
		jobModel.IngestFile{Name: "good.txt", Path: good},
	), &fakeEmbedder{}, store, Options{ChunkSize: 500, Overlap: 50})

	assert.Equal(t, jobModel.JobStatusComplete, job.Status)
	require.Len(t, job.JobPayload.Reports, 2)
	assert.NotEmpty(t, job.JobPayload.Reports[0].Error)
	assert.Empty(t, job.JobPayload.Reports[1].Error)
	assert.NotEmpty(t, store.added)
}

func TestProcessDocumentIngestion_EmbedderDownStoresNothing(t *testing.T) {
	path := writeTempDoc(t, "notes.txt", "alpha beta gamma")
	store := &fakeStore{}

	job := ProcessDocumentIngestion(testCtx(), ingestJob(jobModel.IngestFile{Name: "notes.txt", Path: path}),
		&fakeEmbedder{failBatch: true}, store, Options{ChunkSize: 500, Overlap: 50})

	assert.Equal(t, jobModel.JobStatusError, job.Status)
	require.Len(t, job.JobPayload.Reports, 1)
	assert.Contains(t, job.JobPayload.Reports[0].Error, ragModel.ErrServiceUnavailable.Error())
	assert.Empty(t, store.added)
}

func TestProcessDocumentIngestion_StoreFailureReported(t *testing.T) {
	path := writeTempDoc(t, "notes.txt", "alpha beta gamma")
	store := &fakeStore{addErr: ragModel.ErrDimensionMismatch}

	job := ProcessDocumentIngestion(testCtx(), ingestJob(jobModel.IngestFile{Name: "notes.txt", Path: path}),
		&fakeEmbedder{}, store, Options{ChunkSize: 500, Overlap: 50})

	assert.Equal(t, jobModel.JobStatusError, job.Status)
	assert.Contains(t, job.JobPayload.Reports[0].Error, ragModel.ErrDimensionMismatch.Error())
}
