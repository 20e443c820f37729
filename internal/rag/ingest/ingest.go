// Package ingest turns uploaded documents into embedded chunks in the
// vector store: extract text per page, split it, embed in batches and store
// every chunk of a document in one atomic write.
package ingest

import (
	"context"
	"os"
	"time"

	"github.com/docchat-ai/docchat/internal/adapter/utils"
	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/jobModel"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/metrics"
	"github.com/docchat-ai/docchat/internal/rag/embedding"
	"github.com/docchat-ai/docchat/internal/rag/vectorstore"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Options carries the splitter settings from config.
type Options struct {
	ChunkSize int
	Overlap   int
}

var logger *logger_i.Logger

// ProcessDocumentIngestion ingests every file attached to the job. A file
// that fails extraction or embedding gets an error in its report and the
// remaining files still run; the job only errors out when no file made it in.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, e embedding.Embedder, store vectorstore.Store, opts Options) jobModel.Job {
	logger = logger_i.NewLogger("document_ingestion")
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	job.CurrentStep = jobModel.IngestProcessing
	reports := make([]ragModel.IngestReport, 0, len(job.JobPayload.IngestFiles))

	succeeded := 0
	for _, file := range job.JobPayload.IngestFiles {
		report := ingestOne(ctx, file, e, store, opts)
		if report.Error == "" {
			succeeded++
		} else {
			loggr.Error("Ingestion failed for document", "doc", file.Name, "error", report.Error)
		}
		reports = append(reports, report)

		if err := os.Remove(file.Path); err != nil {
			loggr.Error("Error removing uploaded file", "path", file.Path, "error", err)
		}
	}

	job.JobPayload.Reports = reports
	if succeeded == 0 && len(reports) > 0 {
		job.Status = jobModel.JobStatusError
		job.Error.Message = "no document could be ingested"
		return job
	}
	job.Status = jobModel.JobStatusComplete
	return job
}

func ingestOne(ctx context.Context, file jobModel.IngestFile, e embedding.Embedder, store vectorstore.Store, opts Options) ragModel.IngestReport {
	report := ragModel.IngestReport{DocName: file.Name}

	docType := getDocType(file.Path)
	if docType == ragModel.ERR {
		report.Error = "unsupported document type"
		return report
	}

	doc := ragModel.Document{
		Id:          utils.GetNewUUID(),
		Name:        file.Name,
		IngestedAt:  time.Now(),
		ContentType: docType,
	}

	pages, err := extractText(file.Path, docType)
	if err != nil {
		report.Error = ragModel.ErrExtractionFailed.Error()
		return report
	}

	chunks, err := PrepareChunks(pages, doc, opts.ChunkSize, opts.Overlap)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	if len(chunks) == 0 {
		// A scanned PDF with no text layer lands here.
		report.Error = ragModel.ErrExtractionFailed.Error() + ": document contains no extractable text"
		return report
	}

	vectors, err := EmbedChunks(ctx, chunks, e)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	// One Add per document so a failure leaves nothing half-written.
	if err := store.Add(ctx, chunks, vectors); err != nil {
		report.Error = err.Error()
		return report
	}

	report.ChunksStored = len(chunks)
	metrics.AddChunksStored(len(chunks))
	return report
}
