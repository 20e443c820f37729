package ragModel

import "errors"

// Failure kinds of the ingestion/retrieval pipeline. All of them are
// recovered at the pipeline boundary and turned into a job error value;
// none may terminate the process.
var (
	// ErrExtractionFailed marks an unreadable or corrupt document. Reported
	// per document, the rest of an ingest batch continues.
	ErrExtractionFailed = errors.New("document extraction failed")

	// ErrServiceUnavailable means the embedding or chat service could not be
	// reached (including timeouts). Retried a bounded number of times before
	// being surfaced.
	ErrServiceUnavailable = errors.New("external service unavailable")

	// ErrEmbeddingFailed means the embedding service answered with a
	// malformed or empty response. Not retried.
	ErrEmbeddingFailed = errors.New("embedding service returned a malformed response")

	// ErrDimensionMismatch means an embedding's length does not match the
	// dimensionality the store was written with. Remediation: clear the
	// vector store and re-ingest with the current embedding model.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch: clear the vector store and re-ingest")

	// ErrStorageIO is a disk or write failure on the vector or history
	// store. Fatal to the current operation only.
	ErrStorageIO = errors.New("storage I/O failure")
)
