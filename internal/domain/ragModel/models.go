package ragModel

import "time"

type Document struct {
	Id          string    `json:"source_doc_id"`
	Name        string    `json:"doc_name"`
	IngestedAt  time.Time `json:"ingested_at"`
	ContentType DocType   `json:"content_type"`
}

// Chunk is the unit of embedding and retrieval: a bounded substring of a
// document's extracted text. StartOffset/EndOffset are rune offsets into the
// page text; consecutive chunks overlap by the configured overlap width.
type Chunk struct {
	Doc         Document
	ChunkId     string `json:"chunk_id"`
	Content     string `json:"content"`
	PageNum     int    `json:"page_num"`
	Ordinal     int    `json:"chunk_order"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// ScoredChunk pairs a stored chunk with its similarity to a query embedding.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// RetrievalResult is ordered by descending cosine similarity; ties keep
// insertion order. It is recomputed per query and never persisted.
type RetrievalResult struct {
	Matches []ScoredChunk `json:"matches"`
}

type DocType string

var (
	PDF  DocType = "PDF"
	DOCX DocType = "DOCX"
	ERR  DocType = "ERROR"
)

// IngestReport summarizes one document's outcome within a batch. A failed
// document never aborts the rest of the batch.
type IngestReport struct {
	DocName      string `json:"doc_name"`
	ChunksStored int    `json:"chunks_stored"`
	Error        string `json:"error,omitempty"`
}
