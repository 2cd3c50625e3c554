package domain

import "time"

// Document represents one version of an uploaded file.
// For a given filename lineage at most one Document is active at a time;
// re-uploading changed content supersedes the old version and creates a new
// row with version+1.
type Document struct {
	ID          string            `json:"id"`
	Filename    string            `json:"filename"`
	ContentHash string            `json:"content_hash"` // sha256 hex digest
	FileSize    int64             `json:"file_size"`
	Version     int               `json:"version"` // starts at 1, +1 per content change
	IsActive    bool              `json:"is_active"`
	ReplacedAt  *time.Time        `json:"replaced_at,omitempty"` // set when superseded
	RawContent  string            `json:"-"`                     // extracted text, set by the pipeline
	Metadata    map[string]string `json:"metadata,omitempty"`
	UploadedAt  time.Time         `json:"uploaded_at"`
}

// Chunk is a searchable segment of a document with its embedding and
// extracted metadata. Chunks mirror their document's version and active flag.
type Chunk struct {
	ID           string        `json:"id"`
	DocumentID   string        `json:"document_id"`
	Text         string        `json:"text"`
	ChunkIndex   int           `json:"chunk_index"`
	Embedding    []float32     `json:"embedding,omitempty"`
	Metadata     ChunkMetadata `json:"metadata"`
	RecencyScore float64       `json:"recency_score"` // [0,1], 0.5 = neutral
	Version      int           `json:"version"`
	IsActive     bool          `json:"is_active"`
	ReplacedAt   *time.Time    `json:"replaced_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Entities holds deduplicated entity values extracted from chunk text.
// They drive conflict resolution and filtered search.
type Entities struct {
	IDs          []string `json:"ids"`
	Emails       []string `json:"emails"`
	PhoneNumbers []string `json:"phone_numbers"`
	Amounts      []string `json:"amounts"`
	Dates        []string `json:"dates"`
	Names        []string `json:"names"`
}

// Temporal confidence labels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// TemporalInfo captures recency signals found in chunk text.
// Any current-tense keyword outranks every historical keyword.
type TemporalInfo struct {
	HasIndicator bool     `json:"has_temporal_indicator"`
	RecencyScore float64  `json:"recency_score"`
	Keywords     []string `json:"keywords,omitempty"`
	IsCurrent    bool     `json:"is_current"`
	IsHistorical bool     `json:"is_historical"`
	Confidence   string   `json:"confidence"`
}

// Content structure types, in detection priority order.
const (
	ContentTypeHeading   = "heading"
	ContentTypeList      = "list"
	ContentTypeTable     = "table"
	ContentTypeCode      = "code"
	ContentTypeParagraph = "paragraph"
)

// DocumentRef is the document-level metadata copied onto each chunk.
type DocumentRef struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	FileType   string    `json:"file_type"`
}

// ChunkMetadata is the full extraction result stored per chunk.
type ChunkMetadata struct {
	ChunkIndex  int          `json:"chunk_index"`
	ChunkLength int          `json:"chunk_length"` // character count
	TokenCount  int          `json:"token_count"`
	ContentType string       `json:"content_type"`
	DataTypes   []string     `json:"data_types"`
	Entities    Entities     `json:"entities"`
	Temporal    TemporalInfo `json:"temporal_info"`
	Document    *DocumentRef `json:"document_metadata,omitempty"`
}

// ChunkPayload pairs chunk text with its extracted metadata before
// embedding and persistence.
type ChunkPayload struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// UploadStatus is the outcome of the dedup/version decision for an upload.
// These are normal successful results, not errors.
type UploadStatus string

const (
	// UploadStatusNew means a fresh document was created at version 1.
	UploadStatusNew UploadStatus = "new"
	// UploadStatusNoChange means the filename exists with identical content.
	UploadStatusNoChange UploadStatus = "no_change"
	// UploadStatusDuplicate means the same content is already active under
	// a different filename.
	UploadStatusDuplicate UploadStatus = "duplicate"
	// UploadStatusNewVersion means the filename exists with different
	// content and a new version superseded the old one.
	UploadStatusNewVersion UploadStatus = "new_version"
)

// UploadDecision is the result of VersionManager.Resolve.
type UploadDecision struct {
	Status     UploadStatus `json:"status"`
	Document   *Document    `json:"document"` // created or existing document
	OldVersion int          `json:"old_version,omitempty"`
}

// UploadResult is returned to the caller immediately after the synchronous
// part of an upload; heavy processing continues in the background job.
type UploadResult struct {
	Status     UploadStatus `json:"status"`
	Message    string       `json:"message"`
	DocumentID string       `json:"document_id"`
	Version    int          `json:"version"`
	JobID      string       `json:"job_id,omitempty"`
}

// CorpusStats summarizes the stored corpus for the metrics endpoint.
type CorpusStats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// DocumentInfo is the listing view of a document.
type DocumentInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	Version    int       `json:"version"`
	IsActive   bool      `json:"is_active"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkCount int       `json:"chunk_count"`
}
