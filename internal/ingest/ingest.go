// Package ingest feeds files from disk into asynchronous extraction.
package ingest

import (
	"context"
	"time"
)

// Submitter is the asynchronous extraction call ingest depends on.
type Submitter interface {
	Submit(ctx context.Context, data []byte, filename, mimeType string) (string, error)
}

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	JobID        string
	Deduplicated bool
	HashHex      string
	FileExt      string
	SubmittedAt  time.Time
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the binaries depend on.
type Ingestor interface {
	// IngestPath submits a single file.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory submits all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
