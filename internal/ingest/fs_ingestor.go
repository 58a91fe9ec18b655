package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

// FSIngestor reads from the local filesystem and submits each file once per content hash.
type FSIngestor struct {
	Submitter Submitter
	Logger    *slog.Logger
	seen      *expirable.LRU[string, string] // content hash -> job id
}

func NewFSIngestor(s Submitter, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Submitter: s,
		Logger:    logger,
		seen:      expirable.NewLRU[string, string](4096, nil, 24*time.Hour),
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, common.NewTaxonomyError(common.CodeUnsupportedFileType,
			fmt.Sprintf("unsupported or missing extension %q", ext), nil)
	}
	out.FileExt = ext

	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])

	if id, ok := i.seen.Get(out.HashHex); ok {
		out.JobID = id
		out.Deduplicated = true
		i.Logger.Debug("ingest.file.duplicate", "path", abs, "job_id", id)
		return out, nil
	}

	id, err := i.Submitter.Submit(ctx, data, filepath.Base(abs), "")
	if err != nil {
		return out, err
	}
	i.seen.Add(out.HashHex, id)
	out.JobID = id
	out.SubmittedAt = time.Now().UTC()
	i.Logger.Info("ingest.file.submitted", "path", abs, "job_id", id, "bytes", len(data))
	return out, nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			i.Logger.Warn("ingest.file.failed", "path", path, "error", err)
			r.SourcePath = path
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.Logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// Watch submits every file the watcher reports until ctx ends or the watcher stops.
func (i *FSIngestor) Watch(ctx context.Context, cfg WatchConfig) error {
	if cfg.Logger == nil {
		cfg.Logger = i.Logger
	}
	paths, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			if cfg.SkipHidden && IsHidden(p) {
				continue
			}
			if _, err := i.IngestPath(ctx, p); err != nil {
				i.Logger.Warn("ingest.watch.submit_failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			i.Logger.Warn("ingest.watch.error", "error", err)
		}
	}
}
