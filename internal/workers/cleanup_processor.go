// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
)

const defaultTempMaxAge = 24 * time.Hour

// CleanupProcessor expires generated reports, stale uploads and temp files
type CleanupProcessor struct {
	storage ports.FileStorage
	config  config.StorageConfig
	now     func() time.Time
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(storage ports.FileStorage, cfg config.StorageConfig, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		storage: storage,
		config:  cfg,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupStorage deletes export and import objects past their retention
func (p *CleanupProcessor) CleanupStorage(ctx context.Context, _ *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up stored objects")

	var errs []error
	for prefix, retention := range map[string]time.Duration{
		"exports/": p.config.ExportRetention,
		"imports/": p.config.ImportRetention,
	} {
		if retention <= 0 {
			continue
		}
		deleted, err := p.expire(ctx, prefix, p.now().Add(-retention))
		if err != nil {
			errs = append(errs, err)
		}
		p.logger.InfoContext(ctx, "stored objects cleaned up",
			slog.String("prefix", prefix),
			slog.Int("objects_deleted", deleted))
	}

	return errors.Join(errs...)
}

func (p *CleanupProcessor) expire(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	objects, err := p.storage.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	deleted := 0
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := p.storage.Delete(ctx, obj.Key); err != nil {
			p.logger.WarnContext(ctx, "failed to delete object",
				slog.String("key", obj.Key),
				slog.Any("error", err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

// CleanupTempFiles removes old temporary files
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, _ *asynq.Task) error {
	tempDir := p.config.TempDir
	if tempDir == "" {
		return nil
	}
	p.logger.InfoContext(ctx, "cleaning up temp files", slog.String("dir", tempDir))

	cutoff := p.now().Add(-defaultTempMaxAge)
	var deletedCount int
	err := filepath.WalkDir(tempDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			p.logger.WarnContext(ctx, "failed to delete temp file",
				slog.String("file", path),
				slog.Any("error", err))
			return nil
		}
		deletedCount++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", deletedCount))
	return nil
}
