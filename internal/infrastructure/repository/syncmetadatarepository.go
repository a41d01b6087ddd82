package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/turnernet/tracksync/internal/infrastructure/persistence/models"
	"github.com/turnernet/tracksync/internal/shared/clock"
	"github.com/turnernet/tracksync/internal/shared/db"
	"github.com/turnernet/tracksync/internal/shared/logger"
)

// SyncMetadataRepository tracks per-entity-kind sync progress. Rows are
// created lazily and lastSuccessfulSync never moves backwards.
type SyncMetadataRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewSyncMetadataRepository creates a new SyncMetadataRepository.
func NewSyncMetadataRepository(gdb *gorm.DB, log logger.Interface) *SyncMetadataRepository {
	return &SyncMetadataRepository{db: gdb, logger: log}
}

// Get returns the metadata row for key, creating an empty one if absent.
func (r *SyncMetadataRepository) Get(ctx context.Context, key string) (*models.SyncMetadataModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var meta models.SyncMetadataModel
	err := tx.Where("key = ?", key).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		meta = models.SyncMetadataModel{Key: key, UpdatedAt: clock.NowUTC()}
		if err := tx.Create(&meta).Error; err != nil {
			return nil, fmt.Errorf("failed to create sync metadata for %s: %w", key, err)
		}
		return &meta, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync metadata for %s: %w", key, err)
	}
	return &meta, nil
}

// Update records sync progress. A lastSuccessfulSync older than the stored
// value is ignored; the etag always takes the latest value offered.
func (r *SyncMetadataRepository) Update(ctx context.Context, key string, lastSuccessfulSync *time.Time, etag *string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	meta, err := r.Get(ctx, key)
	if err != nil {
		return err
	}

	if lastSuccessfulSync != nil {
		if meta.LastSuccessfulSync == nil || lastSuccessfulSync.After(*meta.LastSuccessfulSync) {
			meta.LastSuccessfulSync = lastSuccessfulSync
		}
	}
	if etag != nil && *etag != "" {
		meta.ETag = etag
	}
	meta.UpdatedAt = clock.NowUTC()

	if err := tx.Save(meta).Error; err != nil {
		return fmt.Errorf("failed to update sync metadata for %s: %w", key, err)
	}
	return nil
}

// All returns every metadata row, for status display.
func (r *SyncMetadataRepository) All(ctx context.Context) ([]models.SyncMetadataModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var rows []models.SyncMetadataModel
	if err := tx.Order("key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync metadata: %w", err)
	}
	return rows, nil
}
