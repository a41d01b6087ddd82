package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/turnernet/tracksync/internal/infrastructure/persistence/models"
	"github.com/turnernet/tracksync/internal/shared/clock"
	"github.com/turnernet/tracksync/internal/shared/db"
	"github.com/turnernet/tracksync/internal/shared/logger"
)

// PendingAdjustmentRepository stores retry breadcrumbs for inventory
// adjustments that failed remotely.
type PendingAdjustmentRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewPendingAdjustmentRepository creates a new PendingAdjustmentRepository.
func NewPendingAdjustmentRepository(gdb *gorm.DB, log logger.Interface) *PendingAdjustmentRepository {
	return &PendingAdjustmentRepository{db: gdb, logger: log}
}

// Enqueue records a failed adjustment for later retry.
func (r *PendingAdjustmentRepository) Enqueue(ctx context.Context, hardwareID string, quantity int, note *string, lastError string) (*models.PendingAdjustmentModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	row := models.PendingAdjustmentModel{
		ID:         uuid.NewString(),
		HardwareID: hardwareID,
		Quantity:   quantity,
		Note:       note,
		CreatedAt:  clock.NowUTC(),
		LastError:  &lastError,
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to enqueue pending adjustment: %w", err)
	}
	return &row, nil
}

// List returns all queued adjustments, oldest first.
func (r *PendingAdjustmentRepository) List(ctx context.Context) ([]models.PendingAdjustmentModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var rows []models.PendingAdjustmentModel
	if err := tx.Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending adjustments: %w", err)
	}
	return rows, nil
}

// Delete removes a breadcrumb once the adjustment has been resolved.
func (r *PendingAdjustmentRepository) Delete(ctx context.Context, id string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Where("id = ?", id).Delete(&models.PendingAdjustmentModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete pending adjustment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
