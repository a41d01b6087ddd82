package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/turnernet/tracksync/internal/infrastructure/persistence/models"
	"github.com/turnernet/tracksync/internal/shared/db"
	"github.com/turnernet/tracksync/internal/shared/logger"
)

// InventoryEventRepository provides access to inventory events, including
// the optimistic unconfirmed ones.
type InventoryEventRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewInventoryEventRepository creates a new InventoryEventRepository.
func NewInventoryEventRepository(gdb *gorm.DB, log logger.Interface) *InventoryEventRepository {
	return &InventoryEventRepository{db: gdb, logger: log}
}

// Create inserts a new event row.
func (r *InventoryEventRepository) Create(ctx context.Context, event *models.InventoryEventModel) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create inventory event: %w", err)
	}
	return nil
}

// Update saves modified fields of an existing event row.
func (r *InventoryEventRepository) Update(ctx context.Context, event *models.InventoryEventModel) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Save(event).Error; err != nil {
		return fmt.Errorf("failed to update inventory event: %w", err)
	}
	return nil
}

// FindByID returns one event.
func (r *InventoryEventRepository) FindByID(ctx context.Context, id string) (*models.InventoryEventModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var event models.InventoryEventModel
	if err := tx.Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find inventory event: %w", err)
	}
	return &event, nil
}

// ListForHardware returns a hardware item's events, newest first.
func (r *InventoryEventRepository) ListForHardware(ctx context.Context, hardwareID string) ([]models.InventoryEventModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var events []models.InventoryEventModel
	if err := tx.Where("hardware_id = ?", hardwareID).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list inventory events: %w", err)
	}
	return events, nil
}

// ListPending returns events still awaiting server confirmation.
func (r *InventoryEventRepository) ListPending(ctx context.Context) ([]models.InventoryEventModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var events []models.InventoryEventModel
	if err := tx.Where("pending_retry = ?", true).Order("created_at").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending inventory events: %w", err)
	}
	return events, nil
}

// MarkConfirmed clears the pending flag on an optimistic event.
func (r *InventoryEventRepository) MarkConfirmed(ctx context.Context, id string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.InventoryEventModel{}).Where("id = ?", id).Update("pending_retry", false)
	if result.Error != nil {
		return fmt.Errorf("failed to confirm inventory event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID removes one event. Used to drop an optimistic placeholder when
// the server assigned a different id to the confirmed event.
func (r *InventoryEventRepository) DeleteByID(ctx context.Context, id string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", id).Delete(&models.InventoryEventModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete inventory event: %w", err)
	}
	return nil
}
