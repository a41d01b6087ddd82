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

// HardwareRepository provides access to cached hardware items.
type HardwareRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewHardwareRepository creates a new HardwareRepository.
func NewHardwareRepository(gdb *gorm.DB, log logger.Interface) *HardwareRepository {
	return &HardwareRepository{db: gdb, logger: log}
}

// FindByID returns one hardware item.
func (r *HardwareRepository) FindByID(ctx context.Context, id string) (*models.HardwareModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var hw models.HardwareModel
	if err := tx.Where("id = ?", id).First(&hw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find hardware: %w", err)
	}
	return &hw, nil
}

// FindByBarcode looks up a hardware item by scanner barcode.
func (r *HardwareRepository) FindByBarcode(ctx context.Context, barcode string) (*models.HardwareModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var hw models.HardwareModel
	if err := tx.Where("barcode = ?", barcode).First(&hw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find hardware by barcode: %w", err)
	}
	return &hw, nil
}

// List returns hardware ordered by name.
func (r *HardwareRepository) List(ctx context.Context, limit, offset int) ([]models.HardwareModel, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var total int64
	if err := tx.Model(&models.HardwareModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count hardware: %w", err)
	}

	var items []models.HardwareModel
	if err := tx.Order("name COLLATE NOCASE").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list hardware: %w", err)
	}
	return items, total, nil
}

// SetQuantity sets the on-hand quantity directly. Used when reconciling
// against a server-computed balance.
func (r *HardwareRepository) SetQuantity(ctx context.Context, id string, quantity int) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.HardwareModel{}).Where("id = ?", id).Update("quantity_on_hand", quantity)
	if result.Error != nil {
		return fmt.Errorf("failed to set hardware quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a hardware item and its inventory events.
func (r *HardwareRepository) Delete(ctx context.Context, id string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("hardware_id = ?", id).Delete(&models.InventoryEventModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete inventory events: %w", err)
	}
	result := tx.Where("id = ?", id).Delete(&models.HardwareModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete hardware: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
