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

// ClientRepository provides access to cached clients.
type ClientRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(gdb *gorm.DB, log logger.Interface) *ClientRepository {
	return &ClientRepository{db: gdb, logger: log}
}

// FindByID returns one client.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.ClientModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var client models.ClientModel
	if err := tx.Where("id = ?", id).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return &client, nil
}

// List returns clients ordered by name.
func (r *ClientRepository) List(ctx context.Context, limit, offset int) ([]models.ClientModel, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var total int64
	if err := tx.Model(&models.ClientModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	var clients []models.ClientModel
	if err := tx.Order("name COLLATE NOCASE").Limit(limit).Offset(offset).Find(&clients).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, total, nil
}

// Delete removes a client. Its tickets are not cascaded; they become
// unassigned and keep working as orphans.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Model(&models.TicketModel{}).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
		return fmt.Errorf("failed to unassign tickets: %w", err)
	}
	result := tx.Where("id = ?", id).Delete(&models.ClientModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete client: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
