// Package repository implements local-store access over GORM. Repositories
// never bypass the ambient transaction: a merge inside the sync engine's
// page transaction and a UI query outside it go through the same methods.
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

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("repository: record not found")

// TicketRepository provides access to cached tickets.
type TicketRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(gdb *gorm.DB, log logger.Interface) *TicketRepository {
	return &TicketRepository{db: gdb, logger: log}
}

// FindByID returns one ticket with its attachments.
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*models.TicketModel, []models.AttachmentModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var ticket models.TicketModel
	if err := tx.Where("id = ?", id).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	var attachments []models.AttachmentModel
	if err := tx.Where("ticket_id = ?", id).Order("id").Find(&attachments).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load attachments: %w", err)
	}
	return &ticket, attachments, nil
}

// List returns tickets ordered by most recently updated, optionally
// filtered by status.
func (r *TicketRepository) List(ctx context.Context, status string, limit, offset int) ([]models.TicketModel, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	query := tx.Model(&models.TicketModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	var tickets []models.TicketModel
	if err := query.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&tickets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, total, nil
}

// ListByClient returns a client's tickets ordered by most recently updated.
func (r *TicketRepository) ListByClient(ctx context.Context, clientID string) ([]models.TicketModel, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var tickets []models.TicketModel
	if err := tx.Where("client_id = ?", clientID).Order("updated_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets for client: %w", err)
	}
	return tickets, nil
}

// Delete removes a ticket and its attachments.
func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("ticket_id = ?", id).Delete(&models.AttachmentModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete attachments: %w", err)
	}
	result := tx.Where("id = ?", id).Delete(&models.TicketModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
