// Package mappers converts wire-format records into persisted rows. Every
// upsert is idempotent keyed on the external id, mutates existing rows in
// place, and returns the merged record's updatedAt so sync progress can be
// tracked.
package mappers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/turnernet/tracksync/internal/infrastructure/api"
	"github.com/turnernet/tracksync/internal/infrastructure/persistence/models"
	"github.com/turnernet/tracksync/internal/shared/db"
)

// EntityMapper merges DTOs into the local store. All methods participate in
// an ambient transaction when one is present in the context.
type EntityMapper struct {
	db *gorm.DB
}

// NewEntityMapper creates a mapper over the given database handle.
func NewEntityMapper(gdb *gorm.DB) *EntityMapper {
	return &EntityMapper{db: gdb}
}

// UpsertClient merges one client record.
func (m *EntityMapper) UpsertClient(ctx context.Context, dto api.ClientDTO) (time.Time, error) {
	tx := db.GetTxFromContext(ctx, m.db)

	var row models.ClientModel
	err := tx.Where("id = ?", dto.ID).First(&row).Error
	switch {
	case err == nil:
		row.Name = dto.Name
		row.Email = dto.Email
		row.Phone = dto.Phone
		row.UpdatedAt = dto.UpdatedAt
		row.CustomAttributes = attributesToJSON(dto.CustomAttributes)
		if err := tx.Save(&row).Error; err != nil {
			return time.Time{}, fmt.Errorf("failed to update client %s: %w", dto.ID, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.ClientModel{
			ID:               dto.ID,
			Name:             dto.Name,
			Email:            dto.Email,
			Phone:            dto.Phone,
			UpdatedAt:        dto.UpdatedAt,
			CustomAttributes: attributesToJSON(dto.CustomAttributes),
		}
		if err := tx.Create(&row).Error; err != nil {
			return time.Time{}, fmt.Errorf("failed to create client %s: %w", dto.ID, err)
		}
	default:
		return time.Time{}, fmt.Errorf("failed to query client %s: %w", dto.ID, err)
	}

	return dto.UpdatedAt, nil
}

// UpsertTicket merges one ticket and reconciles its attachments. The client
// reference is kept even when the client is not locally present yet; it
// resolves once the client syncs. Attachments absent from the DTO are left
// in place, only explicit deletion removes them.
func (m *EntityMapper) UpsertTicket(ctx context.Context, dto api.TicketDTO) (time.Time, error) {
	tx := db.GetTxFromContext(ctx, m.db)

	clientID := resolveClientRef(dto.ClientID)

	var row models.TicketModel
	err := tx.Where("id = ?", dto.ID).First(&row).Error
	switch {
	case err == nil:
		row.Number = dto.Number
		row.Title = dto.Title
		row.Status = dto.Status
		row.ClientID = clientID
		row.Assignee = dto.Assignee
		row.Details = dto.Description
		row.CreatedAt = dto.CreatedAt
		row.UpdatedAt = dto.UpdatedAt
		if err := tx.Save(&row).Error; err != nil {
			return time.Time{}, fmt.Errorf("failed to update ticket %s: %w", dto.ID, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.TicketModel{
			ID:        dto.ID,
			Number:    dto.Number,
			Title:     dto.Title,
			Status:    dto.Status,
			ClientID:  clientID,
			Assignee:  dto.Assignee,
			Details:   dto.Description,
			CreatedAt: dto.CreatedAt,
			UpdatedAt: dto.UpdatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return time.Time{}, fmt.Errorf("failed to create ticket %s: %w", dto.ID, err)
		}
	default:
		return time.Time{}, fmt.Errorf("failed to query ticket %s: %w", dto.ID, err)
	}

	for _, attachment := range dto.Attachments {
		if err := m.upsertAttachment(tx, dto.ID, attachment); err != nil {
			return time.Time{}, err
		}
	}

	return dto.UpdatedAt, nil
}

func (m *EntityMapper) upsertAttachment(tx *gorm.DB, ticketID string, dto api.AttachmentDTO) error {
	var row models.AttachmentModel
	err := tx.Where("id = ?", dto.ID).First(&row).Error
	switch {
	case err == nil:
		row.TicketID = ticketID
		row.FileName = dto.FileName
		row.ContentType = dto.ContentType
		row.Size = dto.Size
		row.DownloadURL = dto.DownloadURL
		row.ThumbnailURL = dto.ThumbnailURL
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to update attachment %s: %w", dto.ID, err)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.AttachmentModel{
			ID:           dto.ID,
			TicketID:     ticketID,
			FileName:     dto.FileName,
			ContentType:  dto.ContentType,
			Size:         dto.Size,
			DownloadURL:  dto.DownloadURL,
			ThumbnailURL: dto.ThumbnailURL,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create attachment %s: %w", dto.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("failed to query attachment %s: %w", dto.ID, err)
	}
}

// UpsertHardware merges one hardware record. lastInventoryEventAt only
// moves forward.
func (m *EntityMapper) UpsertHardware(ctx context.Context, dto api.HardwareDTO) (time.Time, error) {
	tx := db.GetTxFromContext(ctx, m.db)

	var row models.HardwareModel
	err := tx.Where("id = ?", dto.ID).First(&row).Error
	switch {
	case err == nil:
		row.Name = dto.Name
		row.Barcode = dto.Barcode
		row.QuantityOnHand = dto.QuantityOnHand
		row.UpdatedAt = dto.UpdatedAt
		row.LastInventoryEventAt = maxTimePtr(row.LastInventoryEventAt, dto.LastInventoryEventAt)
		if err := tx.Save(&row).Error; err != nil {
			return time.Time{}, fmt.Errorf("failed to update hardware %s: %w", dto.ID, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.HardwareModel{
			ID:                   dto.ID,
			Name:                 dto.Name,
			Barcode:              dto.Barcode,
			QuantityOnHand:       dto.QuantityOnHand,
			UpdatedAt:            dto.UpdatedAt,
			LastInventoryEventAt: dto.LastInventoryEventAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return time.Time{}, fmt.Errorf("failed to create hardware %s: %w", dto.ID, err)
		}
	default:
		return time.Time{}, fmt.Errorf("failed to query hardware %s: %w", dto.ID, err)
	}

	return dto.UpdatedAt, nil
}

// UpsertInventoryEvent merges one inventory event and bumps the owning
// hardware's lastInventoryEventAt.
func (m *EntityMapper) UpsertInventoryEvent(ctx context.Context, dto api.InventoryEventDTO) (time.Time, error) {
	tx := db.GetTxFromContext(ctx, m.db)

	hardwareID := resolveHardwareRef(dto.HardwareID)

	var row models.InventoryEventModel
	err := tx.Where("id = ?", dto.ID).First(&row).Error
	switch {
	case err == nil:
		row.HardwareID = hardwareID
		row.Delta = dto.Delta
		row.Balance = dto.Balance
		row.Note = dto.Note
		row.CreatedAt = dto.CreatedAt
		row.UpdatedAt = dto.UpdatedAt
		row.PendingRetry = dto.PendingRetry
		if err := tx.Save(&row).Error; err != nil {
			return time.Time{}, fmt.Errorf("failed to update inventory event %s: %w", dto.ID, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.InventoryEventModel{
			ID:           dto.ID,
			HardwareID:   hardwareID,
			Delta:        dto.Delta,
			Balance:      dto.Balance,
			Note:         dto.Note,
			CreatedAt:    dto.CreatedAt,
			UpdatedAt:    dto.UpdatedAt,
			PendingRetry: dto.PendingRetry,
		}
		if err := tx.Create(&row).Error; err != nil {
			return time.Time{}, fmt.Errorf("failed to create inventory event %s: %w", dto.ID, err)
		}
	default:
		return time.Time{}, fmt.Errorf("failed to query inventory event %s: %w", dto.ID, err)
	}

	if hardwareID != nil {
		if err := bumpLastInventoryEventAt(tx, *hardwareID, dto.UpdatedAt); err != nil {
			return time.Time{}, err
		}
	}

	return dto.UpdatedAt, nil
}

// resolveClientRef keeps the wire reference even when the client row does
// not exist locally yet; the weak reference resolves on the next client
// sync. An empty id maps to nil.
func resolveClientRef(clientID string) *string {
	if clientID == "" {
		return nil
	}
	return &clientID
}

func resolveHardwareRef(hardwareID string) *string {
	if hardwareID == "" {
		return nil
	}
	return &hardwareID
}

func bumpLastInventoryEventAt(tx *gorm.DB, hardwareID string, eventTime time.Time) error {
	var hw models.HardwareModel
	err := tx.Where("id = ?", hardwareID).First(&hw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load hardware %s: %w", hardwareID, err)
	}
	if hw.LastInventoryEventAt != nil && !eventTime.After(*hw.LastInventoryEventAt) {
		return nil
	}
	hw.LastInventoryEventAt = &eventTime
	if err := tx.Save(&hw).Error; err != nil {
		return fmt.Errorf("failed to update hardware %s: %w", hardwareID, err)
	}
	return nil
}

func maxTimePtr(current, incoming *time.Time) *time.Time {
	if incoming == nil {
		return current
	}
	if current == nil || incoming.After(*current) {
		return incoming
	}
	return current
}

func attributesToJSON(attrs map[string]string) datatypes.JSONMap {
	if len(attrs) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(attrs))
	for key, value := range attrs {
		out[key] = value
	}
	return out
}
