package mappers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/turnernet/tracksync/internal/infrastructure/api"
	"github.com/turnernet/tracksync/internal/infrastructure/persistence/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = gdb.AutoMigrate(
		&models.ClientModel{},
		&models.TicketModel{},
		&models.AttachmentModel{},
		&models.HardwareModel{},
		&models.InventoryEventModel{},
	)
	require.NoError(t, err)
	return gdb
}

func strPtr(s string) *string { return &s }

func TestEntityMapper_UpsertClient(t *testing.T) {
	gdb := setupTestDB(t)
	mapper := NewEntityMapper(gdb)
	ctx := context.Background()

	updatedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	dto := api.ClientDTO{
		ID:               "c1",
		Name:             "Acme Corp",
		Email:            strPtr("ops@acme.test"),
		UpdatedAt:        updatedAt,
		CustomAttributes: map[string]string{"tier": "gold"},
	}

	t.Run("creates new client", func(t *testing.T) {
		merged, err := mapper.UpsertClient(ctx, dto)
		require.NoError(t, err)
		assert.True(t, merged.Equal(updatedAt))

		var row models.ClientModel
		require.NoError(t, gdb.First(&row, "id = ?", "c1").Error)
		assert.Equal(t, "Acme Corp", row.Name)
	})

	t.Run("merging the same record twice is idempotent", func(t *testing.T) {
		_, err := mapper.UpsertClient(ctx, dto)
		require.NoError(t, err)

		var count int64
		require.NoError(t, gdb.Model(&models.ClientModel{}).Where("id = ?", "c1").Count(&count).Error)
		assert.Equal(t, int64(1), count)

		var row models.ClientModel
		require.NoError(t, gdb.First(&row, "id = ?", "c1").Error)
		assert.Equal(t, "Acme Corp", row.Name)
		require.NotNil(t, row.Email)
		assert.Equal(t, "ops@acme.test", *row.Email)
	})

	t.Run("updates mutate the existing row in place", func(t *testing.T) {
		changed := dto
		changed.Name = "Acme Corporation"
		changed.UpdatedAt = updatedAt.Add(time.Hour)

		_, err := mapper.UpsertClient(ctx, changed)
		require.NoError(t, err)

		var row models.ClientModel
		require.NoError(t, gdb.First(&row, "id = ?", "c1").Error)
		assert.Equal(t, "Acme Corporation", row.Name)
	})
}

func TestEntityMapper_UpsertTicket(t *testing.T) {
	gdb := setupTestDB(t)
	mapper := NewEntityMapper(gdb)
	ctx := context.Background()

	updatedAt := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)

	t.Run("keeps client reference before the client has synced", func(t *testing.T) {
		dto := api.TicketDTO{
			ID:        "t1",
			Number:    "TK-001",
			Title:     "Printer down",
			Status:    models.TicketStatusOpen,
			ClientID:  "c-not-here-yet",
			UpdatedAt: updatedAt,
			CreatedAt: updatedAt,
		}
		_, err := mapper.UpsertTicket(ctx, dto)
		require.NoError(t, err)

		var row models.TicketModel
		require.NoError(t, gdb.First(&row, "id = ?", "t1").Error)
		require.NotNil(t, row.ClientID)
		assert.Equal(t, "c-not-here-yet", *row.ClientID)

		// once the client arrives the reference resolves via the join
		_, err = mapper.UpsertClient(ctx, api.ClientDTO{
			ID:        "c-not-here-yet",
			Name:      "Late Client",
			UpdatedAt: updatedAt,
		})
		require.NoError(t, err)

		var client models.ClientModel
		require.NoError(t, gdb.First(&client, "id = ?", *row.ClientID).Error)
		assert.Equal(t, "Late Client", client.Name)
	})

	t.Run("reconciles attachments without implicit removal", func(t *testing.T) {
		dto := api.TicketDTO{
			ID:        "t2",
			Number:    "TK-002",
			Title:     "Laptop swap",
			Status:    models.TicketStatusPending,
			UpdatedAt: updatedAt,
			CreatedAt: updatedAt,
			Attachments: []api.AttachmentDTO{
				{ID: "a1", FileName: "before.jpg", ContentType: "image/jpeg", Size: 1024, DownloadURL: "https://files.test/a1"},
				{ID: "a2", FileName: "after.jpg", ContentType: "image/jpeg", Size: 2048, DownloadURL: "https://files.test/a2"},
			},
		}
		_, err := mapper.UpsertTicket(ctx, dto)
		require.NoError(t, err)

		// a later merge that omits a2 must not delete it
		dto.Attachments = []api.AttachmentDTO{
			{ID: "a1", FileName: "before-renamed.jpg", ContentType: "image/jpeg", Size: 1024, DownloadURL: "https://files.test/a1"},
		}
		dto.UpdatedAt = updatedAt.Add(time.Minute)
		_, err = mapper.UpsertTicket(ctx, dto)
		require.NoError(t, err)

		var attachments []models.AttachmentModel
		require.NoError(t, gdb.Where("ticket_id = ?", "t2").Order("id").Find(&attachments).Error)
		require.Len(t, attachments, 2)
		assert.Equal(t, "before-renamed.jpg", attachments[0].FileName)
		assert.Equal(t, "after.jpg", attachments[1].FileName)
	})
}

func TestEntityMapper_UpsertInventoryEvent(t *testing.T) {
	gdb := setupTestDB(t)
	mapper := NewEntityMapper(gdb)
	ctx := context.Background()

	hwUpdated := time.Date(2026, 8, 3, 8, 0, 0, 0, time.UTC)
	_, err := mapper.UpsertHardware(ctx, api.HardwareDTO{
		ID:             "h1",
		Name:           "Dock",
		Barcode:        "DOCK-0001",
		QuantityOnHand: 10,
		UpdatedAt:      hwUpdated,
	})
	require.NoError(t, err)

	t.Run("bumps lastInventoryEventAt", func(t *testing.T) {
		eventAt := hwUpdated.Add(time.Hour)
		_, err := mapper.UpsertInventoryEvent(ctx, api.InventoryEventDTO{
			ID:         "e1",
			HardwareID: "h1",
			Delta:      -2,
			Balance:    8,
			CreatedAt:  eventAt,
			UpdatedAt:  eventAt,
		})
		require.NoError(t, err)

		var hw models.HardwareModel
		require.NoError(t, gdb.First(&hw, "id = ?", "h1").Error)
		require.NotNil(t, hw.LastInventoryEventAt)
		assert.True(t, hw.LastInventoryEventAt.Equal(eventAt))
	})

	t.Run("lastInventoryEventAt never regresses", func(t *testing.T) {
		var before models.HardwareModel
		require.NoError(t, gdb.First(&before, "id = ?", "h1").Error)
		require.NotNil(t, before.LastInventoryEventAt)
		high := *before.LastInventoryEventAt

		stale := high.Add(-2 * time.Hour)
		_, err := mapper.UpsertInventoryEvent(ctx, api.InventoryEventDTO{
			ID:         "e0",
			HardwareID: "h1",
			Delta:      1,
			Balance:    11,
			CreatedAt:  stale,
			UpdatedAt:  stale,
		})
		require.NoError(t, err)

		var hw models.HardwareModel
		require.NoError(t, gdb.First(&hw, "id = ?", "h1").Error)
		require.NotNil(t, hw.LastInventoryEventAt)
		assert.True(t, hw.LastInventoryEventAt.Equal(high))
	})

	t.Run("event for unknown hardware keeps the weak reference", func(t *testing.T) {
		eventAt := hwUpdated.Add(3 * time.Hour)
		_, err := mapper.UpsertInventoryEvent(ctx, api.InventoryEventDTO{
			ID:         "e2",
			HardwareID: "h-missing",
			Delta:      5,
			Balance:    5,
			CreatedAt:  eventAt,
			UpdatedAt:  eventAt,
		})
		require.NoError(t, err)

		var event models.InventoryEventModel
		require.NoError(t, gdb.First(&event, "id = ?", "e2").Error)
		require.NotNil(t, event.HardwareID)
		assert.Equal(t, "h-missing", *event.HardwareID)
	})
}
