package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/turnernet/tracksync/internal/infrastructure/persistence/models"
	"github.com/turnernet/tracksync/internal/shared/logger"
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
		&models.SyncMetadataModel{},
		&models.PendingAdjustmentModel{},
	)
	require.NoError(t, err)
	return gdb
}

func seedTicket(t *testing.T, gdb *gorm.DB, id string, clientID *string) {
	now := time.Now().UTC()
	require.NoError(t, gdb.Create(&models.TicketModel{
		ID:        id,
		Number:    "TK-" + id,
		Title:     "Ticket " + id,
		Status:    models.TicketStatusOpen,
		ClientID:  clientID,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func TestTicketRepository_DeleteCascadesAttachments(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewTicketRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	seedTicket(t, gdb, "t1", nil)
	require.NoError(t, gdb.Create(&models.AttachmentModel{
		ID:          "a1",
		TicketID:    "t1",
		FileName:    "photo.jpg",
		ContentType: "image/jpeg",
		Size:        100,
		DownloadURL: "https://files.test/a1",
	}).Error)

	require.NoError(t, repo.Delete(ctx, "t1"))

	var attachments int64
	require.NoError(t, gdb.Model(&models.AttachmentModel{}).Count(&attachments).Error)
	assert.Zero(t, attachments)

	assert.ErrorIs(t, repo.Delete(ctx, "t1"), ErrNotFound)
}

func TestClientRepository_DeleteOrphansTickets(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewClientRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.ClientModel{
		ID:        "c1",
		Name:      "Acme",
		UpdatedAt: time.Now().UTC(),
	}).Error)
	clientID := "c1"
	seedTicket(t, gdb, "t1", &clientID)

	require.NoError(t, repo.Delete(ctx, "c1"))

	var ticket models.TicketModel
	require.NoError(t, gdb.First(&ticket, "id = ?", "t1").Error)
	assert.Nil(t, ticket.ClientID, "ticket survives its client unassigned")
}

func TestHardwareRepository_DeleteCascadesEvents(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewHardwareRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, gdb.Create(&models.HardwareModel{
		ID:             "h1",
		Name:           "Dock",
		Barcode:        "DOCK-0001",
		QuantityOnHand: 5,
		UpdatedAt:      now,
	}).Error)
	hwID := "h1"
	require.NoError(t, gdb.Create(&models.InventoryEventModel{
		ID:         "e1",
		HardwareID: &hwID,
		Delta:      5,
		Balance:    5,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)

	require.NoError(t, repo.Delete(ctx, "h1"))

	var events int64
	require.NoError(t, gdb.Model(&models.InventoryEventModel{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestHardwareRepository_FindByBarcode(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewHardwareRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.HardwareModel{
		ID:             "h1",
		Name:           "Dock",
		Barcode:        "DOCK-0001",
		QuantityOnHand: 5,
		UpdatedAt:      time.Now().UTC(),
	}).Error)

	hw, err := repo.FindByBarcode(ctx, "DOCK-0001")
	require.NoError(t, err)
	assert.Equal(t, "h1", hw.ID)

	_, err = repo.FindByBarcode(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSyncMetadataRepository(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSyncMetadataRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	t.Run("rows are created lazily", func(t *testing.T) {
		meta, err := repo.Get(ctx, "tickets")
		require.NoError(t, err)
		assert.Nil(t, meta.LastSuccessfulSync)
		assert.Nil(t, meta.ETag)
	})

	t.Run("lastSuccessfulSync never regresses", func(t *testing.T) {
		newest := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Update(ctx, "tickets", &newest, nil))

		older := newest.Add(-time.Hour)
		etag := `"v2"`
		require.NoError(t, repo.Update(ctx, "tickets", &older, &etag))

		meta, err := repo.Get(ctx, "tickets")
		require.NoError(t, err)
		require.NotNil(t, meta.LastSuccessfulSync)
		assert.True(t, meta.LastSuccessfulSync.Equal(newest))
		require.NotNil(t, meta.ETag)
		assert.Equal(t, `"v2"`, *meta.ETag, "etag still takes the latest value")
	})

	t.Run("kinds are independent", func(t *testing.T) {
		ts := time.Date(2026, 8, 16, 9, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Update(ctx, "hardware", &ts, nil))

		tickets, err := repo.Get(ctx, "tickets")
		require.NoError(t, err)
		hardware, err := repo.Get(ctx, "hardware")
		require.NoError(t, err)
		assert.False(t, tickets.LastSuccessfulSync.Equal(*hardware.LastSuccessfulSync))
	})
}

func TestPendingAdjustmentRepository(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewPendingAdjustmentRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	row, err := repo.Enqueue(ctx, "h1", -3, nil, "rate limited")
	require.NoError(t, err)
	require.NotEmpty(t, row.ID)

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "rate limited", *rows[0].LastError)

	require.NoError(t, repo.Delete(ctx, row.ID))
	assert.ErrorIs(t, repo.Delete(ctx, row.ID), ErrNotFound)
}
