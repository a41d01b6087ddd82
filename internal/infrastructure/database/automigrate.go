package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/turnernet/tracksync/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every locally persisted model. The cache schema is
// disposable; deleting the database file and re-syncing rebuilds it.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ClientModel{},
		&models.TicketModel{},
		&models.AttachmentModel{},
		&models.HardwareModel{},
		&models.InventoryEventModel{},
		&models.SyncMetadataModel{},
		&models.PendingAdjustmentModel{},
	}
}

// Migrate applies the local store schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AutoMigrateModels()...); err != nil {
		return fmt.Errorf("failed to migrate local store schema: %w", err)
	}
	return nil
}
