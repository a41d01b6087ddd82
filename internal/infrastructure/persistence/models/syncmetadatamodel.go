package models

import "time"

// SyncMetadataModel tracks per-entity-kind sync progress. One row per kind,
// created lazily on first sync. LastSuccessfulSync never regresses.
type SyncMetadataModel struct {
	Key               string `gorm:"primaryKey;size:50"`
	LastSuccessfulSync *time.Time
	ETag              *string `gorm:"size:255"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (SyncMetadataModel) TableName() string {
	return "sync_metadata"
}

// PendingAdjustmentModel is a retry breadcrumb for an inventory adjustment
// that failed remotely. Not authoritative; the optimistic inventory event
// carries the provisional balance.
type PendingAdjustmentModel struct {
	ID         string `gorm:"primaryKey;size:64"`
	HardwareID string `gorm:"size:64;not null;index"`
	Quantity   int    `gorm:"not null"`
	Note       *string `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
	LastError  *string   `gorm:"type:text"`
}

func (PendingAdjustmentModel) TableName() string {
	return "pending_inventory_adjustments"
}
