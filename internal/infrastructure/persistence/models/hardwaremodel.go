package models

import "time"

// HardwareModel is a locally cached hardware item. Barcode is the external
// lookup key used by the scanner flow; the API does not guarantee global
// uniqueness but the local store treats it as unique.
type HardwareModel struct {
	ID                   string `gorm:"primaryKey;size:64"`
	Name                 string `gorm:"size:200;not null"`
	Barcode              string `gorm:"size:100;not null;uniqueIndex"`
	QuantityOnHand       int    `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null;index"`
	LastInventoryEventAt *time.Time
}

func (HardwareModel) TableName() string {
	return "hardware"
}

// InventoryEventModel records a quantity change. PendingRetry marks an
// optimistic local write that the server has not confirmed yet.
type InventoryEventModel struct {
	ID           string  `gorm:"primaryKey;size:64"`
	HardwareID   *string `gorm:"size:64;index"`
	Delta        int     `gorm:"not null"`
	Balance      int     `gorm:"not null"`
	Note         *string `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null;index"`
	PendingRetry bool      `gorm:"not null;default:false;index"`
}

func (InventoryEventModel) TableName() string {
	return "inventory_events"
}
