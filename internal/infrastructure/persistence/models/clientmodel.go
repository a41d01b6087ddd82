package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClientModel is a locally cached client record. ID is the stable external
// key assigned by the server; upserts are keyed on it.
type ClientModel struct {
	ID               string `gorm:"primaryKey;size:64"`
	Name             string `gorm:"size:200;not null;index"`
	Email            *string
	Phone            *string
	UpdatedAt        time.Time         `gorm:"not null;index"`
	CustomAttributes datatypes.JSONMap `gorm:"type:json"`

	// Note: No foreign key constraints or associations.
	// All relationships are managed by application business logic.
}

func (ClientModel) TableName() string {
	return "clients"
}
