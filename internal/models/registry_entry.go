package models

import "time"

// RegistryEntry is the persisted form of one cached registry document
type RegistryEntry struct {
	Network      Network   `json:"network" gorm:"primaryKey;size:32"`
	Kind         Kind      `json:"kind" gorm:"primaryKey;size:16"`
	Value        string    `json:"value" gorm:"type:text;not null"`
	LastModified string    `json:"last_modified" gorm:"column:last_modified;not null;default:''"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for RegistryEntry Model
func (RegistryEntry) TableName() string {
	return "registry_entries"
}
