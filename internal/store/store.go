// Package store persists registry entries between process runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asset-registry-api/internal/models"
	"asset-registry-api/internal/versioned"
)

// EntryStore loads and saves one entry per (network, kind).
type EntryStore interface {
	// Load returns found=false, and no error, when nothing is stored.
	Load(ctx context.Context, network models.Network, kind models.Kind) (entry versioned.Entry, found bool, err error)
	Save(ctx context.Context, network models.Network, kind models.Kind, entry versioned.Entry) error
	Delete(ctx context.Context, network models.Network, kind models.Kind) error
}

// Error wraps a storage failure. It is never a versioned.DeserializationError.
type Error struct {
	Op      string
	Network models.Network
	Kind    models.Kind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %s/%s: %v", e.Op, e.Network, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// GormStore keeps entries in the registry_entries table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Load implements EntryStore.Load.
func (s *GormStore) Load(ctx context.Context, network models.Network, kind models.Kind) (versioned.Entry, bool, error) {
	var row models.RegistryEntry
	err := s.db.WithContext(ctx).
		Where("network = ? AND kind = ?", network, kind).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return versioned.Entry{}, false, nil
		}
		return versioned.Entry{}, false, &Error{Op: "load", Network: network, Kind: kind, Err: err}
	}

	value, err := versioned.ParseValue([]byte(row.Value))
	if err != nil {
		return versioned.Entry{}, false, &Error{Op: "load", Network: network, Kind: kind, Err: fmt.Errorf("corrupt value column: %w", err)}
	}
	return versioned.New(value, row.LastModified), true, nil
}

// Save implements EntryStore.Save as an upsert on (network, kind).
func (s *GormStore) Save(ctx context.Context, network models.Network, kind models.Kind, entry versioned.Entry) error {
	value, err := entry.MarshalValue()
	if err != nil {
		return &Error{Op: "save", Network: network, Kind: kind, Err: err}
	}

	row := models.RegistryEntry{
		Network:      network,
		Kind:         kind,
		Value:        string(value),
		LastModified: entry.LastModified(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "network"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "last_modified", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return &Error{Op: "save", Network: network, Kind: kind, Err: err}
	}
	return nil
}

// Delete implements EntryStore.Delete. Deleting a missing row is not an error.
func (s *GormStore) Delete(ctx context.Context, network models.Network, kind models.Kind) error {
	err := s.db.WithContext(ctx).
		Where("network = ? AND kind = ?", network, kind).
		Delete(&models.RegistryEntry{}).Error
	if err != nil {
		return &Error{Op: "delete", Network: network, Kind: kind, Err: err}
	}
	return nil
}

var _ EntryStore = (*GormStore)(nil)
