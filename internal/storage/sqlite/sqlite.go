package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jmalhado/crisiscast/internal/config"
	"github.com/jmalhado/crisiscast/internal/protocol"
	"github.com/jmalhado/crisiscast/internal/storage"
)

// Store is a GORM-backed SQLite implementation of storage.Store.
type Store struct {
	db *gorm.DB
}

type alertModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Description string
	Type        string `gorm:"index"`
	Severity    string
	Region      string `gorm:"index"`
	IssuedAt    time.Time
	ExpiresAt   *time.Time
	Actions     string
	Source      string
	Contact     string
}

// NewStore opens a SQLite database at the provided path.
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies schema updates.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&alertModel{})
}

// SaveAlert stores a new alert record.
func (s *Store) SaveAlert(ctx context.Context, alert *protocol.Alert) error {
	if alert == nil {
		return errors.New("nil alert")
	}
	model := alertModel{
		ID:          alert.ID,
		Title:       alert.Title,
		Description: alert.Description,
		Type:        alert.Type,
		Severity:    alert.Severity,
		Region:      alert.Region,
		IssuedAt:    alert.IssuedAt,
		ExpiresAt:   alert.ExpiresAt,
		Actions:     alert.Actions,
		Source:      alert.Source,
		Contact:     alert.Contact,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// FindAlert loads a stored alert by ID. Returns storage.ErrNotFound for
// unknown IDs.
func (s *Store) FindAlert(ctx context.Context, id string) (*protocol.Alert, error) {
	var model alertModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &protocol.Alert{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Type:        model.Type,
		Severity:    model.Severity,
		Region:      model.Region,
		IssuedAt:    model.IssuedAt,
		ExpiresAt:   model.ExpiresAt,
		Actions:     model.Actions,
		Source:      model.Source,
		Contact:     model.Contact,
	}, nil
}
