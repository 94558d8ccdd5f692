package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/izakgestao/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTillSessionRepository implements ledger.TillSessionRepository using GORM
type GormTillSessionRepository struct {
	db *gorm.DB
}

// NewGormTillSessionRepository creates a new GormTillSessionRepository
func NewGormTillSessionRepository(db *gorm.DB) *GormTillSessionRepository {
	return &GormTillSessionRepository{db: db}
}

// Save writes the session row and inserts any movements that are not stored
// yet, all in one transaction. The unique index on till_movements.account_id
// turns a concurrent double settlement into shared.ErrAlreadyExists.
func (r *GormTillSessionRepository) Save(ctx context.Context, session *ledger.TillSession) error {
	model := models.TillSessionModelFromDomain(session)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionOnly := *model
		sessionOnly.Movements = nil
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&sessionOnly).Error; err != nil {
			return err
		}

		for i := range model.Movements {
			mov := model.Movements[i]
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoNothing: true,
			}).Create(&mov).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// FindByID retrieves a session with its movements
func (r *GormTillSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.TillSession, error) {
	var model models.TillSessionModel
	if err := r.db.WithContext(ctx).
		Preload("Movements", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen returns the currently open session
func (r *GormTillSessionRepository) FindOpen(ctx context.Context) (*ledger.TillSession, error) {
	var model models.TillSessionModel
	if err := r.db.WithContext(ctx).
		Preload("Movements", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&model, "status = ?", ledger.TillSessionStatusOpen.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists sessions newest first
func (r *GormTillSessionRepository) FindAll(ctx context.Context, limit, offset int) ([]*ledger.TillSession, error) {
	var sessionModels []models.TillSessionModel
	query := r.db.WithContext(ctx).
		Preload("Movements", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("opened_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	sessions := make([]*ledger.TillSession, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = sessionModels[i].ToDomain()
	}
	return sessions, nil
}

// HasMovementForAccount reports whether any session already holds a
// settlement movement for the account
func (r *GormTillSessionRepository) HasMovementForAccount(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MovementModel{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count > 0, err
}

// isUniqueViolation detects a unique constraint failure across drivers.
// Postgres reports SQLSTATE 23505, SQLite mentions the constraint by name.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
