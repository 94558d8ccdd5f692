package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/izakgestao/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBoletoRepository implements ledger.BoletoRepository using GORM
type GormBoletoRepository struct {
	db *gorm.DB
}

// NewGormBoletoRepository creates a new GormBoletoRepository
func NewGormBoletoRepository(db *gorm.DB) *GormBoletoRepository {
	return &GormBoletoRepository{db: db}
}

// Save inserts or updates a cached boleto record
func (r *GormBoletoRepository) Save(ctx context.Context, record *ledger.BoletoRecord) error {
	model := models.BoletoModelFromDomain(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindByID retrieves a cached record by provider id
func (r *GormBoletoRepository) FindByID(ctx context.Context, boletoID string) (*ledger.BoletoRecord, error) {
	var model models.BoletoModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", boletoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAccountID retrieves the most recent record attached to an account
func (r *GormBoletoRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*ledger.BoletoRecord, error) {
	var model models.BoletoModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("issued_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
