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

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Save inserts or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists accounts matching the filter, ordered by due date ascending
func (r *GormAccountRepository) FindAll(ctx context.Context, filter ledger.AccountFilter) ([]*ledger.Account, error) {
	var accountModels []models.AccountModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}), filter).
		Order("due_date ASC, created_at ASC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&accountModels).Error; err != nil {
		return nil, err
	}

	accounts := make([]*ledger.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToDomain()
	}
	return accounts, nil
}

// Count returns how many accounts match the filter
func (r *GormAccountRepository) Count(ctx context.Context, filter ledger.AccountFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}), filter).
		Count(&count).Error
	return count, err
}

// FindByBoletoID locates the account owning the given boleto
func (r *GormAccountRepository) FindByBoletoID(ctx context.Context, boletoID string) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		First(&model, "boleto_id = ?", boletoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnpaid lists accounts with no paid date
func (r *GormAccountRepository) FindUnpaid(ctx context.Context) ([]*ledger.Account, error) {
	var accountModels []models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("paid_date IS NULL").
		Order("due_date ASC").
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]*ledger.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToDomain()
	}
	return accounts, nil
}

// Delete removes an account
func (r *GormAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AccountModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter translates the domain filter to query conditions. The stored
// status only distinguishes paid from unpaid; overdue derivation happens in
// the application layer.
func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter ledger.AccountFilter) *gorm.DB {
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind.String())
	}
	switch filter.Status {
	case ledger.AccountStatusPaid:
		query = query.Where("paid_date IS NOT NULL")
	case ledger.AccountStatusPending, ledger.AccountStatusOverdue:
		query = query.Where("paid_date IS NULL")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Counterparty != "" {
		query = query.Where("LOWER(counterparty) LIKE LOWER(?)", "%"+filter.Counterparty+"%")
	}
	if filter.DueAfter != nil {
		query = query.Where("due_date >= ?", *filter.DueAfter)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date <= ?", *filter.DueBefore)
	}
	return query
}
