package persistence

import (
	"context"
	"errors"

	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentTransactionRepository implements PaymentTransactionRepository using GORM
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewGormPaymentTransactionRepository creates a new GormPaymentTransactionRepository
func NewGormPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// FindByID finds a payment transaction by ID
func (r *GormPaymentTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PaymentTransaction, error) {
	var model models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEntity finds all transactions made against an entity, oldest first
func (r *GormPaymentTransactionRepository) FindByEntity(ctx context.Context, entityClass string, entityID uuid.UUID) ([]*payment.PaymentTransaction, error) {
	var txModels []models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).
		Where("entity_class = ? AND entity_identifier = ?", entityClass, entityID).
		Order("created_at ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*payment.PaymentTransaction, len(txModels))
	for i := range txModels {
		transactions[i] = txModels[i].ToDomain()
	}
	return transactions, nil
}

// Save creates or updates a payment transaction
func (r *GormPaymentTransactionRepository) Save(ctx context.Context, transaction *payment.PaymentTransaction) error {
	model := models.PaymentTransactionModelFromDomain(transaction)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a payment transaction
func (r *GormPaymentTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentTransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormPaymentTransactionRepository implements PaymentTransactionRepository
var _ payment.PaymentTransactionRepository = (*GormPaymentTransactionRepository)(nil)
