package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple customers by their IDs
func (r *GormCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*partner.Customer, error) {
	if len(ids) == 0 {
		return []*partner.Customer{}, nil
	}

	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&customerModels).Error; err != nil {
		return nil, err
	}

	customers := make([]*partner.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = customerModels[i].ToDomain()
	}
	return customers, nil
}

// FindByCode finds a customer by its code
func (r *GormCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks if a customer with the given code exists
func (r *GormCustomerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveBatch creates or updates multiple customers
func (r *GormCustomerRepository) SaveBatch(ctx context.Context, customers []*partner.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	customerModels := make([]*models.CustomerModel, len(customers))
	for i, c := range customers {
		customerModels[i] = models.CustomerModelFromDomain(c)
	}
	return r.db.WithContext(ctx).Save(customerModels).Error
}

// Delete deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
