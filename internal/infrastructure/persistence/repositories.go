package persistence

import (
	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/domain/trade"
	"gorm.io/gorm"
)

// gormRepositories hands out repositories bound to one *gorm.DB,
// which is either the base connection or a flush transaction
type gormRepositories struct {
	db *gorm.DB
}

// NewRepositories creates repositories reading and writing through db
func NewRepositories(db *gorm.DB) unitofwork.Repositories {
	return gormRepositories{db: db}
}

func (r gormRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.db)
}

func (r gormRepositories) SalesOrders() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.db)
}

func (r gormRepositories) PaymentTransactions() payment.PaymentTransactionRepository {
	return NewGormPaymentTransactionRepository(r.db)
}
