// Package payment records payment gateway transactions.
package payment

import (
	"context"
	"errors"

	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/google/uuid"
)

// ErrOrderNotFound is returned when a transaction references an unknown sales order
var ErrOrderNotFound = shared.NewDomainError("ORDER_NOT_FOUND", "Sales order not found")

// PaymentTransactionService handles payment transaction operations
type PaymentTransactionService struct {
	uows unitofwork.Factory
}

// NewPaymentTransactionService creates a new PaymentTransactionService
func NewPaymentTransactionService(uows unitofwork.Factory) *PaymentTransactionService {
	return &PaymentTransactionService{uows: uows}
}

// Record stores a new transaction. Transactions against sales orders require the order to exist.
func (s *PaymentTransactionService) Record(ctx context.Context, req RecordTransactionRequest) (*TransactionResponse, error) {
	uow := s.uows.New()

	entityClass := req.EntityClass
	if entityClass == "" {
		entityClass = trade.EntityClass
	}
	if entityClass == trade.EntityClass {
		_, err := uow.Repositories().SalesOrders().FindByID(ctx, req.EntityID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	tx, err := payment.NewPaymentTransaction(entityClass, req.EntityID, payment.Action(req.Action), req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	if req.Successful {
		tx.MarkSuccessful(req.Reference)
	} else {
		tx.Reference = req.Reference
	}

	if err := uow.Insert(tx); err != nil {
		return nil, err
	}
	if err := uow.Flush(ctx); err != nil {
		return nil, err
	}

	response := ToTransactionResponse(tx)
	return &response, nil
}

// GetByID retrieves a transaction by ID
func (s *PaymentTransactionService) GetByID(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.uows.New().Repositories().PaymentTransactions().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToTransactionResponse(tx)
	return &response, nil
}

// ListByOrder returns the transactions made against a sales order
func (s *PaymentTransactionService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]TransactionResponse, error) {
	txs, err := s.uows.New().Repositories().PaymentTransactions().FindByEntity(ctx, trade.EntityClass, orderID)
	if err != nil {
		return nil, err
	}

	responses := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		responses[i] = ToTransactionResponse(tx)
	}
	return responses, nil
}

// RecordResult marks a transaction successful or failed
func (s *PaymentTransactionService) RecordResult(ctx context.Context, id uuid.UUID, req TransactionResultRequest) (*TransactionResponse, error) {
	return s.modify(ctx, id, func(tx *payment.PaymentTransaction) {
		if req.Successful {
			tx.MarkSuccessful(req.Reference)
		} else {
			tx.MarkFailed(req.Reference)
		}
	})
}

// Void deactivates a transaction so it no longer counts towards payments
func (s *PaymentTransactionService) Void(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	return s.modify(ctx, id, func(tx *payment.PaymentTransaction) {
		tx.Deactivate()
	})
}

func (s *PaymentTransactionService) modify(ctx context.Context, id uuid.UUID, change func(*payment.PaymentTransaction)) (*TransactionResponse, error) {
	uow := s.uows.New()

	tx, err := uow.Repositories().PaymentTransactions().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	change(tx)

	if err := uow.Update(tx); err != nil {
		return nil, err
	}
	if err := uow.Flush(ctx); err != nil {
		return nil, err
	}

	response := ToTransactionResponse(tx)
	return &response, nil
}
