package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/domain/trade"
	applog "github.com/erp/lifetime/internal/infrastructure/logger"
	"github.com/erp/lifetime/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrFlushInProgress is returned when a unit of work is flushed from inside its own transaction
var ErrFlushInProgress = errors.New("unit of work: flush already in progress")

type scheduled struct {
	aggregate shared.AggregateRoot
	kind      shared.ChangeKind
}

// GormUnitOfWork implements unitofwork.UnitOfWork on top of GORM transactions
type GormUnitOfWork struct {
	db        *gorm.DB
	logger    *zap.Logger
	listeners []unitofwork.Listener
	pending   []*scheduled
	inTx      bool
}

// NewGormUnitOfWork creates a unit of work without listeners
func NewGormUnitOfWork(db *gorm.DB, logger *zap.Logger) *GormUnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormUnitOfWork{db: db, logger: logger}
}

// AddListener registers a listener notified on every flush
func (u *GormUnitOfWork) AddListener(l unitofwork.Listener) {
	u.listeners = append(u.listeners, l)
}

// Insert schedules a new aggregate for insertion
func (u *GormUnitOfWork) Insert(aggregate shared.AggregateRoot) error {
	if aggregate == nil || !hasIdentity(aggregate) {
		return shared.NewDomainError("INVALID_AGGREGATE", "Aggregate must have an identity")
	}
	if s := u.find(aggregate); s != nil {
		if s.kind == shared.ChangeKindDelete {
			return shared.NewDomainError("SCHEDULED_FOR_DELETE", "Aggregate is scheduled for deletion")
		}
		return nil
	}
	u.pending = append(u.pending, &scheduled{aggregate: aggregate, kind: shared.ChangeKindInsert})
	return nil
}

// Update schedules a stored aggregate for update. An aggregate already
// scheduled for insertion or update is left as is.
func (u *GormUnitOfWork) Update(aggregate shared.AggregateRoot) error {
	if aggregate == nil || !hasIdentity(aggregate) {
		return shared.NewDomainError("INVALID_AGGREGATE", "Aggregate must have an identity")
	}
	if s := u.find(aggregate); s != nil {
		if s.kind == shared.ChangeKindDelete {
			return shared.NewDomainError("SCHEDULED_FOR_DELETE", "Aggregate is scheduled for deletion")
		}
		return nil
	}
	u.pending = append(u.pending, &scheduled{aggregate: aggregate, kind: shared.ChangeKindUpdate})
	return nil
}

// Delete schedules an aggregate for deletion. Deleting an aggregate scheduled
// for insertion cancels the insertion; an aggregate without identity is ignored.
func (u *GormUnitOfWork) Delete(aggregate shared.AggregateRoot) error {
	if aggregate == nil || !hasIdentity(aggregate) {
		return nil
	}
	for i, s := range u.pending {
		if s.aggregate.GetID() != aggregate.GetID() {
			continue
		}
		switch s.kind {
		case shared.ChangeKindInsert:
			u.pending = append(u.pending[:i], u.pending[i+1:]...)
		case shared.ChangeKindUpdate:
			s.kind = shared.ChangeKindDelete
		}
		return nil
	}
	u.pending = append(u.pending, &scheduled{aggregate: aggregate, kind: shared.ChangeKindDelete})
	return nil
}

// Repositories reads committed state outside of a flush
func (u *GormUnitOfWork) Repositories() unitofwork.Repositories {
	return NewRepositories(u.db)
}

// Flush writes every scheduled change in one transaction.
// Updates are guarded by the version the aggregate was loaded with; a row
// changed by someone else fails the flush with shared.ErrConcurrencyConflict.
//
// Listeners see the flush through OnFlush after the writes are issued and
// before commit; any error there rolls everything back and every listener is
// told through OnAbort. After commit, deleted aggregates are detached,
// recorded changes are cleared and PostFlush runs, which may schedule more
// changes and flush again.
func (u *GormUnitOfWork) Flush(ctx context.Context) error {
	if u.inTx {
		return ErrFlushInProgress
	}

	mutations := u.mutations()
	u.pending = nil
	if len(mutations) == 0 {
		return nil
	}

	if err := u.commit(ctx, mutations); err != nil {
		for _, l := range u.listeners {
			l.OnAbort(ctx)
		}
		return err
	}

	for _, m := range mutations {
		if m.IsDelete() {
			if d, ok := m.Entity.(shared.Detachable); ok {
				d.Detach()
			}
		}
		if a, ok := m.Entity.(shared.AggregateRoot); ok {
			a.ClearChanges()
			if !m.IsDelete() {
				a.MarkStored()
			}
		}
	}

	u.logger.Debug("Unit of work flushed", zap.Int("mutations", len(mutations)))

	var firstErr error
	for _, l := range u.listeners {
		if err := l.PostFlush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (u *GormUnitOfWork) commit(ctx context.Context, mutations []shared.PendingMutation) error {
	u.inTx = true
	defer func() { u.inTx = false }()

	// a flush issued by a lifetime drain keeps the drain phase
	if applog.SQLPhase(ctx) == "" {
		ctx = applog.WithSQLPhase(ctx, applog.SQLPhaseFlush)
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	repos := NewRepositories(tx)
	for _, m := range mutations {
		if err := apply(ctx, tx, repos, m); err != nil {
			tx.Rollback()
			return err
		}
	}

	event := &unitofwork.FlushEvent{Mutations: mutations, Repos: repos}
	for _, l := range u.listeners {
		if err := l.OnFlush(ctx, event); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// mutations snapshots the schedule. Updates without recorded changes are dropped.
func (u *GormUnitOfWork) mutations() []shared.PendingMutation {
	out := make([]shared.PendingMutation, 0, len(u.pending))
	for _, s := range u.pending {
		m := shared.PendingMutation{Entity: s.aggregate, Kind: s.kind}
		if s.kind == shared.ChangeKindUpdate {
			m.Changes = s.aggregate.PendingChanges().Clone()
			if len(m.Changes) == 0 {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

func (u *GormUnitOfWork) find(aggregate shared.AggregateRoot) *scheduled {
	for _, s := range u.pending {
		if s.aggregate.GetID() == aggregate.GetID() {
			return s
		}
	}
	return nil
}

func apply(ctx context.Context, tx *gorm.DB, repos unitofwork.Repositories, m shared.PendingMutation) error {
	var err error
	switch entity := m.Entity.(type) {
	case *partner.Customer:
		switch {
		case m.IsDelete():
			err = repos.Customers().Delete(ctx, entity.ID)
		case m.IsUpdate():
			err = updateVersioned(ctx, tx, models.CustomerModelFromDomain(entity), entity.ID, entity.StoredVersion())
		default:
			err = repos.Customers().Save(ctx, entity)
		}
	case *trade.SalesOrder:
		switch {
		case m.IsDelete():
			err = repos.SalesOrders().Delete(ctx, entity.ID)
		case m.IsUpdate():
			err = updateVersioned(ctx, tx, models.SalesOrderModelFromDomain(entity), entity.ID, entity.StoredVersion())
		default:
			err = repos.SalesOrders().Save(ctx, entity)
		}
	case *payment.PaymentTransaction:
		switch {
		case m.IsDelete():
			err = repos.PaymentTransactions().Delete(ctx, entity.ID)
		case m.IsUpdate():
			err = updateVersioned(ctx, tx, models.PaymentTransactionModelFromDomain(entity), entity.ID, entity.StoredVersion())
		default:
			err = repos.PaymentTransactions().Save(ctx, entity)
		}
	default:
		return fmt.Errorf("unit of work: unsupported aggregate %T", m.Entity)
	}
	if err != nil {
		return fmt.Errorf("%s %T %s: %w", m.Kind, m.Entity, m.Entity.GetID(), err)
	}
	return nil
}

// updateVersioned writes every column of model, provided the row still
// carries the expected version
func updateVersioned(ctx context.Context, tx *gorm.DB, model any, id uuid.UUID, expected int) error {
	result := tx.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Where("id = ? AND version = ?", id, expected).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func hasIdentity(e shared.Entity) bool {
	if withIdentity, ok := e.(interface{ HasIdentity() bool }); ok {
		return withIdentity.HasIdentity()
	}
	return true
}

// GormUnitOfWorkFactory creates units of work sharing one database connection
type GormUnitOfWorkFactory struct {
	db        *gorm.DB
	logger    *zap.Logger
	listeners []unitofwork.ListenerFactory
}

// NewGormUnitOfWorkFactory creates a factory. Each listener factory is
// invoked once per unit of work.
func NewGormUnitOfWorkFactory(db *gorm.DB, logger *zap.Logger, listeners ...unitofwork.ListenerFactory) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db, logger: logger, listeners: listeners}
}

// New creates a unit of work with fresh listeners
func (f *GormUnitOfWorkFactory) New() unitofwork.UnitOfWork {
	uow := NewGormUnitOfWork(f.db, f.logger)
	for _, newListener := range f.listeners {
		uow.AddListener(newListener(uow))
	}
	return uow
}

var (
	_ unitofwork.UnitOfWork = (*GormUnitOfWork)(nil)
	_ unitofwork.Factory    = (*GormUnitOfWorkFactory)(nil)
)
