package lifetime

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testOrder struct {
	shared.BaseEntity
	ownerID uuid.UUID
}

func newTestOrder(ownerID uuid.UUID) *testOrder {
	return &testOrder{BaseEntity: shared.NewBaseEntity(), ownerID: ownerID}
}

func (o *testOrder) OwnerID() uuid.UUID { return o.ownerID }

type testPayment struct {
	shared.BaseEntity
	parentClass string
	parentID    uuid.UUID
}

func newTestPayment(parentID uuid.UUID) *testPayment {
	return &testPayment{BaseEntity: shared.NewBaseEntity(), parentClass: DefaultParentClass, parentID: parentID}
}

func (p *testPayment) ParentClass() string { return p.parentClass }
func (p *testPayment) ParentID() uuid.UUID { return p.parentID }

type testLabel struct {
	shared.BaseEntity
}

// MockParentResolver is a mock implementation of ParentResolver
type MockParentResolver struct {
	mock.Mock
}

func (m *MockParentResolver) ResolveParent(ctx context.Context, s Secondary) (Primary, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Primary), args.Error(1)
}

// MockStatusComputer is a mock implementation of StatusComputer
type MockStatusComputer struct {
	mock.Mock
}

func (m *MockStatusComputer) ComputeStatus(ctx context.Context, parent Primary, pending []Secondary) (Status, error) {
	args := m.Called(ctx, parent, pending)
	return args.Get(0).(Status), args.Error(1)
}

func insert(e shared.Entity) shared.PendingMutation {
	return shared.PendingMutation{Entity: e, Kind: shared.ChangeKindInsert}
}

func update(e shared.Entity, changes shared.ChangeSet) shared.PendingMutation {
	return shared.PendingMutation{Entity: e, Kind: shared.ChangeKindUpdate, Changes: changes}
}

func remove(e shared.Entity) shared.PendingMutation {
	return shared.PendingMutation{Entity: e, Kind: shared.ChangeKindDelete}
}

func TestClassifier_Primary(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("insert schedules the owner", func(t *testing.T) {
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{insert(newTestOrder(owner))})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{owner}, ids)
	})

	t.Run("delete schedules the owner", func(t *testing.T) {
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{remove(newTestOrder(owner))})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{owner}, ids)
	})

	t.Run("delete of a never stored entity is skipped", func(t *testing.T) {
		order := newTestOrder(owner)
		order.ID = uuid.Nil
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{remove(order)})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("update of the subtotal schedules the owner", func(t *testing.T) {
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{
			update(newTestOrder(owner), shared.ChangeSet{DefaultSubtotalField: {Old: "10", New: "20"}}),
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{owner}, ids)
	})

	t.Run("update of the owner reference schedules old and new owner", func(t *testing.T) {
		previous := uuid.New()
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{
			update(newTestOrder(owner), shared.ChangeSet{DefaultOwnerField: {Old: previous, New: owner}}),
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{previous, owner}, ids)
	})

	t.Run("update outside the value fields schedules nothing", func(t *testing.T) {
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{
			update(newTestOrder(owner), shared.ChangeSet{"label": {Old: "a", New: "b"}}),
			update(newTestOrder(owner), shared.ChangeSet{"label": {Old: "c", New: "d"}}),
		})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("update without changes schedules nothing", func(t *testing.T) {
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{update(newTestOrder(owner), nil)})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("owner implicated many times is returned once", func(t *testing.T) {
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{
			insert(newTestOrder(owner)),
			insert(newTestOrder(owner)),
			remove(newTestOrder(owner)),
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{owner}, ids)
	})

	t.Run("custom value fields", func(t *testing.T) {
		c := NewClassifier(nil, nil, WithValueFields("label"))
		ids, err := c.Classify(ctx, []shared.PendingMutation{
			update(newTestOrder(owner), shared.ChangeSet{"label": {Old: "a", New: "b"}}),
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{owner}, ids)
		assert.Equal(t, []string{"label"}, c.ValueFields())
	})

	t.Run("gate rejects the mutation", func(t *testing.T) {
		c := NewClassifier(nil, nil, WithPrimaryGate(func(context.Context, Primary) (bool, error) {
			return false, nil
		}))
		ids, err := c.Classify(ctx, []shared.PendingMutation{insert(newTestOrder(owner))})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("gate error is returned", func(t *testing.T) {
		c := NewClassifier(nil, nil, WithPrimaryGate(func(context.Context, Primary) (bool, error) {
			return false, errors.New("status lookup failed")
		}))
		_, err := c.Classify(ctx, []shared.PendingMutation{insert(newTestOrder(owner))})
		require.Error(t, err)
	})

	t.Run("order without owner schedules nothing", func(t *testing.T) {
		c := NewClassifier(nil, nil)
		ids, err := c.Classify(ctx, []shared.PendingMutation{insert(newTestOrder(uuid.Nil))})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestClassifier_Secondary(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("transition to full schedules the parent's owner", func(t *testing.T) {
		parent := newTestOrder(owner)
		payment := newTestPayment(parent.ID)
		resolver := new(MockParentResolver)
		status := new(MockStatusComputer)
		resolver.On("ResolveParent", ctx, payment).Return(parent, nil)
		status.On("ComputeStatus", ctx, parent, []Secondary{payment}).Return(StatusFull, nil)

		ids, err := NewClassifier(resolver, status).Classify(ctx, []shared.PendingMutation{insert(payment)})

		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{owner}, ids)
		resolver.AssertExpectations(t)
		status.AssertExpectations(t)
	})

	t.Run("partial status schedules nothing", func(t *testing.T) {
		parent := newTestOrder(owner)
		payment := newTestPayment(parent.ID)
		resolver := new(MockParentResolver)
		status := new(MockStatusComputer)
		resolver.On("ResolveParent", ctx, payment).Return(parent, nil)
		status.On("ComputeStatus", ctx, parent, []Secondary{payment}).Return(StatusPartial, nil)

		ids, err := NewClassifier(resolver, status).Classify(ctx, []shared.PendingMutation{update(payment, nil)})

		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("missing parent is ignored", func(t *testing.T) {
		payment := newTestPayment(uuid.New())
		resolver := new(MockParentResolver)
		status := new(MockStatusComputer)
		resolver.On("ResolveParent", ctx, payment).Return(nil, shared.ErrNotFound)

		ids, err := NewClassifier(resolver, status).Classify(ctx, []shared.PendingMutation{insert(payment)})

		require.NoError(t, err)
		assert.Empty(t, ids)
		status.AssertNotCalled(t, "ComputeStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("other lookup failures are returned", func(t *testing.T) {
		payment := newTestPayment(uuid.New())
		resolver := new(MockParentResolver)
		resolver.On("ResolveParent", ctx, payment).Return(nil, errors.New("connection refused"))

		_, err := NewClassifier(resolver, new(MockStatusComputer)).Classify(ctx, []shared.PendingMutation{insert(payment)})

		require.Error(t, err)
	})

	t.Run("deletions are not considered", func(t *testing.T) {
		resolver := new(MockParentResolver)
		ids, err := NewClassifier(resolver, new(MockStatusComputer)).Classify(ctx, []shared.PendingMutation{
			remove(newTestPayment(uuid.New())),
		})
		require.NoError(t, err)
		assert.Empty(t, ids)
		resolver.AssertNotCalled(t, "ResolveParent", mock.Anything, mock.Anything)
	})

	t.Run("other parent classes are not considered", func(t *testing.T) {
		payment := newTestPayment(uuid.New())
		payment.parentClass = "invoice"
		resolver := new(MockParentResolver)
		ids, err := NewClassifier(resolver, new(MockStatusComputer)).Classify(ctx, []shared.PendingMutation{insert(payment)})
		require.NoError(t, err)
		assert.Empty(t, ids)
		resolver.AssertNotCalled(t, "ResolveParent", mock.Anything, mock.Anything)
	})
}

func TestClassifier_IgnoresUnrelatedEntities(t *testing.T) {
	c := NewClassifier(nil, nil)
	ids, err := c.Classify(context.Background(), []shared.PendingMutation{
		insert(&testLabel{BaseEntity: shared.NewBaseEntity()}),
	})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "none", StatusNone.String())
	assert.Equal(t, "partial", StatusPartial.String())
	assert.Equal(t, "full", StatusFull.String())
}
