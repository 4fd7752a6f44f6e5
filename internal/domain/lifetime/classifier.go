package lifetime

import (
	"context"
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	// DefaultOwnerField is the change set key of a primary entity's owner reference
	DefaultOwnerField = "customer"
	// DefaultSubtotalField is the change set key of a primary entity's value
	DefaultSubtotalField = "subtotal_value"
	// DefaultParentClass is the parent class secondary entities must reference
	DefaultParentClass = "sales_order"
)

// ClassifierOption configures a Classifier
type ClassifierOption func(*Classifier)

// WithValueFields replaces the set of primary fields whose update affects the owner's value
func WithValueFields(fields ...string) ClassifierOption {
	return func(c *Classifier) {
		c.valueFields = mapset.NewThreadUnsafeSet(fields...)
	}
}

// WithOwnerField sets the change set key holding the owner reference
func WithOwnerField(field string) ClassifierOption {
	return func(c *Classifier) {
		c.ownerField = field
	}
}

// WithParentClass sets the parent class a secondary entity must reference to be considered
func WithParentClass(class string) ClassifierOption {
	return func(c *Classifier) {
		c.parentClass = class
	}
}

// WithPrimaryGate filters primary mutations before the classification rules apply
func WithPrimaryGate(gate PrimaryGate) ClassifierOption {
	return func(c *Classifier) {
		c.gate = gate
	}
}

// Classifier maps pending mutations to the owners that need recomputation
type Classifier struct {
	valueFields mapset.Set[string]
	ownerField  string
	parentClass string
	gate        PrimaryGate
	resolver    ParentResolver
	status      StatusComputer
}

// NewClassifier creates a Classifier. The resolver and status computer are only
// consulted for secondary mutations.
func NewClassifier(resolver ParentResolver, status StatusComputer, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		valueFields: mapset.NewThreadUnsafeSet(DefaultOwnerField, DefaultSubtotalField),
		ownerField:  DefaultOwnerField,
		parentClass: DefaultParentClass,
		resolver:    resolver,
		status:      status,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValueFields returns the primary fields whose update triggers recomputation
func (c *Classifier) ValueFields() []string {
	return c.valueFields.ToSlice()
}

// Classify returns the identities of the owners implicated by the mutations,
// each at most once, in the order they were first implicated
func (c *Classifier) Classify(ctx context.Context, mutations []shared.PendingMutation) ([]uuid.UUID, error) {
	owners := newOwnerSet()

	for _, m := range mutations {
		switch entity := m.Entity.(type) {
		case Primary:
			if err := c.classifyPrimary(ctx, entity, m, owners); err != nil {
				return nil, err
			}
		case Secondary:
			if err := c.classifySecondary(ctx, entity, m, owners); err != nil {
				return nil, err
			}
		}
	}

	return owners.ids, nil
}

func (c *Classifier) classifyPrimary(ctx context.Context, p Primary, m shared.PendingMutation, owners *ownerSet) error {
	// A deletion of an entity that was never stored changes nothing.
	if m.IsDelete() && !hasIdentity(p) {
		return nil
	}

	if c.gate != nil {
		ok, err := c.gate(ctx, p)
		if err != nil {
			return fmt.Errorf("primary gate for %s: %w", p.GetID(), err)
		}
		if !ok {
			return nil
		}
	}

	switch m.Kind {
	case shared.ChangeKindInsert, shared.ChangeKindDelete:
		owners.add(p.OwnerID())
	case shared.ChangeKindUpdate:
		if !c.isChangeSetValuable(m.Changes) {
			return nil
		}
		if change, ok := m.Changes[c.ownerField]; ok {
			if previous, ok := ownerIDFromValue(change.Old); ok {
				owners.add(previous)
			}
		}
		owners.add(p.OwnerID())
	}
	return nil
}

func (c *Classifier) classifySecondary(ctx context.Context, s Secondary, m shared.PendingMutation, owners *ownerSet) error {
	if m.IsDelete() {
		return nil
	}
	if s.ParentClass() != c.parentClass || c.resolver == nil || c.status == nil {
		return nil
	}

	parent, err := c.resolver.ResolveParent(ctx, s)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("resolve parent %s of %s: %w", s.ParentID(), s.GetID(), err)
	}
	if parent == nil {
		return nil
	}

	status, err := c.status.ComputeStatus(ctx, parent, []Secondary{s})
	if err != nil {
		return fmt.Errorf("compute status of %s: %w", parent.GetID(), err)
	}
	if status == StatusFull {
		owners.add(parent.OwnerID())
	}
	return nil
}

// isChangeSetValuable reports whether any changed field affects the owner's value
func (c *Classifier) isChangeSetValuable(changes shared.ChangeSet) bool {
	if len(changes) == 0 {
		return false
	}
	changed := mapset.NewThreadUnsafeSet(changes.Fields()...)
	return changed.Intersect(c.valueFields).Cardinality() > 0
}

func hasIdentity(e shared.Entity) bool {
	if withIdentity, ok := e.(interface{ HasIdentity() bool }); ok {
		return withIdentity.HasIdentity()
	}
	return e.GetID() != uuid.Nil
}

func ownerIDFromValue(v any) (uuid.UUID, bool) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, id != uuid.Nil
	case *uuid.UUID:
		if id == nil {
			return uuid.Nil, false
		}
		return *id, *id != uuid.Nil
	}
	return uuid.Nil, false
}

// ownerSet is an insertion-ordered set of owner identities
type ownerSet struct {
	seen mapset.Set[uuid.UUID]
	ids  []uuid.UUID
}

func newOwnerSet() *ownerSet {
	return &ownerSet{seen: mapset.NewThreadUnsafeSet[uuid.UUID]()}
}

func (s *ownerSet) add(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	if s.seen.Add(id) {
		s.ids = append(s.ids, id)
	}
}
