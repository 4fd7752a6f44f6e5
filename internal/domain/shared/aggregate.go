package shared

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	StoredVersion() int
	MarkStored()
	PendingChanges() ChangeSet
	ClearChanges()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version       int
	storedVersion int
	changes       ChangeSet
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// StoredVersion returns the version the storage holds for this aggregate.
// Zero means the aggregate has never been read from or written to storage.
func (a *BaseAggregateRoot) StoredVersion() int {
	return a.storedVersion
}

// MarkStored records the current version as the one held by storage
func (a *BaseAggregateRoot) MarkStored() {
	a.storedVersion = a.Version
}

// RecordChange records a field change made since the last flush.
// The first recorded old value is kept so that repeated changes of the same
// field still report the value that is currently stored.
func (a *BaseAggregateRoot) RecordChange(field string, oldValue, newValue any) {
	if a.changes == nil {
		a.changes = make(ChangeSet)
	}
	if existing, ok := a.changes[field]; ok {
		oldValue = existing.Old
	}
	a.changes[field] = FieldChange{Old: oldValue, New: newValue}
}

// PendingChanges returns the fields changed since the last flush
func (a *BaseAggregateRoot) PendingChanges() ChangeSet {
	return a.changes
}

// ClearChanges clears the pending change set
func (a *BaseAggregateRoot) ClearChanges() {
	a.changes = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}
