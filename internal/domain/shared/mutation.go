package shared

// ChangeKind identifies how an entity changes within a unit of work
type ChangeKind string

const (
	ChangeKindInsert ChangeKind = "INSERT"
	ChangeKindUpdate ChangeKind = "UPDATE"
	ChangeKindDelete ChangeKind = "DELETE"
)

// String returns the string representation of ChangeKind
func (k ChangeKind) String() string {
	return string(k)
}

// FieldChange holds the stored and the new value of a single field
type FieldChange struct {
	Old any
	New any
}

// ChangeSet maps field names to their changes
type ChangeSet map[string]FieldChange

// Has reports whether the field was changed
func (c ChangeSet) Has(field string) bool {
	_, ok := c[field]
	return ok
}

// Fields returns the names of all changed fields
func (c ChangeSet) Fields() []string {
	fields := make([]string, 0, len(c))
	for field := range c {
		fields = append(fields, field)
	}
	return fields
}

// Clone returns a copy of the change set
func (c ChangeSet) Clone() ChangeSet {
	if c == nil {
		return nil
	}
	out := make(ChangeSet, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// PendingMutation is a change awaiting commit, as seen by pre-commit listeners
type PendingMutation struct {
	Entity  Entity
	Kind    ChangeKind
	Changes ChangeSet
}

// IsInsert reports whether the mutation creates the entity
func (m PendingMutation) IsInsert() bool {
	return m.Kind == ChangeKindInsert
}

// IsUpdate reports whether the mutation modifies a stored entity
func (m PendingMutation) IsUpdate() bool {
	return m.Kind == ChangeKindUpdate
}

// IsDelete reports whether the mutation removes the entity
func (m PendingMutation) IsDelete() bool {
	return m.Kind == ChangeKindDelete
}
