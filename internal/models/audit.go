package models

// Audit is the set of bookkeeping fields shared by every persisted entity.
// Timestamps are Unix seconds; a zero DeletedAt means the row is live.
type Audit struct {
	CreatedAt int64
	CreatedBy string
	UpdatedAt int64
	UpdatedBy string
	DeletedAt int64
	DeletedBy string
}

// Deleted reports whether the row is a tombstone.
func (a Audit) Deleted() bool {
	return a.DeletedAt != 0
}
