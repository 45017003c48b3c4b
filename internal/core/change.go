package core

// ChangeOp names a mutation of the expense collection.
type ChangeOp string

const (
	ChangeAdded   ChangeOp = "added"
	ChangeRemoved ChangeOp = "removed"
)

// Change describes one persisted mutation.
type Change struct {
	Op ChangeOp
	ID string
}
