package domain

import "iter"

// EventType identifies the kind of a metastore notification.
type EventType string

// Notification kinds emitted by the primary metastore.
const (
	EventCreateDatabase EventType = "ON_CREATE_DATABASE"
	EventAlterDatabase  EventType = "ON_ALTER_DATABASE"
	EventDropDatabase   EventType = "ON_DROP_DATABASE"
	EventCreateTable    EventType = "ON_CREATE_TABLE"
	EventAlterTable     EventType = "ON_ALTER_TABLE"
	EventDropTable      EventType = "ON_DROP_TABLE"
	EventAddPartition   EventType = "ON_ADD_PARTITION"
	EventAlterPartition EventType = "ON_ALTER_PARTITION"
	EventDropPartition  EventType = "ON_DROP_PARTITION"
	EventInsert         EventType = "ON_INSERT"
)

// Notification is one committed (or failed) structural change in the
// primary metastore. The concrete types below form a closed set.
type Notification interface {
	Type() EventType
	// Succeeded reports whether the upstream operation committed.
	Succeeded() bool
}

// PartitionSeq is a finite, single-pass sequence of partitions. Ranging over
// it a second time yields nothing, so consumers that need the full set must
// materialize it first (slices.Collect).
type PartitionSeq = iter.Seq[Partition]

// NewPartitionSeq returns a single-pass sequence over parts.
func NewPartitionSeq(parts []Partition) PartitionSeq {
	consumed := false
	return func(yield func(Partition) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, p := range parts {
			if !yield(p) {
				return
			}
		}
	}
}

// CreateDatabaseEvent reports a new database.
type CreateDatabaseEvent struct {
	Status   bool
	Database Database
}

// AlterDatabaseEvent reports a database metadata change.
type AlterDatabaseEvent struct {
	Status      bool
	OldDatabase Database
	NewDatabase Database
}

// DropDatabaseEvent reports a dropped database.
type DropDatabaseEvent struct {
	Status   bool
	Database Database
}

// CreateTableEvent reports a new table.
type CreateTableEvent struct {
	Status bool
	Table  Table
}

// AlterTableEvent reports a table change, including renames.
type AlterTableEvent struct {
	Status   bool
	OldTable Table
	NewTable Table
}

// DropTableEvent reports a dropped table.
type DropTableEvent struct {
	Status bool
	Table  Table
}

// AddPartitionEvent reports partitions added to Table.
type AddPartitionEvent struct {
	Status     bool
	Table      Table
	Partitions PartitionSeq
}

// AlterPartitionEvent reports a single partition change.
type AlterPartitionEvent struct {
	Status       bool
	Table        Table
	OldPartition Partition
	NewPartition Partition
}

// DropPartitionEvent reports partitions dropped from Table.
type DropPartitionEvent struct {
	Status     bool
	Table      Table
	Partitions PartitionSeq
}

// InsertEvent reports data written into a table. It carries no structural
// change.
type InsertEvent struct {
	Status bool
	DBName string
	Table  string
}

func (e CreateDatabaseEvent) Type() EventType { return EventCreateDatabase }
func (e AlterDatabaseEvent) Type() EventType  { return EventAlterDatabase }
func (e DropDatabaseEvent) Type() EventType   { return EventDropDatabase }
func (e CreateTableEvent) Type() EventType    { return EventCreateTable }
func (e AlterTableEvent) Type() EventType     { return EventAlterTable }
func (e DropTableEvent) Type() EventType      { return EventDropTable }
func (e AddPartitionEvent) Type() EventType   { return EventAddPartition }
func (e AlterPartitionEvent) Type() EventType { return EventAlterPartition }
func (e DropPartitionEvent) Type() EventType  { return EventDropPartition }
func (e InsertEvent) Type() EventType         { return EventInsert }

func (e CreateDatabaseEvent) Succeeded() bool { return e.Status }
func (e AlterDatabaseEvent) Succeeded() bool  { return e.Status }
func (e DropDatabaseEvent) Succeeded() bool   { return e.Status }
func (e CreateTableEvent) Succeeded() bool    { return e.Status }
func (e AlterTableEvent) Succeeded() bool     { return e.Status }
func (e DropTableEvent) Succeeded() bool      { return e.Status }
func (e AddPartitionEvent) Succeeded() bool   { return e.Status }
func (e AlterPartitionEvent) Succeeded() bool { return e.Status }
func (e DropPartitionEvent) Succeeded() bool  { return e.Status }
func (e InsertEvent) Succeeded() bool         { return e.Status }
