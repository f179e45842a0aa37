// Package event encodes and decodes metastore notifications in their JSON
// wire format.
package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"

	"gluesync/internal/domain"
)

// Envelope is the wire form of a notification. Which record members are
// required depends on EventType.
type Envelope struct {
	EventID      string             `json:"eventId,omitempty"`
	EventType    domain.EventType   `json:"eventType"`
	Status       *bool              `json:"status"`
	Database     *domain.Database   `json:"database,omitempty"`
	OldDatabase  *domain.Database   `json:"oldDatabase,omitempty"`
	Table        *domain.Table      `json:"table,omitempty"`
	OldTable     *domain.Table      `json:"oldTable,omitempty"`
	NewTable     *domain.Table      `json:"newTable,omitempty"`
	Partitions   []domain.Partition `json:"partitions,omitempty"`
	OldPartition *domain.Partition  `json:"oldPartition,omitempty"`
	NewPartition *domain.Partition  `json:"newPartition,omitempty"`
}

// Event is a decoded notification with its identifier.
type Event struct {
	ID           string
	Notification domain.Notification
}

// Decode parses a single JSON notification. A missing eventId is replaced
// with a generated UUID.
func Decode(data []byte) (Event, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&env); err != nil {
		return Event{}, domain.ErrValidation("malformed notification: %v", err)
	}
	return env.Event()
}

// Decoder reads a stream of JSON notifications, such as a JSON-lines file.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next returns the next event, or io.EOF at the end of the stream. A
// record that parses as JSON but is not a valid notification yields a
// *domain.ValidationError and decoding can continue; a syntax error ends
// the stream.
func (d *Decoder) Next() (Event, error) {
	var env Envelope
	if err := d.dec.Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Event{}, domain.ErrValidation("malformed notification: %v", err)
		}
		return Event{}, fmt.Errorf("read notification stream: %w", err)
	}
	return env.Event()
}

// Event validates the envelope and converts it to a notification.
func (env Envelope) Event() (Event, error) {
	if env.EventType == "" {
		return Event{}, domain.ErrValidation("notification is missing eventType")
	}
	if env.Status == nil {
		return Event{}, domain.ErrValidation("%s notification is missing status", env.EventType)
	}
	id := env.EventID
	if id == "" {
		id = uuid.NewString()
	}
	n, err := env.notification(*env.Status)
	if err != nil {
		return Event{}, err
	}
	return Event{ID: id, Notification: n}, nil
}

func (env Envelope) notification(status bool) (domain.Notification, error) {
	missing := func(member string) error {
		return domain.ErrValidation("%s notification is missing %s", env.EventType, member)
	}

	switch env.EventType {
	case domain.EventCreateDatabase, domain.EventDropDatabase:
		if env.Database == nil {
			return nil, missing("database")
		}
		if env.EventType == domain.EventCreateDatabase {
			return domain.CreateDatabaseEvent{Status: status, Database: *env.Database}, nil
		}
		return domain.DropDatabaseEvent{Status: status, Database: *env.Database}, nil

	case domain.EventAlterDatabase:
		if env.Database == nil {
			return nil, missing("database")
		}
		old := *env.Database
		if env.OldDatabase != nil {
			old = *env.OldDatabase
		}
		return domain.AlterDatabaseEvent{Status: status, OldDatabase: old, NewDatabase: *env.Database}, nil

	case domain.EventCreateTable, domain.EventDropTable:
		if env.Table == nil {
			return nil, missing("table")
		}
		if env.EventType == domain.EventCreateTable {
			return domain.CreateTableEvent{Status: status, Table: *env.Table}, nil
		}
		return domain.DropTableEvent{Status: status, Table: *env.Table}, nil

	case domain.EventAlterTable:
		if env.OldTable == nil {
			return nil, missing("oldTable")
		}
		if env.NewTable == nil {
			return nil, missing("newTable")
		}
		return domain.AlterTableEvent{Status: status, OldTable: *env.OldTable, NewTable: *env.NewTable}, nil

	case domain.EventAddPartition, domain.EventDropPartition:
		if env.Table == nil {
			return nil, missing("table")
		}
		seq := domain.NewPartitionSeq(env.Partitions)
		if env.EventType == domain.EventAddPartition {
			return domain.AddPartitionEvent{Status: status, Table: *env.Table, Partitions: seq}, nil
		}
		return domain.DropPartitionEvent{Status: status, Table: *env.Table, Partitions: seq}, nil

	case domain.EventAlterPartition:
		if env.Table == nil {
			return nil, missing("table")
		}
		if env.OldPartition == nil {
			return nil, missing("oldPartition")
		}
		if env.NewPartition == nil {
			return nil, missing("newPartition")
		}
		return domain.AlterPartitionEvent{
			Status:       status,
			Table:        *env.Table,
			OldPartition: *env.OldPartition,
			NewPartition: *env.NewPartition,
		}, nil

	case domain.EventInsert:
		if env.Table == nil {
			return nil, missing("table")
		}
		return domain.InsertEvent{Status: status, DBName: env.Table.DBName, Table: env.Table.TableName}, nil

	default:
		return nil, domain.ErrValidation("unsupported eventType %q", env.EventType)
	}
}

// Encode renders a notification in the wire format. Partition sequences
// are consumed.
func Encode(id string, n domain.Notification) ([]byte, error) {
	env, err := NewEnvelope(id, n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// NewEnvelope converts a notification to its wire form.
func NewEnvelope(id string, n domain.Notification) (Envelope, error) {
	if n == nil {
		return Envelope{}, domain.ErrValidation("nil notification")
	}
	status := n.Succeeded()
	env := Envelope{EventID: id, EventType: n.Type(), Status: &status}

	switch e := n.(type) {
	case domain.CreateDatabaseEvent:
		env.Database = &e.Database
	case domain.AlterDatabaseEvent:
		env.OldDatabase = &e.OldDatabase
		env.Database = &e.NewDatabase
	case domain.DropDatabaseEvent:
		env.Database = &e.Database
	case domain.CreateTableEvent:
		env.Table = &e.Table
	case domain.AlterTableEvent:
		env.OldTable = &e.OldTable
		env.NewTable = &e.NewTable
	case domain.DropTableEvent:
		env.Table = &e.Table
	case domain.AddPartitionEvent:
		env.Table = &e.Table
		env.Partitions = collect(e.Partitions)
	case domain.AlterPartitionEvent:
		env.Table = &e.Table
		env.OldPartition = &e.OldPartition
		env.NewPartition = &e.NewPartition
	case domain.DropPartitionEvent:
		env.Table = &e.Table
		env.Partitions = collect(e.Partitions)
	case domain.InsertEvent:
		env.Table = &domain.Table{DBName: e.DBName, TableName: e.Table}
	default:
		return Envelope{}, domain.ErrValidation("unsupported notification type %T", n)
	}
	return env, nil
}

func collect(seq domain.PartitionSeq) []domain.Partition {
	if seq == nil {
		return nil
	}
	return slices.Collect(seq)
}
