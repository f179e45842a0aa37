package gluesync

import (
	"context"
	"errors"
	"log/slog"

	"gluesync/internal/domain"
	"gluesync/internal/gluecatalog"
	"gluesync/internal/metrics"
	"gluesync/internal/transform"
)

// ListenerDeps holds the dependencies of a Listener.
type ListenerDeps struct {
	Glue    gluecatalog.GlueAPI
	Metrics domain.MetricsRecorder
	Config  SyncConfig
	Logger  *slog.Logger
}

// Listener receives metastore notifications and applies them to Glue.
// Notifications for operations that failed in the metastore are ignored.
// Every applied notification increments a success or failure counter for
// its entity category. Errors are logged and returned to the caller.
type Listener struct {
	databases  *DatabaseService
	tables     *TableService
	partitions *PartitionService
	metrics    domain.MetricsRecorder
	logger     *slog.Logger
}

// NewListener wires the sync services around a shared transformer.
func NewListener(deps ListenerDeps) *Listener {
	tr := transform.New(deps.Config.Prefix)
	return &Listener{
		databases:  NewDatabaseService(deps.Glue, tr, deps.Logger),
		tables:     NewTableService(deps.Glue, tr, deps.Config, deps.Logger),
		partitions: NewPartitionService(deps.Glue, tr, deps.Logger),
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

type category struct {
	name    string
	success string
	failure string
}

var (
	databaseCategory  = category{"database", metrics.DatabaseSuccess, metrics.DatabaseFailure}
	tableCategory     = category{"table", metrics.TableSuccess, metrics.TableFailure}
	partitionCategory = category{"partition", metrics.PartitionSuccess, metrics.PartitionFailure}
)

// Dispatch routes n to the handler for its kind.
func (l *Listener) Dispatch(ctx context.Context, n domain.Notification) error {
	if n == nil {
		return domain.ErrValidation("nil notification")
	}
	switch e := n.(type) {
	case domain.CreateDatabaseEvent:
		return l.OnCreateDatabase(ctx, e)
	case domain.AlterDatabaseEvent:
		return l.OnAlterDatabase(ctx, e)
	case domain.DropDatabaseEvent:
		return l.OnDropDatabase(ctx, e)
	case domain.CreateTableEvent:
		return l.OnCreateTable(ctx, e)
	case domain.AlterTableEvent:
		return l.OnAlterTable(ctx, e)
	case domain.DropTableEvent:
		return l.OnDropTable(ctx, e)
	case domain.AddPartitionEvent:
		return l.OnAddPartition(ctx, e)
	case domain.AlterPartitionEvent:
		return l.OnAlterPartition(ctx, e)
	case domain.DropPartitionEvent:
		return l.OnDropPartition(ctx, e)
	case domain.InsertEvent:
		l.logger.Debug("ignoring insert notification", "table", e.DBName+"."+e.Table)
		return nil
	default:
		return domain.ErrValidation("unsupported notification type %T", n)
	}
}

// OnCreateDatabase handles a create-database notification.
func (l *Listener) OnCreateDatabase(ctx context.Context, e domain.CreateDatabaseEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.databases.Create(ctx, e.Database)
	return l.record(databaseCategory, e, err, "database", e.Database.Name)
}

// OnAlterDatabase handles an alter-database notification.
func (l *Listener) OnAlterDatabase(ctx context.Context, e domain.AlterDatabaseEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.databases.Update(ctx, e.NewDatabase)
	return l.record(databaseCategory, e, err, "database", e.NewDatabase.Name)
}

// OnDropDatabase handles a drop-database notification.
func (l *Listener) OnDropDatabase(ctx context.Context, e domain.DropDatabaseEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.databases.Delete(ctx, e.Database)
	return l.record(databaseCategory, e, err, "database", e.Database.Name)
}

// OnCreateTable handles a create-table notification.
func (l *Listener) OnCreateTable(ctx context.Context, e domain.CreateTableEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.tables.Create(ctx, e.Table)
	return l.record(tableCategory, e, err, "table", e.Table.QualifiedName())
}

// OnAlterTable handles an alter-table notification, including renames.
func (l *Listener) OnAlterTable(ctx context.Context, e domain.AlterTableEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.tables.Alter(ctx, e.OldTable, e.NewTable)
	return l.record(tableCategory, e, err,
		"table", e.OldTable.QualifiedName(), "new_table", e.NewTable.QualifiedName())
}

// OnDropTable handles a drop-table notification.
func (l *Listener) OnDropTable(ctx context.Context, e domain.DropTableEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.tables.Drop(ctx, e.Table)
	return l.record(tableCategory, e, err, "table", e.Table.QualifiedName())
}

// OnAddPartition handles an add-partition notification.
func (l *Listener) OnAddPartition(ctx context.Context, e domain.AddPartitionEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.partitions.Add(ctx, e.Table, e.Partitions)
	return l.record(partitionCategory, e, err, "table", e.Table.QualifiedName())
}

// OnAlterPartition handles an alter-partition notification.
func (l *Listener) OnAlterPartition(ctx context.Context, e domain.AlterPartitionEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.partitions.Alter(ctx, e.Table, e.OldPartition, e.NewPartition)
	return l.record(partitionCategory, e, err,
		"table", e.Table.QualifiedName(), "partition_values", e.OldPartition.Values)
}

// OnDropPartition handles a drop-partition notification.
func (l *Listener) OnDropPartition(ctx context.Context, e domain.DropPartitionEvent) error {
	if l.skip(e) {
		return nil
	}
	err := l.partitions.Drop(ctx, e.Table, e.Partitions)
	return l.record(partitionCategory, e, err, "table", e.Table.QualifiedName())
}

func (l *Listener) skip(n domain.Notification) bool {
	if n.Succeeded() {
		return false
	}
	l.logger.Debug("ignoring notification of failed metastore operation", "event_type", string(n.Type()))
	return true
}

func (l *Listener) record(c category, n domain.Notification, err error, identity ...any) error {
	if err == nil {
		l.metrics.IncrementCounter(c.success)
		return nil
	}
	l.metrics.IncrementCounter(c.failure)

	attrs := append([]any{"event_type", string(n.Type()), "category", c.name}, identity...)
	if code := gluecatalog.ErrorCode(err); code != "" {
		attrs = append(attrs, "glue_error_code", code)
	}
	var partial *domain.PartialMigrationError
	if errors.As(err, &partial) {
		attrs = append(attrs, "rename_step", string(partial.Step))
	}
	attrs = append(attrs, "error", err)
	l.logger.Error("failed to apply notification to glue", attrs...)
	return err
}
