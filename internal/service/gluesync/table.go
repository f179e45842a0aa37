package gluesync

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"gluesync/internal/domain"
	"gluesync/internal/gluecatalog"
	"gluesync/internal/transform"
)

// TableService mirrors table lifecycle changes into Glue, including renames.
type TableService struct {
	glue        gluecatalog.GlueAPI
	transformer *transform.Transformer
	config      SyncConfig
	logger      *slog.Logger
}

// NewTableService creates a new TableService.
func NewTableService(api gluecatalog.GlueAPI, transformer *transform.Transformer, cfg SyncConfig, logger *slog.Logger) *TableService {
	return &TableService{glue: api, transformer: transformer, config: cfg, logger: logger}
}

// Create creates the Glue table.
func (s *TableService) Create(ctx context.Context, tbl domain.Table) error {
	database := s.transformer.GlueDatabaseName(tbl.DBName)
	if err := s.createTable(ctx, database, s.transformer.TableInput(tbl)); err != nil {
		return fmt.Errorf("create glue table %s.%s: %w", database, tbl.TableName, err)
	}
	s.logger.Info("glue table created", "table", database+"."+tbl.TableName)
	return nil
}

// Alter applies a table change. A change of name or database is migrated
// as a rename; anything else is an in-place update.
func (s *TableService) Alter(ctx context.Context, oldTbl, newTbl domain.Table) error {
	if oldTbl.DBName != newTbl.DBName || oldTbl.TableName != newTbl.TableName {
		return s.rename(ctx, oldTbl, newTbl)
	}

	database := s.transformer.GlueDatabaseName(newTbl.DBName)
	in := &glue.UpdateTableInput{
		DatabaseName: aws.String(database),
		TableInput:   s.transformer.TableInput(newTbl),
		SkipArchive:  aws.Bool(s.skipArchive(newTbl)),
	}
	_, err := s.glue.UpdateTable(ctx, in)
	if gluecatalog.IsInvalidInput(err) {
		if clean, changed := transform.SanitizeTableInput(in.TableInput); changed {
			s.logger.Warn("glue rejected table input, retrying with sanitized comments", "table", database+"."+newTbl.TableName)
			retry := *in
			retry.TableInput = clean
			_, err = s.glue.UpdateTable(ctx, &retry)
		}
	}
	if err != nil {
		return fmt.Errorf("update glue table %s.%s: %w", database, newTbl.TableName, err)
	}
	s.logger.Info("glue table updated", "table", database+"."+newTbl.TableName, "skip_archive", aws.ToBool(in.SkipArchive))
	return nil
}

// Drop deletes the Glue table. A table already missing is not an error.
func (s *TableService) Drop(ctx context.Context, tbl domain.Table) error {
	database := s.transformer.GlueDatabaseName(tbl.DBName)
	_, err := s.glue.DeleteTable(ctx, &glue.DeleteTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(tbl.TableName),
	})
	if gluecatalog.IsNotFound(err) {
		s.logger.Info("glue table does not exist, nothing to delete", "table", database+"."+tbl.TableName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete glue table %s.%s: %w", database, tbl.TableName, err)
	}
	s.logger.Info("glue table deleted", "table", database+"."+tbl.TableName)
	return nil
}

// rename migrates a table to its new name: create the new table, copy the
// old table's partitions across, then delete the old table. Glue has no
// native rename. Once the new table exists, a failure is reported as a
// *domain.PartialMigrationError and nothing is rolled back.
func (s *TableService) rename(ctx context.Context, oldTbl, newTbl domain.Table) error {
	oldDB := s.transformer.GlueDatabaseName(oldTbl.DBName)
	newDB := s.transformer.GlueDatabaseName(newTbl.DBName)
	logger := s.logger.With("old_table", oldDB+"."+oldTbl.TableName, "new_table", newDB+"."+newTbl.TableName)

	err := s.createTable(ctx, newDB, s.transformer.TableInput(newTbl))
	switch {
	case gluecatalog.IsAlreadyExists(err):
		logger.Info("renamed glue table already exists, resuming rename")
	case err != nil:
		return fmt.Errorf("rename glue table %s.%s to %s.%s: %w", oldDB, oldTbl.TableName, newDB, newTbl.TableName, err)
	}

	copied, err := s.copyPartitions(ctx, oldDB, oldTbl.TableName, newDB, newTbl.TableName)
	if err != nil {
		return s.partialRename(logger, oldDB, oldTbl, newTbl, domain.RenameStepCopyPartitions, err)
	}

	_, err = s.glue.DeleteTable(ctx, &glue.DeleteTableInput{
		DatabaseName: aws.String(oldDB),
		Name:         aws.String(oldTbl.TableName),
	})
	if err != nil && !gluecatalog.IsNotFound(err) {
		return s.partialRename(logger, oldDB, oldTbl, newTbl, domain.RenameStepDeleteOldTable, err)
	}

	logger.Info("glue table renamed", "partitions", copied)
	return nil
}

func (s *TableService) copyPartitions(ctx context.Context, oldDB, oldTable, newDB, newTable string) (int, error) {
	parts, err := gluecatalog.ListPartitions(ctx, s.glue, oldDB, oldTable)
	if err != nil {
		return 0, err
	}
	inputs := make([]types.PartitionInput, 0, len(parts))
	for _, p := range parts {
		inputs = append(inputs, s.transformer.PartitionInputFromGlue(p))
	}

	for _, chunk := range gluecatalog.Chunk(inputs, gluecatalog.MaxBatchPartitions) {
		out, err := s.glue.BatchCreatePartition(ctx, &glue.BatchCreatePartitionInput{
			DatabaseName:       aws.String(newDB),
			TableName:          aws.String(newTable),
			PartitionInputList: chunk,
		})
		if err != nil {
			return 0, fmt.Errorf("batch create partitions: %w", err)
		}
		if err := entryErrors(out.Errors); err != nil {
			return 0, err
		}
	}
	return len(inputs), nil
}

func (s *TableService) partialRename(logger *slog.Logger, oldDB string, oldTbl, newTbl domain.Table, step domain.RenameStep, err error) error {
	perr := &domain.PartialMigrationError{
		Database: oldDB,
		OldTable: oldTbl.TableName,
		NewTable: newTbl.TableName,
		Step:     step,
		Err:      err,
	}
	logger.Error("glue table rename partially applied, new table left in place",
		"step", string(step), "error", err)
	return perr
}

// createTable submits CreateTable, retrying once with sanitized comments
// when Glue rejects the payload as malformed.
func (s *TableService) createTable(ctx context.Context, database string, input *types.TableInput) error {
	_, err := s.glue.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(database),
		TableInput:   input,
	})
	if !gluecatalog.IsInvalidInput(err) {
		return err
	}
	clean, changed := transform.SanitizeTableInput(input)
	if !changed {
		return err
	}
	s.logger.Warn("glue rejected table input, retrying with sanitized comments",
		"table", database+"."+aws.ToString(input.Name))
	_, err = s.glue.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(database),
		TableInput:   clean,
	})
	return err
}

// skipArchive resolves the SkipArchive flag for an update: the table's
// override parameter when it parses as a bool, otherwise the default.
func (s *TableService) skipArchive(tbl domain.Table) bool {
	raw, ok := tbl.Parameters[SkipArchiveParam]
	if !ok {
		return s.config.SkipArchiveDefault
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.Warn("invalid skip archive override, using default",
			"table", tbl.QualifiedName(), "value", raw, "default", s.config.SkipArchiveDefault)
		return s.config.SkipArchiveDefault
	}
	return v
}
