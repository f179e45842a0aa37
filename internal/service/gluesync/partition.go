package gluesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"gluesync/internal/domain"
	"gluesync/internal/gluecatalog"
	"gluesync/internal/transform"
)

// PartitionService mirrors partition changes into Glue.
type PartitionService struct {
	glue        gluecatalog.GlueAPI
	transformer *transform.Transformer
	logger      *slog.Logger
}

// NewPartitionService creates a new PartitionService.
func NewPartitionService(api gluecatalog.GlueAPI, transformer *transform.Transformer, logger *slog.Logger) *PartitionService {
	return &PartitionService{glue: api, transformer: transformer, logger: logger}
}

// Add creates the partitions under tbl. The sequence is consumed exactly
// once. Partitions that already exist are skipped.
func (s *PartitionService) Add(ctx context.Context, tbl domain.Table, parts domain.PartitionSeq) error {
	var inputs []types.PartitionInput
	if parts != nil {
		for p := range parts {
			inputs = append(inputs, *s.transformer.PartitionInput(p))
		}
	}
	if len(inputs) == 0 {
		return nil
	}

	database := s.transformer.GlueDatabaseName(tbl.DBName)
	if err := s.createAll(ctx, database, tbl.TableName, inputs); err != nil {
		return fmt.Errorf("add %d partitions to %s.%s: %w", len(inputs), database, tbl.TableName, err)
	}
	s.logger.Info("glue partitions added", "table", database+"."+tbl.TableName, "count", len(inputs))
	return nil
}

// Alter replaces the partition identified by oldPart's values with newPart.
func (s *PartitionService) Alter(ctx context.Context, tbl domain.Table, oldPart, newPart domain.Partition) error {
	database := s.transformer.GlueDatabaseName(tbl.DBName)
	in := &glue.UpdatePartitionInput{
		DatabaseName:       aws.String(database),
		TableName:          aws.String(tbl.TableName),
		PartitionValueList: slices.Clone(oldPart.Values),
		PartitionInput:     s.transformer.PartitionInput(newPart),
	}

	_, err := s.glue.UpdatePartition(ctx, in)
	if gluecatalog.IsInvalidInput(err) {
		if clean, changed := transform.SanitizePartitionInput(in.PartitionInput); changed {
			s.logger.Warn("glue rejected partition input, retrying with sanitized comments",
				"table", database+"."+tbl.TableName, "values", oldPart.Values)
			retry := *in
			retry.PartitionInput = clean
			_, err = s.glue.UpdatePartition(ctx, &retry)
		}
	}
	if err != nil {
		return fmt.Errorf("update partition %v of %s.%s: %w", oldPart.Values, database, tbl.TableName, err)
	}
	s.logger.Info("glue partition updated", "table", database+"."+tbl.TableName, "values", newPart.Values)
	return nil
}

// Drop deletes the partitions from tbl. Partitions already missing from
// Glue are skipped.
func (s *PartitionService) Drop(ctx context.Context, tbl domain.Table, parts domain.PartitionSeq) error {
	if parts == nil {
		return nil
	}
	database := s.transformer.GlueDatabaseName(tbl.DBName)
	dropped := 0
	for p := range parts {
		_, err := s.glue.DeletePartition(ctx, &glue.DeletePartitionInput{
			DatabaseName:    aws.String(database),
			TableName:       aws.String(tbl.TableName),
			PartitionValues: slices.Clone(p.Values),
		})
		if gluecatalog.IsNotFound(err) {
			s.logger.Debug("glue partition already absent", "table", database+"."+tbl.TableName, "values", p.Values)
			continue
		}
		if err != nil {
			return fmt.Errorf("delete partition %v of %s.%s: %w", p.Values, database, tbl.TableName, err)
		}
		dropped++
	}
	s.logger.Info("glue partitions dropped", "table", database+"."+tbl.TableName, "count", dropped)
	return nil
}

// createAll submits inputs in batches of at most MaxBatchPartitions. A batch
// rejected as malformed falls back to creating its partitions one by one.
func (s *PartitionService) createAll(ctx context.Context, database, table string, inputs []types.PartitionInput) error {
	for _, chunk := range gluecatalog.Chunk(inputs, gluecatalog.MaxBatchPartitions) {
		out, err := s.glue.BatchCreatePartition(ctx, &glue.BatchCreatePartitionInput{
			DatabaseName:       aws.String(database),
			TableName:          aws.String(table),
			PartitionInputList: chunk,
		})
		if gluecatalog.IsInvalidInput(err) {
			s.logger.Warn("glue rejected partition batch, creating individually",
				"table", database+"."+table, "count", len(chunk))
			if err := s.createEach(ctx, database, table, chunk); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		retry, err := s.batchFailures(chunk, out.Errors)
		if err != nil {
			return err
		}
		if len(retry) > 0 {
			if err := s.createEach(ctx, database, table, retry); err != nil {
				return err
			}
		}
	}
	return nil
}

// batchFailures classifies per-entry batch errors. Existing partitions are
// ignored, malformed ones are returned for individual retry, and anything
// else is an error.
func (s *PartitionService) batchFailures(chunk []types.PartitionInput, entries []types.PartitionError) ([]types.PartitionInput, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	byValues := make(map[string]types.PartitionInput, len(chunk))
	for _, in := range chunk {
		byValues[valuesKey(in.Values)] = in
	}

	var retry []types.PartitionInput
	var errs []error
	for _, pe := range entries {
		code := gluecatalog.PartitionErrorCode(pe)
		if code == gluecatalog.CodeAlreadyExists {
			continue
		}
		if in, ok := byValues[valuesKey(pe.PartitionValues)]; ok && code == gluecatalog.CodeInvalidInput {
			retry = append(retry, in)
			continue
		}
		errs = append(errs, entryError(pe))
	}
	return retry, errors.Join(errs...)
}

// entryErrors joins every batch entry error other than already-exists.
func entryErrors(entries []types.PartitionError) error {
	var errs []error
	for _, pe := range entries {
		if gluecatalog.PartitionErrorCode(pe) != gluecatalog.CodeAlreadyExists {
			errs = append(errs, entryError(pe))
		}
	}
	return errors.Join(errs...)
}

func entryError(pe types.PartitionError) error {
	msg := ""
	if pe.ErrorDetail != nil {
		msg = aws.ToString(pe.ErrorDetail.ErrorMessage)
	}
	return fmt.Errorf("partition %v: %s: %s", pe.PartitionValues, gluecatalog.PartitionErrorCode(pe), msg)
}

func (s *PartitionService) createEach(ctx context.Context, database, table string, inputs []types.PartitionInput) error {
	for i := range inputs {
		if err := s.createOne(ctx, database, table, &inputs[i]); err != nil {
			return fmt.Errorf("create partition %v: %w", inputs[i].Values, err)
		}
	}
	return nil
}

func (s *PartitionService) createOne(ctx context.Context, database, table string, input *types.PartitionInput) error {
	in := &glue.CreatePartitionInput{
		DatabaseName:   aws.String(database),
		TableName:      aws.String(table),
		PartitionInput: input,
	}
	_, err := s.glue.CreatePartition(ctx, in)
	if gluecatalog.IsInvalidInput(err) {
		if clean, changed := transform.SanitizePartitionInput(input); changed {
			s.logger.Warn("glue rejected partition input, retrying with sanitized comments",
				"table", database+"."+table, "values", input.Values)
			retry := *in
			retry.PartitionInput = clean
			_, err = s.glue.CreatePartition(ctx, &retry)
		}
	}
	if gluecatalog.IsAlreadyExists(err) {
		return nil
	}
	return err
}

func valuesKey(values []string) string {
	return strings.Join(values, "\x00")
}
