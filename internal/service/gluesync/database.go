package gluesync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"

	"gluesync/internal/domain"
	"gluesync/internal/gluecatalog"
	"gluesync/internal/transform"
)

// DatabaseService mirrors database lifecycle changes into Glue.
type DatabaseService struct {
	glue        gluecatalog.GlueAPI
	transformer *transform.Transformer
	logger      *slog.Logger
}

// NewDatabaseService creates a new DatabaseService.
func NewDatabaseService(api gluecatalog.GlueAPI, transformer *transform.Transformer, logger *slog.Logger) *DatabaseService {
	return &DatabaseService{glue: api, transformer: transformer, logger: logger}
}

// Create creates the Glue database stamped with the ownership tag. A
// database that already exists is updated instead.
func (s *DatabaseService) Create(ctx context.Context, db domain.Database) error {
	input := s.transformer.DatabaseInput(db)
	input.Parameters = WithOwnershipTag(input.Parameters)

	_, err := s.glue.CreateDatabase(ctx, &glue.CreateDatabaseInput{DatabaseInput: input})
	if gluecatalog.IsAlreadyExists(err) {
		s.logger.Info("glue database already exists, updating", "database", aws.ToString(input.Name))
		return s.Update(ctx, db)
	}
	if err != nil {
		return fmt.Errorf("create glue database %q: %w", aws.ToString(input.Name), err)
	}
	s.logger.Info("glue database created", "database", aws.ToString(input.Name))
	return nil
}

// Update replaces the Glue database definition. The ownership tag is not
// re-asserted; it survives only if the metastore parameters carry it.
func (s *DatabaseService) Update(ctx context.Context, db domain.Database) error {
	name := s.transformer.GlueDatabaseName(db.Name)
	_, err := s.glue.UpdateDatabase(ctx, &glue.UpdateDatabaseInput{
		Name:          aws.String(name),
		DatabaseInput: s.transformer.DatabaseInput(db),
	})
	if err != nil {
		return fmt.Errorf("update glue database %q: %w", name, err)
	}
	s.logger.Info("glue database updated", "database", name)
	return nil
}

// Delete drops the Glue database, but only if this engine created it.
// Missing databases and databases without the ownership tag are left alone.
func (s *DatabaseService) Delete(ctx context.Context, db domain.Database) error {
	name := s.transformer.GlueDatabaseName(db.Name)

	out, err := s.glue.GetDatabase(ctx, &glue.GetDatabaseInput{Name: aws.String(name)})
	if gluecatalog.IsNotFound(err) {
		s.logger.Info("glue database does not exist, nothing to delete", "database", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get glue database %q: %w", name, err)
	}
	if out.Database == nil || !IsOwned(out.Database.Parameters) {
		s.logger.Info("glue database not created by gluesync, will not be deleted", "database", name)
		return nil
	}

	_, err = s.glue.DeleteDatabase(ctx, &glue.DeleteDatabaseInput{Name: aws.String(name)})
	if gluecatalog.IsNotFound(err) {
		s.logger.Info("glue database already deleted", "database", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete glue database %q: %w", name, err)
	}
	s.logger.Info("glue database deleted", "database", name)
	return nil
}
