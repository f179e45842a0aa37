package gluesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gluesync/internal/domain"
	"gluesync/internal/gluecatalog"
	"gluesync/internal/testutil"
	"gluesync/internal/transform"
)

func newTableService(api *testutil.MockGlueAPI, skipArchiveDefault bool) *TableService {
	cfg := SyncConfig{Prefix: "prod_", SkipArchiveDefault: skipArchiveDefault}
	return NewTableService(api, transform.New(cfg.Prefix), cfg, discardLogger())
}

func TestTableService_Create(t *testing.T) {
	t.Parallel()

	var got *glue.CreateTableInput
	api := &testutil.MockGlueAPI{
		CreateTableFn: func(_ context.Context, in *glue.CreateTableInput) (*glue.CreateTableOutput, error) {
			got = in
			return &glue.CreateTableOutput{}, nil
		},
	}

	require.NoError(t, newTableService(api, true).Create(context.Background(), sampleTable("sales", "orders")))

	require.NotNil(t, got)
	assert.Equal(t, "prod_sales", aws.ToString(got.DatabaseName))
	assert.Equal(t, "orders", aws.ToString(got.TableInput.Name), "table names are not prefixed")
	assert.Equal(t, "EXTERNAL_TABLE", aws.ToString(got.TableInput.TableType))
	require.Len(t, got.TableInput.PartitionKeys, 1)
	assert.Equal(t, "dt", aws.ToString(got.TableInput.PartitionKeys[0].Name))
}

func TestTableService_Create_SanitizeRetry(t *testing.T) {
	t.Parallel()

	t.Run("dirty comment is sanitized and resubmitted once", func(t *testing.T) {
		t.Parallel()

		tbl := sampleTable("sales", "orders")
		tbl.SD.Cols[1].Comment = badComment

		var inputs []*types.TableInput
		api := &testutil.MockGlueAPI{
			CreateTableFn: func(_ context.Context, in *glue.CreateTableInput) (*glue.CreateTableOutput, error) {
				inputs = append(inputs, in.TableInput)
				if hasBadComment(in.TableInput.StorageDescriptor.Columns) {
					return nil, errInvalidInput()
				}
				return &glue.CreateTableOutput{}, nil
			},
		}

		require.NoError(t, newTableService(api, true).Create(context.Background(), tbl))

		require.Len(t, inputs, 2)
		assert.Equal(t, "revenue  net", aws.ToString(inputs[1].StorageDescriptor.Columns[1].Comment))
		assert.Equal(t, badComment, aws.ToString(inputs[0].StorageDescriptor.Columns[1].Comment))
	})

	t.Run("clean input rejected is not retried", func(t *testing.T) {
		t.Parallel()

		api := &testutil.MockGlueAPI{
			CreateTableFn: func(context.Context, *glue.CreateTableInput) (*glue.CreateTableOutput, error) {
				return nil, errInvalidInput()
			},
		}

		err := newTableService(api, true).Create(context.Background(), sampleTable("sales", "orders"))
		require.Error(t, err)
		assert.True(t, gluecatalog.IsInvalidInput(err))
		assert.Equal(t, 1, api.CallCount("CreateTable"))
	})

	t.Run("second rejection propagates", func(t *testing.T) {
		t.Parallel()

		tbl := sampleTable("sales", "orders")
		tbl.PartitionKeys[0].Comment = badComment
		api := &testutil.MockGlueAPI{
			CreateTableFn: func(context.Context, *glue.CreateTableInput) (*glue.CreateTableOutput, error) {
				return nil, errInvalidInput()
			},
		}

		err := newTableService(api, true).Create(context.Background(), tbl)
		require.Error(t, err)
		assert.Equal(t, 2, api.CallCount("CreateTable"))
	})
}

func TestTableService_Alter_SkipArchive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		defaultSkip bool
		override    *string
		want        bool
	}{
		{name: "default true", defaultSkip: true, want: true},
		{name: "default false", defaultSkip: false, want: false},
		{name: "override false", defaultSkip: true, override: aws.String("false"), want: false},
		{name: "override true", defaultSkip: false, override: aws.String("TRUE"), want: true},
		{name: "unparseable override uses default", defaultSkip: true, override: aws.String("maybe"), want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tbl := sampleTable("sales", "orders")
			if tc.override != nil {
				tbl.Parameters[SkipArchiveParam] = *tc.override
			}

			var got *glue.UpdateTableInput
			api := &testutil.MockGlueAPI{
				UpdateTableFn: func(_ context.Context, in *glue.UpdateTableInput) (*glue.UpdateTableOutput, error) {
					got = in
					return &glue.UpdateTableOutput{}, nil
				},
			}

			require.NoError(t, newTableService(api, tc.defaultSkip).Alter(context.Background(), tbl, tbl))

			require.NotNil(t, got)
			require.NotNil(t, got.SkipArchive)
			assert.Equal(t, tc.want, *got.SkipArchive)
			assert.Equal(t, "prod_sales", aws.ToString(got.DatabaseName))
			assert.Equal(t, []string{"UpdateTable"}, api.Calls)
		})
	}
}

func TestTableService_Alter_SanitizeRetry(t *testing.T) {
	t.Parallel()

	tbl := sampleTable("sales", "orders")
	tbl.SD.Cols[0].Comment = badComment

	api := &testutil.MockGlueAPI{
		UpdateTableFn: func(_ context.Context, in *glue.UpdateTableInput) (*glue.UpdateTableOutput, error) {
			if hasBadComment(in.TableInput.StorageDescriptor.Columns) {
				return nil, errInvalidInput()
			}
			return &glue.UpdateTableOutput{}, nil
		},
	}

	require.NoError(t, newTableService(api, true).Alter(context.Background(), tbl, tbl))
	assert.Equal(t, 2, api.CallCount("UpdateTable"))
}

func TestTableService_Alter_NotFoundPropagates(t *testing.T) {
	t.Parallel()

	api := &testutil.MockGlueAPI{
		UpdateTableFn: func(context.Context, *glue.UpdateTableInput) (*glue.UpdateTableOutput, error) {
			return nil, errNotFound()
		},
	}

	tbl := sampleTable("sales", "orders")
	err := newTableService(api, true).Alter(context.Background(), tbl, tbl)
	require.Error(t, err)
	assert.True(t, gluecatalog.IsNotFound(err))
}

// renameMock simulates a Glue catalog holding the old table's partitions,
// served in pages of pageSize.
type renameMock struct {
	mu          sync.Mutex
	partitions  []types.Partition
	pageSize    int
	createErr   error
	batchErr    error
	batchErrors []types.PartitionError
	deleteErr   error

	batches      [][]types.PartitionInput
	batchTargets []string
	created      *glue.CreateTableInput
	deleted      *glue.DeleteTableInput
	listed       *glue.GetPartitionsInput
}

func (r *renameMock) api() *testutil.MockGlueAPI {
	return &testutil.MockGlueAPI{
		CreateTableFn: func(_ context.Context, in *glue.CreateTableInput) (*glue.CreateTableOutput, error) {
			r.created = in
			return &glue.CreateTableOutput{}, r.createErr
		},
		GetPartitionsFn: func(_ context.Context, in *glue.GetPartitionsInput) (*glue.GetPartitionsOutput, error) {
			r.listed = in
			start := 0
			if in.NextToken != nil {
				_, err := fmt.Sscanf(*in.NextToken, "%d", &start)
				if err != nil {
					return nil, err
				}
			}
			end := min(start+r.pageSize, len(r.partitions))
			out := &glue.GetPartitionsOutput{Partitions: r.partitions[start:end]}
			if end < len(r.partitions) {
				out.NextToken = aws.String(fmt.Sprintf("%d", end))
			}
			return out, nil
		},
		BatchCreatePartitionFn: func(_ context.Context, in *glue.BatchCreatePartitionInput) (*glue.BatchCreatePartitionOutput, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.batchTargets = append(r.batchTargets, aws.ToString(in.DatabaseName)+"."+aws.ToString(in.TableName))
			r.batches = append(r.batches, in.PartitionInputList)
			if r.batchErr != nil {
				return nil, r.batchErr
			}
			return &glue.BatchCreatePartitionOutput{Errors: r.batchErrors}, nil
		},
		DeleteTableFn: func(_ context.Context, in *glue.DeleteTableInput) (*glue.DeleteTableOutput, error) {
			r.deleted = in
			return &glue.DeleteTableOutput{}, r.deleteErr
		},
	}
}

func renamePair() (domain.Table, domain.Table) {
	oldTbl := sampleTable("sales", "orders")
	newTbl := sampleTable("sales", "orders_v2")
	return oldTbl, newTbl
}

func TestTableService_Rename(t *testing.T) {
	t.Parallel()

	rm := &renameMock{
		partitions: []types.Partition{
			glueTablePartition("2024-01-01"),
			glueTablePartition("2024-01-02"),
		},
		pageSize: 100,
	}
	api := rm.api()
	oldTbl, newTbl := renamePair()

	require.NoError(t, newTableService(api, true).Alter(context.Background(), oldTbl, newTbl))

	assert.Equal(t, []string{"CreateTable", "GetPartitions", "BatchCreatePartition", "DeleteTable"}, api.Calls)
	assert.Zero(t, api.CallCount("UpdateTable"))

	require.NotNil(t, rm.created)
	assert.Equal(t, "prod_sales", aws.ToString(rm.created.DatabaseName))
	assert.Equal(t, "orders_v2", aws.ToString(rm.created.TableInput.Name))

	require.NotNil(t, rm.listed)
	assert.Equal(t, "orders", aws.ToString(rm.listed.TableName))

	require.Len(t, rm.batches, 1)
	assert.Equal(t, []string{"prod_sales.orders_v2"}, rm.batchTargets)
	require.Len(t, rm.batches[0], 2)
	assert.Equal(t, []string{"2024-01-01"}, rm.batches[0][0].Values)
	assert.Equal(t, []string{"2024-01-02"}, rm.batches[0][1].Values)
	assert.Equal(t, "s3://warehouse/p/2024-01-01", aws.ToString(rm.batches[0][0].StorageDescriptor.Location))

	require.NotNil(t, rm.deleted)
	assert.Equal(t, "prod_sales", aws.ToString(rm.deleted.DatabaseName))
	assert.Equal(t, "orders", aws.ToString(rm.deleted.Name))
}

func TestTableService_Rename_PagesAndChunks(t *testing.T) {
	t.Parallel()

	parts := make([]types.Partition, 250)
	for i := range parts {
		parts[i] = glueTablePartition(fmt.Sprintf("p%03d", i))
	}
	rm := &renameMock{partitions: parts, pageSize: 70}
	api := rm.api()
	oldTbl, newTbl := renamePair()

	require.NoError(t, newTableService(api, true).Alter(context.Background(), oldTbl, newTbl))

	assert.Equal(t, 4, api.CallCount("GetPartitions"))
	require.Len(t, rm.batches, 3)
	assert.Len(t, rm.batches[0], 100)
	assert.Len(t, rm.batches[1], 100)
	assert.Len(t, rm.batches[2], 50)
	assert.Equal(t, []string{"p249"}, rm.batches[2][49].Values)
}

func TestTableService_Rename_NoPartitions(t *testing.T) {
	t.Parallel()

	rm := &renameMock{pageSize: 100}
	api := rm.api()
	oldTbl, newTbl := renamePair()

	require.NoError(t, newTableService(api, true).Alter(context.Background(), oldTbl, newTbl))
	assert.Equal(t, []string{"CreateTable", "GetPartitions", "DeleteTable"}, api.Calls)
}

func TestTableService_Rename_Resumes(t *testing.T) {
	t.Parallel()

	rm := &renameMock{
		partitions: []types.Partition{glueTablePartition("2024-01-01")},
		pageSize:   100,
		createErr:  errAlreadyExists(),
		batchErrors: []types.PartitionError{{
			PartitionValues: []string{"2024-01-01"},
			ErrorDetail:     &types.ErrorDetail{ErrorCode: aws.String(gluecatalog.CodeAlreadyExists)},
		}},
		deleteErr: errNotFound(),
	}
	api := rm.api()
	oldTbl, newTbl := renamePair()

	require.NoError(t, newTableService(api, true).Alter(context.Background(), oldTbl, newTbl))
	assert.Equal(t, []string{"CreateTable", "GetPartitions", "BatchCreatePartition", "DeleteTable"}, api.Calls)
}

func TestTableService_Rename_PartialFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rm        *renameMock
		wantStep  domain.RenameStep
		wantCalls []string
	}{
		{
			name: "batch call fails",
			rm: &renameMock{
				partitions: []types.Partition{glueTablePartition("a")},
				pageSize:   100,
				batchErr:   errInternal(),
			},
			wantStep:  domain.RenameStepCopyPartitions,
			wantCalls: []string{"CreateTable", "GetPartitions", "BatchCreatePartition"},
		},
		{
			name: "batch entry fails",
			rm: &renameMock{
				partitions: []types.Partition{glueTablePartition("a")},
				pageSize:   100,
				batchErrors: []types.PartitionError{{
					PartitionValues: []string{"a"},
					ErrorDetail: &types.ErrorDetail{
						ErrorCode:    aws.String("ResourceNumberLimitExceededException"),
						ErrorMessage: aws.String("too many partitions"),
					},
				}},
			},
			wantStep:  domain.RenameStepCopyPartitions,
			wantCalls: []string{"CreateTable", "GetPartitions", "BatchCreatePartition"},
		},
		{
			name: "delete of old table fails",
			rm: &renameMock{
				partitions: []types.Partition{glueTablePartition("a")},
				pageSize:   100,
				deleteErr:  errInternal(),
			},
			wantStep:  domain.RenameStepDeleteOldTable,
			wantCalls: []string{"CreateTable", "GetPartitions", "BatchCreatePartition", "DeleteTable"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api := tc.rm.api()
			oldTbl, newTbl := renamePair()

			err := newTableService(api, true).Alter(context.Background(), oldTbl, newTbl)
			require.Error(t, err)

			var partial *domain.PartialMigrationError
			require.True(t, errors.As(err, &partial))
			assert.Equal(t, tc.wantStep, partial.Step)
			assert.Equal(t, "orders", partial.OldTable)
			assert.Equal(t, "orders_v2", partial.NewTable)
			assert.Equal(t, tc.wantCalls, api.Calls)
		})
	}
}

func TestTableService_Rename_CreateFailureIsNotPartial(t *testing.T) {
	t.Parallel()

	rm := &renameMock{pageSize: 100, createErr: errInternal()}
	api := rm.api()
	oldTbl, newTbl := renamePair()

	err := newTableService(api, true).Alter(context.Background(), oldTbl, newTbl)
	require.Error(t, err)

	var partial *domain.PartialMigrationError
	assert.False(t, errors.As(err, &partial))
	assert.Equal(t, []string{"CreateTable"}, api.Calls)
}

func TestTableService_Drop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "deleted"},
		{name: "already absent", err: errNotFound()},
		{name: "failure propagates", err: errInternal(), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api := &testutil.MockGlueAPI{
				DeleteTableFn: func(_ context.Context, in *glue.DeleteTableInput) (*glue.DeleteTableOutput, error) {
					assert.Equal(t, "prod_sales", aws.ToString(in.DatabaseName))
					assert.Equal(t, "orders", aws.ToString(in.Name))
					return &glue.DeleteTableOutput{}, tc.err
				},
			}

			err := newTableService(api, true).Drop(context.Background(), sampleTable("sales", "orders"))
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
