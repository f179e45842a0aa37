package gluesync

import (
	"context"
	"fmt"
	"slices"
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

func newPartitionService(api *testutil.MockGlueAPI) *PartitionService {
	return NewPartitionService(api, transform.New("prod_"), discardLogger())
}

func partitionsOf(tbl domain.Table, n int) []domain.Partition {
	parts := make([]domain.Partition, n)
	for i := range parts {
		parts[i] = samplePartition(tbl, fmt.Sprintf("2024-01-%03d", i))
	}
	return parts
}

func TestPartitionService_Add(t *testing.T) {
	t.Parallel()

	tbl := sampleTable("sales", "orders")
	var got *glue.BatchCreatePartitionInput
	api := &testutil.MockGlueAPI{
		BatchCreatePartitionFn: func(_ context.Context, in *glue.BatchCreatePartitionInput) (*glue.BatchCreatePartitionOutput, error) {
			got = in
			return &glue.BatchCreatePartitionOutput{}, nil
		},
	}

	seq := domain.NewPartitionSeq([]domain.Partition{
		samplePartition(tbl, "2024-01-01"),
		samplePartition(tbl, "2024-01-02"),
	})
	require.NoError(t, newPartitionService(api).Add(context.Background(), tbl, seq))

	require.NotNil(t, got)
	assert.Equal(t, "prod_sales", aws.ToString(got.DatabaseName))
	assert.Equal(t, "orders", aws.ToString(got.TableName))
	require.Len(t, got.PartitionInputList, 2)
	assert.Equal(t, []string{"2024-01-01"}, got.PartitionInputList[0].Values)
	assert.Equal(t, "s3://warehouse/sales/orders/dt=2024-01-02", aws.ToString(got.PartitionInputList[1].StorageDescriptor.Location))

	assert.Empty(t, slices.Collect(seq), "sequence is single-pass")
}

func TestPartitionService_Add_Chunks(t *testing.T) {
	t.Parallel()

	tbl := sampleTable("sales", "orders")
	var sizes []int
	api := &testutil.MockGlueAPI{
		BatchCreatePartitionFn: func(_ context.Context, in *glue.BatchCreatePartitionInput) (*glue.BatchCreatePartitionOutput, error) {
			sizes = append(sizes, len(in.PartitionInputList))
			return &glue.BatchCreatePartitionOutput{}, nil
		},
	}

	seq := domain.NewPartitionSeq(partitionsOf(tbl, 150))
	require.NoError(t, newPartitionService(api).Add(context.Background(), tbl, seq))
	assert.Equal(t, []int{100, 50}, sizes)
}

func TestPartitionService_Add_Empty(t *testing.T) {
	t.Parallel()

	api := &testutil.MockGlueAPI{}
	svc := newPartitionService(api)
	tbl := sampleTable("sales", "orders")

	require.NoError(t, svc.Add(context.Background(), tbl, domain.NewPartitionSeq(nil)))
	require.NoError(t, svc.Add(context.Background(), tbl, nil))
	assert.Empty(t, api.Calls)
}

func TestPartitionService_Add_BatchRejectedFallsBack(t *testing.T) {
	t.Parallel()

	tbl := sampleTable("sales", "orders")
	dirty := samplePartition(tbl, "2024-01-02")
	dirty.SD.Cols = slices.Clone(dirty.SD.Cols)
	dirty.SD.Cols[1].Comment = badComment

	var created [][]string
	api := &testutil.MockGlueAPI{
		BatchCreatePartitionFn: func(context.Context, *glue.BatchCreatePartitionInput) (*glue.BatchCreatePartitionOutput, error) {
			return nil, errInvalidInput()
		},
		CreatePartitionFn: func(_ context.Context, in *glue.CreatePartitionInput) (*glue.CreatePartitionOutput, error) {
			if hasBadComment(in.PartitionInput.StorageDescriptor.Columns) {
				return nil, errInvalidInput()
			}
			created = append(created, in.PartitionInput.Values)
			return &glue.CreatePartitionOutput{}, nil
		},
	}

	seq := domain.NewPartitionSeq([]domain.Partition{samplePartition(tbl, "2024-01-01"), dirty})
	require.NoError(t, newPartitionService(api).Add(context.Background(), tbl, seq))

	assert.Equal(t, 1, api.CallCount("BatchCreatePartition"))
	assert.Equal(t, 3, api.CallCount("CreatePartition"), "clean partition once, dirty partition twice")
	assert.Equal(t, [][]string{{"2024-01-01"}, {"2024-01-02"}}, created)
}

func TestPartitionService_Add_FallbackAlreadyExists(t *testing.T) {
	t.Parallel()

	tbl := sampleTable("sales", "orders")
	api := &testutil.MockGlueAPI{
		BatchCreatePartitionFn: func(context.Context, *glue.BatchCreatePartitionInput) (*glue.BatchCreatePartitionOutput, error) {
			return nil, errInvalidInput()
		},
		CreatePartitionFn: func(context.Context, *glue.CreatePartitionInput) (*glue.CreatePartitionOutput, error) {
			return nil, errAlreadyExists()
		},
	}

	seq := domain.NewPartitionSeq(partitionsOf(tbl, 2))
	require.NoError(t, newPartitionService(api).Add(context.Background(), tbl, seq))
	assert.Equal(t, 2, api.CallCount("CreatePartition"))
}

func TestPartitionService_Add_BatchEntryErrors(t *testing.T) {
	t.Parallel()

	entry := func(values string, code string) types.PartitionError {
		return types.PartitionError{
			PartitionValues: []string{values},
			ErrorDetail: &types.ErrorDetail{
				ErrorCode:    aws.String(code),
				ErrorMessage: aws.String(code + " for " + values),
			},
		}
	}

	tests := []struct {
		name        string
		entries     []types.PartitionError
		wantErr     bool
		wantCreates int
	}{
		{
			name:    "already exists entries are success",
			entries: []types.PartitionError{entry("2024-01-000", gluecatalog.CodeAlreadyExists)},
		},
		{
			name:        "malformed entry is created individually",
			entries:     []types.PartitionError{entry("2024-01-001", gluecatalog.CodeInvalidInput)},
			wantCreates: 1,
		},
		{
			name:    "other entry error fails",
			entries: []types.PartitionError{entry("2024-01-001", "InternalServiceException")},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tbl := sampleTable("sales", "orders")
			api := &testutil.MockGlueAPI{
				BatchCreatePartitionFn: func(context.Context, *glue.BatchCreatePartitionInput) (*glue.BatchCreatePartitionOutput, error) {
					return &glue.BatchCreatePartitionOutput{Errors: tc.entries}, nil
				},
				CreatePartitionFn: func(_ context.Context, in *glue.CreatePartitionInput) (*glue.CreatePartitionOutput, error) {
					assert.Equal(t, []string{"2024-01-001"}, in.PartitionInput.Values)
					return &glue.CreatePartitionOutput{}, nil
				},
			}

			err := newPartitionService(api).Add(context.Background(), tbl, domain.NewPartitionSeq(partitionsOf(tbl, 2)))
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "InternalServiceException")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantCreates, api.CallCount("CreatePartition"))
		})
	}
}

func TestPartitionService_Alter(t *testing.T) {
	t.Parallel()

	tbl := sampleTable("sales", "orders")
	oldPart := samplePartition(tbl, "2024-01-01")
	newPart := samplePartition(tbl, "2024-01-01")
	newPart.Parameters = map[string]string{"numRows": "42"}

	var got *glue.UpdatePartitionInput
	api := &testutil.MockGlueAPI{
		UpdatePartitionFn: func(_ context.Context, in *glue.UpdatePartitionInput) (*glue.UpdatePartitionOutput, error) {
			got = in
			return &glue.UpdatePartitionOutput{}, nil
		},
	}

	require.NoError(t, newPartitionService(api).Alter(context.Background(), tbl, oldPart, newPart))

	require.NotNil(t, got)
	assert.Equal(t, "prod_sales", aws.ToString(got.DatabaseName))
	assert.Equal(t, "orders", aws.ToString(got.TableName))
	assert.Equal(t, []string{"2024-01-01"}, got.PartitionValueList)
	assert.Equal(t, "42", got.PartitionInput.Parameters["numRows"])
}

func TestPartitionService_Alter_SanitizeRetry(t *testing.T) {
	t.Parallel()

	tbl := sampleTable("sales", "orders")
	part := samplePartition(tbl, "2024-01-01")
	part.SD.Cols = slices.Clone(part.SD.Cols)
	part.SD.Cols[0].Comment = badComment

	api := &testutil.MockGlueAPI{
		UpdatePartitionFn: func(_ context.Context, in *glue.UpdatePartitionInput) (*glue.UpdatePartitionOutput, error) {
			if hasBadComment(in.PartitionInput.StorageDescriptor.Columns) {
				return nil, errInvalidInput()
			}
			return &glue.UpdatePartitionOutput{}, nil
		},
	}

	require.NoError(t, newPartitionService(api).Alter(context.Background(), tbl, part, part))
	assert.Equal(t, 2, api.CallCount("UpdatePartition"))
}

func TestPartitionService_Drop(t *testing.T) {
	t.Parallel()

	tbl := sampleTable("sales", "orders")

	t.Run("missing partitions are skipped", func(t *testing.T) {
		t.Parallel()

		var deleted [][]string
		api := &testutil.MockGlueAPI{
			DeletePartitionFn: func(_ context.Context, in *glue.DeletePartitionInput) (*glue.DeletePartitionOutput, error) {
				assert.Equal(t, "prod_sales", aws.ToString(in.DatabaseName))
				deleted = append(deleted, in.PartitionValues)
				if in.PartitionValues[0] == "2024-01-000" {
					return nil, errNotFound()
				}
				return &glue.DeletePartitionOutput{}, nil
			},
		}

		seq := domain.NewPartitionSeq(partitionsOf(tbl, 3))
		require.NoError(t, newPartitionService(api).Drop(context.Background(), tbl, seq))
		assert.Len(t, deleted, 3)
	})

	t.Run("failure stops and propagates", func(t *testing.T) {
		t.Parallel()

		api := &testutil.MockGlueAPI{
			DeletePartitionFn: func(context.Context, *glue.DeletePartitionInput) (*glue.DeletePartitionOutput, error) {
				return nil, errInternal()
			},
		}

		seq := domain.NewPartitionSeq(partitionsOf(tbl, 3))
		err := newPartitionService(api).Drop(context.Background(), tbl, seq)
		require.Error(t, err)
		assert.Equal(t, 1, api.CallCount("DeletePartition"))
	})
}
