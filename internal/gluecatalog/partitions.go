package gluecatalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
)

// MaxBatchPartitions is the largest PartitionInputList Glue accepts in one
// BatchCreatePartition call.
const MaxBatchPartitions = 100

// ListPartitions returns every partition of database.table, following
// GetPartitions pagination to the end.
func ListPartitions(ctx context.Context, api GlueAPI, database, table string) ([]types.Partition, error) {
	paginator := glue.NewGetPartitionsPaginator(api, &glue.GetPartitionsInput{
		DatabaseName: aws.String(database),
		TableName:    aws.String(table),
	})

	var out []types.Partition
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("get partitions of %s.%s: %w", database, table, err)
		}
		out = append(out, page.Partitions...)
	}
	return out, nil
}

// Chunk splits inputs into slices of at most size elements.
func Chunk(inputs []types.PartitionInput, size int) [][]types.PartitionInput {
	if size <= 0 {
		size = MaxBatchPartitions
	}
	var chunks [][]types.PartitionInput
	for start := 0; start < len(inputs); start += size {
		end := min(start+size, len(inputs))
		chunks = append(chunks, inputs[start:end])
	}
	return chunks
}
