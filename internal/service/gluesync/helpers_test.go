package gluesync

import (
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"gluesync/internal/domain"
	"gluesync/internal/testutil"
	"gluesync/internal/transform"
)

// === Glue exception helpers ===

func errAlreadyExists() error {
	return &types.AlreadyExistsException{Message: aws.String("entity already exists")}
}

func errNotFound() error {
	return &types.EntityNotFoundException{Message: aws.String("entity not found")}
}

func errInvalidInput() error {
	return &types.InvalidInputException{Message: aws.String("invalid input")}
}

func errInternal() error {
	return &types.InternalServiceException{Message: aws.String("internal failure")}
}

// === Fixtures ===

const badComment = "revenue \uFFFF net"

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func sampleDatabase(name string) domain.Database {
	return domain.Database{
		Name:        name,
		Description: "sales data",
		LocationURI: "s3://warehouse/" + name,
		Parameters:  map[string]string{"team": "analytics"},
		OwnerName:   "hive",
	}
}

func sampleTable(db, name string) domain.Table {
	return domain.Table{
		TableName: name,
		DBName:    db,
		Owner:     "hive",
		SD: domain.StorageDescriptor{
			Cols: []domain.Column{
				{Name: "id", Type: "bigint"},
				{Name: "amount", Type: "double", Comment: "gross amount"},
			},
			Location:     "s3://warehouse/" + db + "/" + name,
			InputFormat:  "org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat",
			OutputFormat: "org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat",
			SerdeInfo: domain.SerDeInfo{
				SerializationLib: "org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe",
			},
		},
		PartitionKeys: []domain.Column{{Name: "dt", Type: "string"}},
		Parameters:    map[string]string{"EXTERNAL": "TRUE"},
		TableType:     "EXTERNAL_TABLE",
	}
}

func samplePartition(tbl domain.Table, values ...string) domain.Partition {
	sd := tbl.SD
	sd.Location = tbl.SD.Location + "/dt=" + strings.Join(values, "/")
	return domain.Partition{
		Values:    values,
		DBName:    tbl.DBName,
		TableName: tbl.TableName,
		SD:        sd,
	}
}

func glueTablePartition(values ...string) types.Partition {
	return types.Partition{
		Values: values,
		StorageDescriptor: &types.StorageDescriptor{
			Location: aws.String("s3://warehouse/p/" + strings.Join(values, "/")),
		},
	}
}

// hasBadComment reports whether any column comment still carries a
// character Glue rejects.
func hasBadComment(cols []types.Column) bool {
	for _, c := range cols {
		if c.Comment != nil && transform.SanitizeComment(*c.Comment) != *c.Comment {
			return true
		}
	}
	return false
}

func newTestListener(api *testutil.MockGlueAPI, m *testutil.MockMetrics, cfg SyncConfig) *Listener {
	return NewListener(ListenerDeps{
		Glue:    api,
		Metrics: m,
		Config:  cfg,
		Logger:  discardLogger(),
	})
}
