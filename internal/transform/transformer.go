// Package transform maps primary-metastore records onto AWS Glue request
// payloads.
package transform

import (
	"maps"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"gluesync/internal/domain"
)

// Storage formats emitted for Iceberg tables, fixed by the Iceberg Hive
// integration regardless of what the metastore recorded.
const (
	IcebergInputFormat  = "org.apache.iceberg.mr.hive.HiveIcebergInputFormat"
	IcebergOutputFormat = "org.apache.iceberg.mr.hive.HiveIcebergOutputFormat"
	IcebergSerDe        = "org.apache.iceberg.mr.hive.HiveIcebergSerDe"
)

// tableCommentParam is where Hive keeps a table's comment.
const tableCommentParam = "comment"

// Transformer builds Glue payloads. It is immutable and safe to share.
type Transformer struct {
	prefix string
}

// New returns a Transformer that prefixes every database name with prefix.
func New(prefix string) *Transformer {
	return &Transformer{prefix: prefix}
}

// GlueDatabaseName maps a metastore database name to its Glue name.
func (t *Transformer) GlueDatabaseName(name string) string {
	return t.prefix + name
}

// DatabaseInput builds the Glue database payload. Parameters are copied
// unchanged; callers creating a database add the ownership tag themselves.
func (t *Transformer) DatabaseInput(db domain.Database) *types.DatabaseInput {
	return &types.DatabaseInput{
		Name:        aws.String(t.GlueDatabaseName(db.Name)),
		Description: optString(db.Description),
		LocationUri: optString(db.LocationURI),
		Parameters:  maps.Clone(db.Parameters),
	}
}

// TableInput builds the Glue table payload. Table names are not prefixed.
func (t *Transformer) TableInput(tbl domain.Table) *types.TableInput {
	return &types.TableInput{
		Name:              aws.String(tbl.TableName),
		Description:       optString(tbl.Parameters[tableCommentParam]),
		Owner:             optString(tbl.Owner),
		LastAccessTime:    epochSeconds(tbl.LastAccessTime),
		Retention:         tbl.Retention,
		StorageDescriptor: t.StorageDescriptor(tbl.SD),
		PartitionKeys:     columns(tbl.PartitionKeys),
		TableType:         optString(tbl.TableType),
		ViewOriginalText:  optString(tbl.ViewOriginalText),
		ViewExpandedText:  optString(tbl.ViewExpandedText),
		Parameters:        maps.Clone(tbl.Parameters),
	}
}

// PartitionInput builds the Glue partition payload.
func (t *Transformer) PartitionInput(p domain.Partition) *types.PartitionInput {
	return &types.PartitionInput{
		Values:            append([]string(nil), p.Values...),
		LastAccessTime:    epochSeconds(p.LastAccessTime),
		StorageDescriptor: t.StorageDescriptor(p.SD),
		Parameters:        maps.Clone(p.Parameters),
	}
}

// PartitionInputFromGlue converts a partition read back from Glue into an
// input for re-creating it under another table.
func (t *Transformer) PartitionInputFromGlue(p types.Partition) types.PartitionInput {
	return types.PartitionInput{
		Values:            append([]string(nil), p.Values...),
		LastAccessTime:    p.LastAccessTime,
		LastAnalyzedTime:  p.LastAnalyzedTime,
		StorageDescriptor: p.StorageDescriptor,
		Parameters:        maps.Clone(p.Parameters),
	}
}

// StorageDescriptor builds the Glue storage descriptor. Iceberg tables get
// the Iceberg formats and serde; everything else is passed through.
func (t *Transformer) StorageDescriptor(sd domain.StorageDescriptor) *types.StorageDescriptor {
	inputFormat, outputFormat, serde := sd.InputFormat, sd.OutputFormat, sd.SerdeInfo.SerializationLib
	switch sd.Variant() {
	case domain.FormatIceberg:
		inputFormat, outputFormat, serde = IcebergInputFormat, IcebergOutputFormat, IcebergSerDe
	case domain.FormatGeneric:
	}

	out := &types.StorageDescriptor{
		Columns:                columns(sd.Cols),
		Location:               optString(sd.Location),
		InputFormat:            optString(inputFormat),
		OutputFormat:           optString(outputFormat),
		Compressed:             sd.Compressed,
		NumberOfBuckets:        sd.NumBuckets,
		BucketColumns:          append([]string(nil), sd.BucketCols...),
		Parameters:             maps.Clone(sd.Parameters),
		StoredAsSubDirectories: sd.StoredAsSubDirectories,
		SerdeInfo: &types.SerDeInfo{
			Name:                 optString(sd.SerdeInfo.Name),
			SerializationLibrary: optString(serde),
			Parameters:           maps.Clone(sd.SerdeInfo.Parameters),
		},
	}
	for _, o := range sd.SortCols {
		out.SortColumns = append(out.SortColumns, types.Order{
			Column:    aws.String(o.Col),
			SortOrder: o.Order,
		})
	}
	return out
}

func columns(cols []domain.Column) []types.Column {
	out := make([]types.Column, 0, len(cols))
	for _, c := range cols {
		out = append(out, types.Column{
			Name:    aws.String(c.Name),
			Type:    aws.String(c.Type),
			Comment: optString(c.Comment),
		})
	}
	return out
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func epochSeconds(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	return aws.Time(time.Unix(sec, 0).UTC())
}
