package domain

import "strings"

// Database is a primary-catalog database record.
type Database struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	LocationURI string            `json:"locationUri,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	OwnerName   string            `json:"ownerName,omitempty"`
}

// Column is a table column or partition key.
type Column struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

// SerDeInfo describes the serialization library of a storage descriptor.
type SerDeInfo struct {
	Name             string            `json:"name,omitempty"`
	SerializationLib string            `json:"serializationLib,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
}

// Order is a sort column of a storage descriptor.
type Order struct {
	Col   string `json:"col"`
	Order int32  `json:"order"`
}

// StorageDescriptor describes the physical layout of a table or partition.
type StorageDescriptor struct {
	Cols                   []Column          `json:"cols,omitempty"`
	Location               string            `json:"location,omitempty"`
	InputFormat            string            `json:"inputFormat,omitempty"`
	OutputFormat           string            `json:"outputFormat,omitempty"`
	Compressed             bool              `json:"compressed,omitempty"`
	NumBuckets             int32             `json:"numBuckets,omitempty"`
	SerdeInfo              SerDeInfo         `json:"serdeInfo"`
	BucketCols             []string          `json:"bucketCols,omitempty"`
	SortCols               []Order           `json:"sortCols,omitempty"`
	Parameters             map[string]string `json:"parameters,omitempty"`
	StoredAsSubDirectories bool              `json:"storedAsSubDirectories,omitempty"`
}

// Table is a primary-catalog table record.
type Table struct {
	TableName        string            `json:"tableName"`
	DBName           string            `json:"dbName"`
	Owner            string            `json:"owner,omitempty"`
	CreateTime       int64             `json:"createTime,omitempty"`
	LastAccessTime   int64             `json:"lastAccessTime,omitempty"` // epoch seconds
	Retention        int32             `json:"retention,omitempty"`
	SD               StorageDescriptor `json:"sd"`
	PartitionKeys    []Column          `json:"partitionKeys,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
	ViewOriginalText string            `json:"viewOriginalText,omitempty"`
	ViewExpandedText string            `json:"viewExpandedText,omitempty"`
	TableType        string            `json:"tableType,omitempty"`
}

// QualifiedName returns "db.table" for logging.
func (t Table) QualifiedName() string {
	return t.DBName + "." + t.TableName
}

// Partition is a primary-catalog partition record.
type Partition struct {
	Values         []string          `json:"values"`
	DBName         string            `json:"dbName,omitempty"`
	TableName      string            `json:"tableName,omitempty"`
	CreateTime     int64             `json:"createTime,omitempty"`
	LastAccessTime int64             `json:"lastAccessTime,omitempty"`
	SD             StorageDescriptor `json:"sd"`
	Parameters     map[string]string `json:"parameters,omitempty"`
}

// FormatVariant classifies a table by the storage format identifiers in
// its storage descriptor.
type FormatVariant int

const (
	// FormatGeneric is any table whose formats are passed through as-is.
	FormatGeneric FormatVariant = iota
	// FormatIceberg is a table managed by the Iceberg table format.
	FormatIceberg
)

func (v FormatVariant) String() string {
	switch v {
	case FormatGeneric:
		return "generic"
	case FormatIceberg:
		return "iceberg"
	default:
		return "unknown"
	}
}

const icebergClassPrefix = "org.apache.iceberg."

// Variant classifies the storage descriptor. Any Iceberg input format,
// output format or serde marks the descriptor as Iceberg-managed.
func (sd StorageDescriptor) Variant() FormatVariant {
	for _, id := range []string{sd.InputFormat, sd.OutputFormat, sd.SerdeInfo.SerializationLib} {
		if strings.HasPrefix(id, icebergClassPrefix) {
			return FormatIceberg
		}
	}
	return FormatGeneric
}
