// Package testutil provides shared mock implementations of the engine's
// collaborators for use in tests across the codebase. This follows the Go
// convention of a shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/glue"

	"gluesync/internal/domain"
	"gluesync/internal/gluecatalog"
)

// === Glue API Mock ===

// MockGlueAPI implements gluecatalog.GlueAPI for testing. Calls records the
// method names in invocation order. A method whose Fn is nil panics.
type MockGlueAPI struct {
	CreateDatabaseFn       func(ctx context.Context, in *glue.CreateDatabaseInput) (*glue.CreateDatabaseOutput, error)
	UpdateDatabaseFn       func(ctx context.Context, in *glue.UpdateDatabaseInput) (*glue.UpdateDatabaseOutput, error)
	DeleteDatabaseFn       func(ctx context.Context, in *glue.DeleteDatabaseInput) (*glue.DeleteDatabaseOutput, error)
	GetDatabaseFn          func(ctx context.Context, in *glue.GetDatabaseInput) (*glue.GetDatabaseOutput, error)
	CreateTableFn          func(ctx context.Context, in *glue.CreateTableInput) (*glue.CreateTableOutput, error)
	UpdateTableFn          func(ctx context.Context, in *glue.UpdateTableInput) (*glue.UpdateTableOutput, error)
	DeleteTableFn          func(ctx context.Context, in *glue.DeleteTableInput) (*glue.DeleteTableOutput, error)
	GetTableFn             func(ctx context.Context, in *glue.GetTableInput) (*glue.GetTableOutput, error)
	CreatePartitionFn      func(ctx context.Context, in *glue.CreatePartitionInput) (*glue.CreatePartitionOutput, error)
	BatchCreatePartitionFn func(ctx context.Context, in *glue.BatchCreatePartitionInput) (*glue.BatchCreatePartitionOutput, error)
	UpdatePartitionFn      func(ctx context.Context, in *glue.UpdatePartitionInput) (*glue.UpdatePartitionOutput, error)
	DeletePartitionFn      func(ctx context.Context, in *glue.DeletePartitionInput) (*glue.DeletePartitionOutput, error)
	GetPartitionsFn        func(ctx context.Context, in *glue.GetPartitionsInput) (*glue.GetPartitionsOutput, error)

	mu    sync.Mutex
	Calls []string
}

func (m *MockGlueAPI) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// CallCount returns how many times the named method was called.
func (m *MockGlueAPI) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// CreateDatabase implements the interface method for testing.
func (m *MockGlueAPI) CreateDatabase(ctx context.Context, in *glue.CreateDatabaseInput, _ ...func(*glue.Options)) (*glue.CreateDatabaseOutput, error) {
	m.record("CreateDatabase")
	if m.CreateDatabaseFn != nil {
		return m.CreateDatabaseFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.CreateDatabase")
}

// UpdateDatabase implements the interface method for testing.
func (m *MockGlueAPI) UpdateDatabase(ctx context.Context, in *glue.UpdateDatabaseInput, _ ...func(*glue.Options)) (*glue.UpdateDatabaseOutput, error) {
	m.record("UpdateDatabase")
	if m.UpdateDatabaseFn != nil {
		return m.UpdateDatabaseFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.UpdateDatabase")
}

// DeleteDatabase implements the interface method for testing.
func (m *MockGlueAPI) DeleteDatabase(ctx context.Context, in *glue.DeleteDatabaseInput, _ ...func(*glue.Options)) (*glue.DeleteDatabaseOutput, error) {
	m.record("DeleteDatabase")
	if m.DeleteDatabaseFn != nil {
		return m.DeleteDatabaseFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.DeleteDatabase")
}

// GetDatabase implements the interface method for testing.
func (m *MockGlueAPI) GetDatabase(ctx context.Context, in *glue.GetDatabaseInput, _ ...func(*glue.Options)) (*glue.GetDatabaseOutput, error) {
	m.record("GetDatabase")
	if m.GetDatabaseFn != nil {
		return m.GetDatabaseFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.GetDatabase")
}

// CreateTable implements the interface method for testing.
func (m *MockGlueAPI) CreateTable(ctx context.Context, in *glue.CreateTableInput, _ ...func(*glue.Options)) (*glue.CreateTableOutput, error) {
	m.record("CreateTable")
	if m.CreateTableFn != nil {
		return m.CreateTableFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.CreateTable")
}

// UpdateTable implements the interface method for testing.
func (m *MockGlueAPI) UpdateTable(ctx context.Context, in *glue.UpdateTableInput, _ ...func(*glue.Options)) (*glue.UpdateTableOutput, error) {
	m.record("UpdateTable")
	if m.UpdateTableFn != nil {
		return m.UpdateTableFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.UpdateTable")
}

// DeleteTable implements the interface method for testing.
func (m *MockGlueAPI) DeleteTable(ctx context.Context, in *glue.DeleteTableInput, _ ...func(*glue.Options)) (*glue.DeleteTableOutput, error) {
	m.record("DeleteTable")
	if m.DeleteTableFn != nil {
		return m.DeleteTableFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.DeleteTable")
}

// GetTable implements the interface method for testing.
func (m *MockGlueAPI) GetTable(ctx context.Context, in *glue.GetTableInput, _ ...func(*glue.Options)) (*glue.GetTableOutput, error) {
	m.record("GetTable")
	if m.GetTableFn != nil {
		return m.GetTableFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.GetTable")
}

// CreatePartition implements the interface method for testing.
func (m *MockGlueAPI) CreatePartition(ctx context.Context, in *glue.CreatePartitionInput, _ ...func(*glue.Options)) (*glue.CreatePartitionOutput, error) {
	m.record("CreatePartition")
	if m.CreatePartitionFn != nil {
		return m.CreatePartitionFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.CreatePartition")
}

// BatchCreatePartition implements the interface method for testing.
func (m *MockGlueAPI) BatchCreatePartition(ctx context.Context, in *glue.BatchCreatePartitionInput, _ ...func(*glue.Options)) (*glue.BatchCreatePartitionOutput, error) {
	m.record("BatchCreatePartition")
	if m.BatchCreatePartitionFn != nil {
		return m.BatchCreatePartitionFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.BatchCreatePartition")
}

// UpdatePartition implements the interface method for testing.
func (m *MockGlueAPI) UpdatePartition(ctx context.Context, in *glue.UpdatePartitionInput, _ ...func(*glue.Options)) (*glue.UpdatePartitionOutput, error) {
	m.record("UpdatePartition")
	if m.UpdatePartitionFn != nil {
		return m.UpdatePartitionFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.UpdatePartition")
}

// DeletePartition implements the interface method for testing.
func (m *MockGlueAPI) DeletePartition(ctx context.Context, in *glue.DeletePartitionInput, _ ...func(*glue.Options)) (*glue.DeletePartitionOutput, error) {
	m.record("DeletePartition")
	if m.DeletePartitionFn != nil {
		return m.DeletePartitionFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.DeletePartition")
}

// GetPartitions implements the interface method for testing.
func (m *MockGlueAPI) GetPartitions(ctx context.Context, in *glue.GetPartitionsInput, _ ...func(*glue.Options)) (*glue.GetPartitionsOutput, error) {
	m.record("GetPartitions")
	if m.GetPartitionsFn != nil {
		return m.GetPartitionsFn(ctx, in)
	}
	panic("unexpected call to MockGlueAPI.GetPartitions")
}

var _ gluecatalog.GlueAPI = (*MockGlueAPI)(nil)

// === Metrics Recorder Mock ===

// MockMetrics implements domain.MetricsRecorder and collects counter
// increments for assertions.
type MockMetrics struct {
	mu       sync.Mutex
	Counters []string
}

// IncrementCounter implements the interface method for testing.
func (m *MockMetrics) IncrementCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counters = append(m.Counters, name)
}

// Count returns how many times name was incremented.
func (m *MockMetrics) Count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Counters {
		if c == name {
			n++
		}
	}
	return n
}

var _ domain.MetricsRecorder = (*MockMetrics)(nil)
