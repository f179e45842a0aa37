package gluecatalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"golang.org/x/time/rate"
)

// ClientOptions configures the Glue client.
type ClientOptions struct {
	// Endpoint overrides the Glue endpoint (e.g. a local emulator). Optional.
	Endpoint string
	// RequestsPerSecond caps Glue calls made by this process. Zero disables
	// the limiter.
	RequestsPerSecond float64
	// Burst is the limiter bucket size.
	Burst int
}

// NewClient builds a Glue client from an already-loaded AWS config.
// Retry and backoff are left to the SDK's standard retryer configured on
// awsCfg.
func NewClient(awsCfg aws.Config, opts ClientOptions) GlueAPI {
	client := glue.NewFromConfig(awsCfg, func(o *glue.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	if opts.RequestsPerSecond <= 0 {
		return client
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return NewRateLimited(client, rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst))
}

// RateLimitedClient wraps a GlueAPI so every call first waits on a shared
// token bucket. Glue throttles per account, so bursts of partition events
// are smoothed here instead of surfacing as throttling errors.
type RateLimitedClient struct {
	api     GlueAPI
	limiter *rate.Limiter
}

// NewRateLimited wraps api with limiter.
func NewRateLimited(api GlueAPI, limiter *rate.Limiter) *RateLimitedClient {
	return &RateLimitedClient{api: api, limiter: limiter}
}

var _ GlueAPI = (*RateLimitedClient)(nil)

func (c *RateLimitedClient) wait(ctx context.Context, op string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("glue %s: rate limit wait: %w", op, err)
	}
	return nil
}

// CreateDatabase implements GlueAPI.
func (c *RateLimitedClient) CreateDatabase(ctx context.Context, params *glue.CreateDatabaseInput, optFns ...func(*glue.Options)) (*glue.CreateDatabaseOutput, error) {
	if err := c.wait(ctx, "CreateDatabase"); err != nil {
		return nil, err
	}
	return c.api.CreateDatabase(ctx, params, optFns...)
}

// UpdateDatabase implements GlueAPI.
func (c *RateLimitedClient) UpdateDatabase(ctx context.Context, params *glue.UpdateDatabaseInput, optFns ...func(*glue.Options)) (*glue.UpdateDatabaseOutput, error) {
	if err := c.wait(ctx, "UpdateDatabase"); err != nil {
		return nil, err
	}
	return c.api.UpdateDatabase(ctx, params, optFns...)
}

// DeleteDatabase implements GlueAPI.
func (c *RateLimitedClient) DeleteDatabase(ctx context.Context, params *glue.DeleteDatabaseInput, optFns ...func(*glue.Options)) (*glue.DeleteDatabaseOutput, error) {
	if err := c.wait(ctx, "DeleteDatabase"); err != nil {
		return nil, err
	}
	return c.api.DeleteDatabase(ctx, params, optFns...)
}

// GetDatabase implements GlueAPI.
func (c *RateLimitedClient) GetDatabase(ctx context.Context, params *glue.GetDatabaseInput, optFns ...func(*glue.Options)) (*glue.GetDatabaseOutput, error) {
	if err := c.wait(ctx, "GetDatabase"); err != nil {
		return nil, err
	}
	return c.api.GetDatabase(ctx, params, optFns...)
}

// CreateTable implements GlueAPI.
func (c *RateLimitedClient) CreateTable(ctx context.Context, params *glue.CreateTableInput, optFns ...func(*glue.Options)) (*glue.CreateTableOutput, error) {
	if err := c.wait(ctx, "CreateTable"); err != nil {
		return nil, err
	}
	return c.api.CreateTable(ctx, params, optFns...)
}

// UpdateTable implements GlueAPI.
func (c *RateLimitedClient) UpdateTable(ctx context.Context, params *glue.UpdateTableInput, optFns ...func(*glue.Options)) (*glue.UpdateTableOutput, error) {
	if err := c.wait(ctx, "UpdateTable"); err != nil {
		return nil, err
	}
	return c.api.UpdateTable(ctx, params, optFns...)
}

// DeleteTable implements GlueAPI.
func (c *RateLimitedClient) DeleteTable(ctx context.Context, params *glue.DeleteTableInput, optFns ...func(*glue.Options)) (*glue.DeleteTableOutput, error) {
	if err := c.wait(ctx, "DeleteTable"); err != nil {
		return nil, err
	}
	return c.api.DeleteTable(ctx, params, optFns...)
}

// GetTable implements GlueAPI.
func (c *RateLimitedClient) GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error) {
	if err := c.wait(ctx, "GetTable"); err != nil {
		return nil, err
	}
	return c.api.GetTable(ctx, params, optFns...)
}

// CreatePartition implements GlueAPI.
func (c *RateLimitedClient) CreatePartition(ctx context.Context, params *glue.CreatePartitionInput, optFns ...func(*glue.Options)) (*glue.CreatePartitionOutput, error) {
	if err := c.wait(ctx, "CreatePartition"); err != nil {
		return nil, err
	}
	return c.api.CreatePartition(ctx, params, optFns...)
}

// BatchCreatePartition implements GlueAPI.
func (c *RateLimitedClient) BatchCreatePartition(ctx context.Context, params *glue.BatchCreatePartitionInput, optFns ...func(*glue.Options)) (*glue.BatchCreatePartitionOutput, error) {
	if err := c.wait(ctx, "BatchCreatePartition"); err != nil {
		return nil, err
	}
	return c.api.BatchCreatePartition(ctx, params, optFns...)
}

// UpdatePartition implements GlueAPI.
func (c *RateLimitedClient) UpdatePartition(ctx context.Context, params *glue.UpdatePartitionInput, optFns ...func(*glue.Options)) (*glue.UpdatePartitionOutput, error) {
	if err := c.wait(ctx, "UpdatePartition"); err != nil {
		return nil, err
	}
	return c.api.UpdatePartition(ctx, params, optFns...)
}

// DeletePartition implements GlueAPI.
func (c *RateLimitedClient) DeletePartition(ctx context.Context, params *glue.DeletePartitionInput, optFns ...func(*glue.Options)) (*glue.DeletePartitionOutput, error) {
	if err := c.wait(ctx, "DeletePartition"); err != nil {
		return nil, err
	}
	return c.api.DeletePartition(ctx, params, optFns...)
}

// GetPartitions implements GlueAPI.
func (c *RateLimitedClient) GetPartitions(ctx context.Context, params *glue.GetPartitionsInput, optFns ...func(*glue.Options)) (*glue.GetPartitionsOutput, error) {
	if err := c.wait(ctx, "GetPartitions"); err != nil {
		return nil, err
	}
	return c.api.GetPartitions(ctx, params, optFns...)
}
