package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"gluesync/internal/domain"
	"gluesync/internal/event"
	"gluesync/internal/host"
)

// S3API is the subset of the S3 client used to read archived notification
// files.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// FileOptions configures a FileSource.
type FileOptions struct {
	// S3 reads s3:// paths. Required only for such paths.
	S3 S3API
	// StopOnError ends the replay at the first invalid record or failed
	// notification instead of counting it and moving on.
	StopOnError bool
}

// FileSource replays a JSON-lines file of notifications, read from a local
// path, "-" for stdin, or an s3://bucket/key object.
type FileSource struct {
	path   string
	opts   FileOptions
	logger *slog.Logger
}

// NewFileSource creates a new FileSource.
func NewFileSource(path string, opts FileOptions, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, opts: opts, logger: logger}
}

// Run submits every notification in the file, in order.
func (s *FileSource) Run(ctx context.Context, sub Submitter) (Stats, error) {
	var stats Stats

	r, err := s.open(ctx)
	if err != nil {
		return stats, err
	}
	defer r.Close() //nolint:errcheck

	dec := event.NewDecoder(r)
	for record := 1; ; record++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			stats.Invalid++
			s.logger.Warn("skipping invalid notification", "path", s.path, "record", record, "error", err)
			if s.opts.StopOnError {
				return stats, fmt.Errorf("record %d of %s: %w", record, s.path, err)
			}
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("record %d of %s: %w", record, s.path, err)
		}

		err = sub.Submit(ctx, ev)
		switch {
		case err == nil:
			stats.Applied++
		case errors.Is(err, host.ErrStopped), ctx.Err() != nil:
			return stats, err
		default:
			stats.Failed++
			if s.opts.StopOnError {
				return stats, fmt.Errorf("record %d of %s (event %s): %w", record, s.path, ev.ID, err)
			}
		}
	}
}

func (s *FileSource) open(ctx context.Context) (io.ReadCloser, error) {
	switch {
	case s.path == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(s.path, "s3://"):
		if s.opts.S3 == nil {
			return nil, domain.ErrValidation("no S3 client configured for %q", s.path)
		}
		bucket, key, err := ParseS3Path(s.path)
		if err != nil {
			return nil, domain.ErrValidation("%v", err)
		}
		out, err := s.opts.S3.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", s.path, err)
		}
		return out.Body, nil
	default:
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("open notification file: %w", err)
		}
		return f, nil
	}
}

// ParseS3Path splits an s3://bucket/key URI.
func ParseS3Path(s3Path string) (bucket, key string, err error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("S3 path %q needs both bucket and key", s3Path)
	}
	return bucket, key, nil
}
