package sink

import (
	"context"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

type gcsSink struct {
	target Target
	client *storage.Client
	bucket *storage.BucketHandle
	log    *zap.Logger
}

func newGCSSink(ctx context.Context, t Target, opts Options) (*gcsSink, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}

	return &gcsSink{
		target: t,
		client: client,
		bucket: client.Bucket(t.Bucket),
		log:    opts.Logger,
	}, nil
}

func (s *gcsSink) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath) //nolint:gosec // G304: path is an export written by this process
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeNotFound, "cannot open file for upload").
			WithDetail("file", localPath)
	}
	defer f.Close()

	key := s.target.Key(localPath)
	start := time.Now()

	writer := s.bucket.Object(key).NewWriter(ctx)
	writer.ContentType = contentType(localPath)
	writer.Metadata = map[string]string{
		"created": time.Now().UTC().Format(time.RFC3339),
	}

	n, err := io.Copy(writer, f)
	if err != nil {
		_ = writer.Close()
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "failed to write to GCS").
			WithDetail("bucket", s.target.Bucket).
			WithDetail("object", key)
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "failed to close GCS writer").
			WithDetail("bucket", s.target.Bucket).
			WithDetail("object", key)
	}

	dest := "gs://" + s.target.Bucket + "/" + key
	s.log.Info("file uploaded",
		zap.String("file", localPath),
		zap.String("destination", dest),
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)))
	return dest, nil
}

func (s *gcsSink) Close() error {
	return s.client.Close()
}
