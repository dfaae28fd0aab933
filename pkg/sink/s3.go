package sink

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

const uploadPartSize = 8 * 1024 * 1024

// uploader is the part of manager.Uploader the sink uses
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type s3Sink struct {
	target   Target
	uploader uploader
	log      *zap.Logger
}

func newS3Sink(ctx context.Context, t Target, opts Options) (*s3Sink, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg)
	return &s3Sink{
		target: t,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = uploadPartSize
		}),
		log: opts.Logger,
	}, nil
}

func (s *s3Sink) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath) //nolint:gosec // G304: path is an export written by this process
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeNotFound, "cannot open file for upload").
			WithDetail("file", localPath)
	}
	defer f.Close()

	key := s.target.Key(localPath)
	start := time.Now()
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.target.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
		Metadata: map[string]string{
			"created": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload to S3").
			WithDetail("bucket", s.target.Bucket).
			WithDetail("key", key)
	}

	dest := "s3://" + s.target.Bucket + "/" + key
	s.log.Info("file uploaded",
		zap.String("file", localPath),
		zap.String("destination", dest),
		zap.Duration("duration", time.Since(start)))
	return dest, nil
}

func (s *s3Sink) Close() error { return nil }
