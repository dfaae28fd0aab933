// Package sink uploads exported files to object storage or a local
// directory.
//
// Destinations are URLs:
//
//	s3://bucket/prefix   Amazon S3, credentials from the default AWS chain
//	gs://bucket/prefix   Google Cloud Storage, application default credentials
//	file:///some/dir     a local directory
package sink

import (
	"context"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

// Sink uploads local files to a destination
type Sink interface {
	// Upload copies the file at localPath and returns the destination URL
	Upload(ctx context.Context, localPath string) (string, error)
	Close() error
}

// Target is a parsed destination URL
type Target struct {
	Scheme string
	Bucket string
	// Prefix is the object key prefix, or the directory for file URLs
	Prefix string
}

// Key returns the object key for a local file
func (t Target) Key(localPath string) string {
	return path.Join(t.Prefix, filepath.Base(localPath))
}

// String renders the destination of a local file as a URL
func (t Target) String() string {
	if t.Scheme == "file" {
		return "file://" + t.Prefix
	}
	return t.Scheme + "://" + path.Join(t.Bucket, t.Prefix)
}

// ParseURL parses an s3://, gs:// or file:// destination
func ParseURL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid upload URL").
			WithDetail("url", raw)
	}

	switch u.Scheme {
	case "s3", "gs":
		if u.Host == "" {
			return Target{}, errors.New(errors.ErrorTypeConfig, "upload URL has no bucket").
				WithDetail("url", raw)
		}
		return Target{
			Scheme: u.Scheme,
			Bucket: u.Host,
			Prefix: strings.Trim(u.Path, "/"),
		}, nil
	case "file":
		dir := u.Path
		if u.Host != "" {
			// file://relative/dir
			dir = u.Host + u.Path
		}
		if dir == "" {
			return Target{}, errors.New(errors.ErrorTypeConfig, "file URL has no directory").
				WithDetail("url", raw)
		}
		return Target{Scheme: "file", Prefix: filepath.Clean(dir)}, nil
	}
	return Target{}, errors.New(errors.ErrorTypeConfig, "unsupported upload scheme").
		WithDetail("url", raw).
		WithDetail("scheme", u.Scheme)
}

// Options configures the cloud clients
type Options struct {
	// Region overrides the AWS region of the default configuration
	Region string
	// CredentialsFile is a GCS service account key file
	CredentialsFile string
	Logger          *zap.Logger
}

// New opens a sink for rawURL
func New(ctx context.Context, rawURL string, opts Options) (Sink, error) {
	t, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	switch t.Scheme {
	case "s3":
		return newS3Sink(ctx, t, opts)
	case "gs":
		return newGCSSink(ctx, t, opts)
	default:
		return newFileSink(t, opts)
	}
}

// contentType guesses the MIME type of an export from its extension
func contentType(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".parquet":
		return "application/x-parquet"
	case ".avro":
		return "application/x-avro"
	case ".arrow", ".ipc", ".feather":
		return "application/x-arrow"
	case ".jsonl", ".ndjson":
		return "application/x-ndjson"
	case ".dat", ".dump", ".tfs":
		return "text/plain"
	}
	if t := mime.TypeByExtension(filepath.Ext(localPath)); t != "" {
		return t
	}
	return "application/octet-stream"
}
