package sink

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

// fileSink copies files into a local directory
type fileSink struct {
	target Target
	log    *zap.Logger
}

func newFileSink(t Target, opts Options) (*fileSink, error) {
	st, err := os.Stat(t.Prefix)
	if err != nil || !st.IsDir() {
		return nil, errors.New(errors.ErrorTypeNotFound, "upload directory does not exist").
			WithDetail("dir", t.Prefix)
	}
	return &fileSink{target: t, log: opts.Logger}, nil
}

func (s *fileSink) Upload(ctx context.Context, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(localPath) //nolint:gosec // G304: path is an export written by this process
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeNotFound, "cannot open file for upload").
			WithDetail("file", localPath)
	}
	defer src.Close()

	dest := filepath.Join(s.target.Prefix, filepath.Base(localPath))
	dst, err := os.Create(dest) //nolint:gosec // G304: destination directory is configured by the user
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "cannot create destination file").
			WithDetail("file", dest)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to copy file").
			WithDetail("file", dest)
	}
	if err := dst.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to close destination file").
			WithDetail("file", dest)
	}

	s.log.Info("file copied", zap.String("file", localPath), zap.String("destination", dest))
	return "file://" + dest, nil
}

func (s *fileSink) Close() error { return nil }
