// Package lines reads text tables line by line with transparent
// decompression and line numbering.
package lines

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/ajitpratap0/sttools/pkg/compression"
	"github.com/ajitpratap0/sttools/pkg/errors"
)

const maxLineSize = 16 * 1024 * 1024

// Reader yields the lines of a possibly compressed file
type Reader struct {
	path   string
	file   *os.File
	dec    io.ReadCloser
	sc     *bufio.Scanner
	done   <-chan struct{}
	ctx    context.Context
	size   int64
	lineNo int
	err    error
}

// Open opens path for line reading. The compression algorithm is taken
// from the file extension.
func Open(ctx context.Context, path string) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is provided by the caller
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "file not found").
				WithDetail("file", path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("file", path)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat file").
			WithDetail("file", path)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, errors.New(errors.ErrorTypeFile, "path is a directory").
			WithDetail("file", path)
	}

	dec, err := compression.NewReader(f, compression.FromExtension(path))
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open compressed stream").
			WithDetail("file", path)
	}

	r := NewReader(ctx, path, dec)
	r.file = f
	r.dec = dec
	r.size = st.Size()
	return r, nil
}

// NewReader reads lines from src. name is used in error details.
func NewReader(ctx context.Context, name string, src io.Reader) *Reader {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{
		path: name,
		sc:   sc,
		ctx:  ctx,
		done: ctx.Done(),
	}
}

// Next advances to the next line. It returns false at the end of input,
// on a read error or when the context is cancelled; see Err.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	select {
	case <-r.done:
		r.err = r.ctx.Err()
		return false
	default:
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			r.err = errors.Wrap(err, errors.ErrorTypeFile, "failed to read line").
				WithDetail("file", r.path).
				WithDetail("line", r.lineNo+1)
		}
		return false
	}
	r.lineNo++
	return true
}

// Line returns the current line without its terminator. The string stays
// valid after the next call to Next.
func (r *Reader) Line() string {
	return r.sc.Text()
}

// LineNo returns the 1-based number of the current line
func (r *Reader) LineNo() int { return r.lineNo }

// Err returns the first error met by Next. A cancelled context is
// returned unwrapped.
func (r *Reader) Err() error { return r.err }

// Path returns the file path or stream name
func (r *Reader) Path() string { return r.path }

// Size returns the on-disk size of an opened file
func (r *Reader) Size() int64 { return r.size }

// Close releases the decompressor and the file
func (r *Reader) Close() error {
	var first error
	if r.dec != nil {
		first = r.dec.Close()
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
