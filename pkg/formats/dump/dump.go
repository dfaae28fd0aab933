// Package dump loads SixTrack-style columnar dump files.
//
// A dump file starts with a block of marker lines. With two or more, the
// first holds the metadata ("# DUMP, bez = IP5, ...") and the last the
// column header. With a single marker line it is taken as the column header
// and the format is recorded as Unknown. Column types are inferred from the
// first data line with one token per column; in lenient mode earlier lines
// with another token count are skipped like any other short or long row.
// Later comment lines are skipped anywhere.
package dump

import (
	"context"
	"io"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/formats/lines"
	"github.com/ajitpratap0/sttools/pkg/pool"
	"github.com/ajitpratap0/sttools/pkg/schema"
)

type headerLine struct {
	text   string
	lineNo int
}

// Load reads a dump file into a table
func Load(ctx context.Context, path string, cfg config.LoaderConfig, log *zap.Logger) (*columnar.Table, error) {
	r, err := lines.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return load(r, cfg, log)
}

// Parse reads dump data from src. name identifies the stream in errors.
func Parse(ctx context.Context, name string, src io.Reader, cfg config.LoaderConfig, log *zap.Logger) (*columnar.Table, error) {
	return load(lines.NewReader(ctx, name, src), cfg, log)
}

func load(r *lines.Reader, cfg config.LoaderConfig, log *zap.Logger) (*columnar.Table, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	file := r.Path()
	log = log.With(zap.String("file", file))

	var (
		header  []headerLine
		meta    schema.Metadata
		h       *schema.Header
		builder *columnar.Builder
		leading int
	)

	tokens := pool.GetTokens()
	defer pool.PutTokens(tokens)

	for r.Next() {
		line := strings.TrimLeftFunc(r.Line(), unicode.IsSpace)
		if line == "" {
			continue
		}

		if builder == nil {
			if cfg.IsComment(line) {
				if h == nil {
					header = append(header, headerLine{text: line, lineNo: r.LineNo()})
				}
				continue
			}

			if h == nil {
				var err error
				meta, h, err = parseHeader(header, cfg, log)
				if err != nil {
					if e, ok := err.(*errors.Error); ok {
						e.WithDetail("file", file).WithDetail("line", r.LineNo())
					}
					return nil, err
				}
			}

			*tokens = pool.AppendFields((*tokens)[:0], line)
			if cfg.LenientRowLength && len(*tokens) != len(h.Names) {
				leading++
				log.Warn("skipping line with an unexpected number of elements",
					zap.Int("line", r.LineNo()),
					zap.Int("expected", len(h.Names)),
					zap.Int("got", len(*tokens)))
				continue
			}

			cols, err := schema.InferColumns(*h, *tokens)
			if err != nil {
				if e, ok := err.(*errors.Error); ok {
					e.WithDetail("file", file).WithDetail("line", r.LineNo())
				}
				return nil, err
			}
			builder = columnar.NewBuilder(file, schema.MarkIndexed(cols, cfg.IndexColumns, log), columnar.BuilderOptions{
				Lenient: cfg.LenientRowLength,
				Skipped: leading,
				Logger:  log,
			})
			if err := builder.Append(r.LineNo(), *tokens); err != nil {
				return nil, err
			}
			continue
		}

		if cfg.IsComment(line) {
			continue
		}
		*tokens = pool.AppendFields((*tokens)[:0], line)
		if err := builder.Append(r.LineNo(), *tokens); err != nil {
			return nil, err
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	if builder == nil {
		return nil, errors.Wrap(schema.ErrNoData, errors.ErrorTypeFormat, "could not parse file").
			WithDetail("file", file).
			WithDetail("header_lines", len(header))
	}

	table, err := builder.Finalize(meta)
	if err != nil {
		return nil, err
	}

	log.Info("dump file loaded",
		zap.Int("rows", table.Rows()),
		zap.Int("skipped", table.Skipped()),
		zap.Int("columns", len(table.Columns())),
		zap.Strings("indexed", table.IndexedColumns()))
	return table, nil
}

// parseHeader interprets the header block: the first of two or more
// marker lines holds the metadata and the last one the column header
func parseHeader(header []headerLine, cfg config.LoaderConfig, log *zap.Logger) (schema.Metadata, *schema.Header, error) {
	if len(header) == 0 {
		return nil, nil, errors.Wrap(schema.ErrMissingMarker, errors.ErrorTypeFormat, "no header line before the first data line")
	}
	log.Debug("header block read", zap.Int("header_lines", len(header)))

	var meta schema.Metadata
	if len(header) >= 2 {
		var err error
		meta, err = schema.ParseMetadataLine(header[0].text, cfg.CommentMarkers, log)
		if err != nil {
			return nil, nil, err
		}
	} else {
		log.Warn("found no recognised metadata in header")
		meta = schema.Metadata{schema.FormatKey: schema.StringScalar(schema.UnknownFormat)}
	}

	last := header[len(header)-1]
	h, err := schema.ParseHeaderLine(last.text, cfg.CommentMarkers)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.WithDetail("header_line", last.lineNo)
		}
		return nil, nil, err
	}
	return meta, &h, nil
}
