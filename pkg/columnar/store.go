package columnar

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/schema"
	stringpool "github.com/ajitpratap0/sttools/pkg/strings"
)

// BuilderOptions controls row validation in a Builder
type BuilderOptions struct {
	// Lenient skips rows with a wrong token count with a warning instead
	// of failing
	Lenient bool
	// Skipped counts rows a reader dropped before it could create the
	// builder
	Skipped int
	Logger  *zap.Logger
}

// Builder accumulates raw rows of one file and turns them into a Table
type Builder struct {
	source  string
	columns []schema.Column
	opts    BuilderOptions
	log     *zap.Logger

	raw     [][]string
	lines   []int
	indices map[string]*Index
	intern  *stringpool.Intern

	skipped   int
	finalized bool
}

// NewBuilder creates a builder for the given column layout. Columns with
// Indexed set get an inverted index.
func NewBuilder(source string, columns []schema.Column, opts BuilderOptions) *Builder {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	b := &Builder{
		source:  source,
		columns: append([]schema.Column(nil), columns...),
		opts:    opts,
		log:     log,
		raw:     make([][]string, len(columns)),
		indices: make(map[string]*Index),
		intern:  stringpool.NewIntern(),
		skipped: opts.Skipped,
	}
	for _, col := range columns {
		if col.Indexed {
			b.indices[col.Name] = NewIndex(col.Name)
		}
	}
	return b
}

// Append adds one data row read from lineNo. Row length is checked against
// the column count: lenient builders log and skip a mismatching row,
// strict builders return ErrRowLength.
func (b *Builder) Append(lineNo int, tokens []string) error {
	if b.finalized {
		return errors.Wrap(ErrFinalized, errors.ErrorTypeInternal, "cannot append row").
			WithDetail("file", b.source).
			WithDetail("line", lineNo)
	}

	if len(tokens) != len(b.columns) {
		if b.opts.Lenient {
			b.skipped++
			b.log.Warn("skipping line with an unexpected number of elements",
				zap.String("file", b.source),
				zap.Int("line", lineNo),
				zap.Int("expected", len(b.columns)),
				zap.Int("got", len(tokens)))
			return nil
		}
		return errors.Wrap(ErrRowLength, errors.ErrorTypeFormat, "row has an unexpected number of tokens").
			WithDetail("file", b.source).
			WithDetail("line", lineNo).
			WithDetail("expected", len(b.columns)).
			WithDetail("got", len(tokens))
	}

	row := len(b.lines)
	for i, tok := range tokens {
		col := b.columns[i]
		if col.Type == schema.TypeString || col.Indexed {
			tok = b.intern.Get(tok)
		}
		b.raw[i] = append(b.raw[i], tok)
		if ix, ok := b.indices[col.Name]; ok {
			ix.Add(tok, row)
		}
	}
	b.lines = append(b.lines, lineNo)
	return nil
}

// Rows returns the number of accepted rows
func (b *Builder) Rows() int { return len(b.lines) }

// Skipped returns the number of rows dropped in lenient mode
func (b *Builder) Skipped() int { return b.skipped }

// Columns returns the column layout
func (b *Builder) Columns() []schema.Column {
	return append([]schema.Column(nil), b.columns...)
}

// Finalize converts the raw tokens into typed columns and returns the
// table. Any token that does not parse as its column type fails the table
// with ErrConversion. The builder rejects further use afterwards.
func (b *Builder) Finalize(meta schema.Metadata) (*Table, error) {
	if b.finalized {
		return nil, errors.Wrap(ErrFinalized, errors.ErrorTypeInternal, "builder finalized twice").
			WithDetail("file", b.source)
	}
	b.finalized = true

	data := make([]Column, len(b.columns))
	for i, col := range b.columns {
		c, row, err := newColumnOfType(col.Type, b.raw[i])
		if err != nil {
			return nil, errors.Wrap(ErrConversion, errors.ErrorTypeData, "value does not match the column type").
				WithDetail("file", b.source).
				WithDetail("line", b.lines[row]).
				WithDetail("column", col.Name).
				WithDetail("type", col.Type.String()).
				WithDetail("token", b.raw[i][row])
		}
		data[i] = c
		b.raw[i] = nil
	}

	if meta == nil {
		meta = schema.Metadata{}
	}

	t := &Table{
		frame: frame{
			source:  b.source,
			columns: b.columns,
			data:    data,
			rows:    len(b.lines),
			meta:    meta,
		},
		indices: b.indices,
		skipped: b.skipped,
	}
	b.intern.Clear()
	return t, nil
}
