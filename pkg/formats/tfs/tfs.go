// Package tfs loads MadX Table File System (TFS) files.
//
// A TFS file has "@ NAME %type value" metadata lines, one "*" line with the
// column names, one "$" line with the column types and then the data rows.
// Type suffixes d, e and s select integer, float and string. Integer
// columns are indexed.
package tfs

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
	"github.com/ajitpratap0/sttools/pkg/schema"
	stringpool "github.com/ajitpratap0/sttools/pkg/strings"
)

// ErrUnknownType means a metadata or column type has an unknown suffix
var ErrUnknownType = errors.Sentinel(errors.ErrorTypeFormat, "unknown TFS type")

// ErrOutOfOrder means a structural line appeared after the section it
// belongs to
var ErrOutOfOrder = errors.Sentinel(errors.ErrorTypeFormat, "structural line out of order")

const (
	metaMarker  = '@'
	namesMarker = '*'
	typesMarker = '$'
)

type state int

const (
	stateStart state = iota
	stateMetadata
	stateHeader
	stateData
)

// Table is a loaded TFS file
type Table struct {
	*columnar.Table

	size      int64
	metaOrder []string
	metaTypes map[string]string
	colTypes  []string
}

// Load reads a TFS file
func Load(ctx context.Context, path string, cfg config.LoaderConfig, log *zap.Logger) (*Table, error) {
	r, err := lines.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t, err := load(r, cfg, log)
	if err != nil {
		return nil, err
	}
	t.size = r.Size()
	return t, nil
}

// Parse reads TFS data from src. name identifies the stream in errors.
func Parse(ctx context.Context, name string, src io.Reader, cfg config.LoaderConfig, log *zap.Logger) (*Table, error) {
	return load(lines.NewReader(ctx, name, src), cfg, log)
}

type parser struct {
	cfg  config.LoaderConfig
	log  *zap.Logger
	file string

	state     state
	meta      schema.Metadata
	metaOrder []string
	metaTypes map[string]string
	names     []string
	types     []string
	builder   *columnar.Builder
}

func load(r *lines.Reader, cfg config.LoaderConfig, log *zap.Logger) (*Table, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &parser{
		cfg:       cfg,
		log:       log.With(zap.String("file", r.Path())),
		file:      r.Path(),
		meta:      schema.Metadata{},
		metaTypes: make(map[string]string),
	}

	for r.Next() {
		line := strings.TrimLeftFunc(r.Line(), unicode.IsSpace)
		if line == "" || cfg.IsComment(line) {
			continue
		}
		if err := p.handle(line, r.LineNo()); err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.WithDetail("file", p.file).WithDetail("line", r.LineNo())
			}
			return nil, err
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	if p.builder == nil {
		if err := p.startData(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "incomplete TFS header").
				WithDetail("file", p.file)
		}
	}

	table, err := p.builder.Finalize(p.meta)
	if err != nil {
		return nil, err
	}

	p.log.Info("tfs file loaded",
		zap.Int("rows", table.Rows()),
		zap.Int("skipped", table.Skipped()),
		zap.Int("columns", len(p.names)),
		zap.Int("metadata", len(p.metaOrder)))

	return &Table{
		Table:     table,
		metaOrder: p.metaOrder,
		metaTypes: p.metaTypes,
		colTypes:  p.types,
	}, nil
}

func (p *parser) handle(line string, lineNo int) error {
	switch line[0] {
	case metaMarker:
		if p.state > stateMetadata {
			return errors.Wrap(ErrOutOfOrder, errors.ErrorTypeFormat, "metadata line after the column header")
		}
		p.state = stateMetadata
		return p.parseMetadata(line)

	case namesMarker:
		if p.state > stateMetadata || p.names != nil {
			return errors.Wrap(ErrOutOfOrder, errors.ErrorTypeFormat, "repeated column names line")
		}
		p.state = stateHeader
		return p.parseNames(line)

	case typesMarker:
		if p.names == nil || p.types != nil {
			return errors.Wrap(ErrOutOfOrder, errors.ErrorTypeFormat, "column types line must follow the names line once")
		}
		return p.parseTypes(line)
	}

	if p.builder == nil {
		if err := p.startData(); err != nil {
			return err
		}
	}
	return p.appendRow(line, lineNo)
}

// parseMetadata reads "@ NAME %type value"
func (p *parser) parseMetadata(line string) error {
	name, rest := cutField(line[1:])
	typ, value := cutField(rest)
	value = strings.TrimSpace(value)
	if name == "" || typ == "" {
		return errors.New(errors.ErrorTypeFormat, "malformed metadata line")
	}

	t, err := parseType(typ)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "cannot read metadata").
			WithDetail("name", name)
	}

	if t == schema.TypeString {
		value = stringpool.StripQuotes(value)
	}
	s, err := schema.ParseScalar(value, t)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "metadata value does not match its type").
			WithDetail("name", name).
			WithDetail("type", typ)
	}

	if _, dup := p.meta[name]; !dup {
		p.metaOrder = append(p.metaOrder, name)
	}
	p.meta[name] = s
	p.metaTypes[name] = typ
	return nil
}

func (p *parser) parseNames(line string) error {
	names := strings.Fields(line[1:])
	if len(names) == 0 {
		return errors.Wrap(schema.ErrInvalidHeader, errors.ErrorTypeFormat, "column names line is empty")
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return errors.Wrap(schema.ErrInvalidHeader, errors.ErrorTypeFormat, "duplicate column name").
				WithDetail("column", n)
		}
		seen[n] = true
	}
	p.names = names
	return nil
}

func (p *parser) parseTypes(line string) error {
	types := strings.Fields(line[1:])
	if len(types) != len(p.names) {
		return errors.Wrap(schema.ErrInvalidHeader, errors.ErrorTypeFormat, "column types do not match column names").
			WithDetail("names", len(p.names)).
			WithDetail("types", len(types))
	}
	for i, typ := range types {
		if _, err := parseType(typ); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFormat, "cannot read column type").
				WithDetail("column", p.names[i])
		}
	}
	p.types = types
	return nil
}

// startData builds the column layout once both header lines were read
func (p *parser) startData() error {
	if p.names == nil || p.types == nil {
		return errors.Wrap(schema.ErrMissingMarker, errors.ErrorTypeFormat, "data before the * and $ lines")
	}

	cols := make([]schema.Column, len(p.names))
	for i, name := range p.names {
		t, _ := parseType(p.types[i])
		cols[i] = schema.Column{
			Name:    name,
			Label:   name,
			Type:    t,
			Indexed: t == schema.TypeInt,
		}
	}
	cols = schema.MarkIndexed(cols, p.cfg.IndexColumns, p.log)

	p.builder = columnar.NewBuilder(p.file, cols, columnar.BuilderOptions{
		Lenient: p.cfg.LenientRowLength,
		Logger:  p.log,
	})
	p.state = stateData
	return nil
}

func (p *parser) appendRow(line string, lineNo int) error {
	tokens := SplitQuoted(line)
	if len(tokens) == len(p.types) {
		for i, typ := range p.types {
			if typ[len(typ)-1] == 's' {
				tokens[i] = stringpool.StripQuotes(tokens[i])
			}
		}
	}
	return p.builder.Append(lineNo, tokens)
}

// cutField returns the first blank-separated field of s and the remainder
func cutField(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// parseType maps a TFS type such as %le, %d or %20s to a column type
func parseType(typ string) (schema.Type, error) {
	if len(typ) >= 2 && typ[0] == '%' {
		switch typ[len(typ)-1] {
		case 'd':
			return schema.TypeInt, nil
		case 'e', 'f':
			return schema.TypeFloat, nil
		case 's':
			return schema.TypeString, nil
		}
	}
	return schema.TypeString, errors.Wrap(ErrUnknownType, errors.ErrorTypeFormat, "unsupported type").
		WithDetail("type", typ)
}

// SplitQuoted splits a data line at blanks outside double or single
// quotes. Quotes are kept in the tokens.
func SplitQuoted(line string) []string {
	var (
		tokens []string
		quote  byte
		start  = -1
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			continue
		case c == '"' || c == '\'':
			quote = c
		case c == ' ' || c == '\t' || c == '\r':
			if start >= 0 {
				tokens = append(tokens, line[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, line[start:])
	}
	return tokens
}

// Size returns the on-disk file size, or 0 for parsed streams
func (t *Table) Size() int64 { return t.size }

// MetadataNames returns the metadata names in file order
func (t *Table) MetadataNames() []string {
	return append([]string(nil), t.metaOrder...)
}

// ColumnTypes returns the raw "$" line types in column order
func (t *Table) ColumnTypes() []string {
	return append([]string(nil), t.colTypes...)
}
