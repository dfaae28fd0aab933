package schema

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/errors"
	stringpool "github.com/ajitpratap0/sttools/pkg/strings"
)

// FormatKey holds the bare format name from the first metadata token
const FormatKey = "FORMAT"

// UnknownFormat is stored under FormatKey when a file has no metadata line
const UnknownFormat = "Unknown"

var (
	parenGroup   = regexp.MustCompile(`\(.*?\)`)
	bracketGroup = regexp.MustCompile(`\[.*?\]`)
	aliasPrefix  = regexp.MustCompile(`^.*?=`)
	invalidChars = regexp.MustCompile(`[^0-9A-Z_]+`)
)

// Header is a parsed column header line
type Header struct {
	Names  []string
	Labels []string
}

// stripMarker removes leading blanks and one marker character
func stripMarker(line, markers string) (string, error) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	if !stringpool.HasMarker(line, markers) {
		return "", errors.Wrap(ErrMissingMarker, errors.ErrorTypeFormat, "line does not start with a marker").
			WithDetail("markers", markers)
	}
	return strings.TrimSpace(line[1:]), nil
}

// ParseMetadataLine parses "<marker> FORMAT, key = value, ..." into typed
// metadata. Keys are upper-cased with inner blanks turned into underscores.
// Pairs without '=' are logged and skipped.
func ParseMetadataLine(line, markers string, log *zap.Logger) (Metadata, error) {
	body, err := stripMarker(line, markers)
	if err != nil {
		return nil, err
	}

	bits := strings.Split(body, ",")
	meta := Metadata{FormatKey: StringScalar(strings.TrimSpace(bits[0]))}

	for _, bit := range bits[1:] {
		key, value, ok := strings.Cut(bit, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			if log != nil {
				log.Warn("skipping metadata entry without key", zap.String("entry", strings.TrimSpace(bit)))
			}
			continue
		}
		key = strings.ReplaceAll(strings.ToUpper(key), " ", "_")
		meta[key] = InferScalar(strings.TrimSpace(value))
	}

	return meta, nil
}

// ParseHeaderLine parses a column header line. Tokens are separated by
// commas when the line has any, otherwise by blanks. Blanks inside (...) or
// [...] do not split, and a bracketed group standing on its own is kept with
// the preceding token.
func ParseHeaderLine(line, markers string) (Header, error) {
	body, err := stripMarker(line, markers)
	if err != nil {
		return Header{}, err
	}

	var tokens []string
	if strings.Contains(body, ",") {
		for _, tok := range splitOutsideGroups(body, func(r rune) bool { return r == ',' }) {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	} else {
		tokens = mergeUnitTokens(splitOutsideGroups(body, unicode.IsSpace))
	}

	if len(tokens) == 0 {
		return Header{}, errors.Wrap(ErrInvalidHeader, errors.ErrorTypeFormat, "header has no columns")
	}

	h := Header{
		Names:  make([]string, len(tokens)),
		Labels: tokens,
	}
	seen := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		name := SanitizeName(tok)
		if name == "" {
			return Header{}, errors.Wrap(ErrInvalidHeader, errors.ErrorTypeFormat, "column name is empty").
				WithDetail("label", tok).
				WithDetail("position", i)
		}
		if prev, dup := seen[name]; dup {
			return Header{}, errors.Wrap(ErrInvalidHeader, errors.ErrorTypeFormat, "duplicate column name").
				WithDetail("column", name).
				WithDetail("positions", strconv.Itoa(prev)+","+strconv.Itoa(i))
		}
		seen[name] = i
		h.Names[i] = name
	}

	return h, nil
}

// SanitizeName turns a header label into a column identifier: unit groups
// and an "alias=" prefix are removed, the rest is upper-cased and reduced
// to [A-Z0-9_].
func SanitizeName(label string) string {
	name := parenGroup.ReplaceAllString(label, "")
	name = bracketGroup.ReplaceAllString(name, "")
	name = aliasPrefix.ReplaceAllString(name, "")
	name = strings.ToUpper(strings.TrimSpace(name))
	return invalidChars.ReplaceAllString(name, "")
}

// splitOutsideGroups splits s at runes matching sep that are not inside
// parentheses or brackets. Empty fields are dropped.
func splitOutsideGroups(s string, sep func(rune) bool) []string {
	var (
		out   []string
		depth int
		start = -1
	)

	for i, r := range s {
		switch {
		case r == '(' || r == '[':
			depth++
		case (r == ')' || r == ']') && depth > 0:
			depth--
		case depth == 0 && sep(r):
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// mergeUnitTokens attaches a standalone "[unit]" or "(unit)" token to the
// token before it.
func mergeUnitTokens(tokens []string) []string {
	out := tokens[:0]
	for _, tok := range tokens {
		if len(out) > 0 && (tok[0] == '[' || tok[0] == '(') {
			out[len(out)-1] += " " + tok
			continue
		}
		out = append(out, tok)
	}
	return out
}

// InferType decides a column type from a token: int, then float, then
// string.
func InferType(token string) Type {
	return InferScalar(token).Type
}

// InferColumns builds column descriptors from a header and the first data
// row. Integer columns are marked for indexing.
func InferColumns(h Header, firstRow []string) ([]Column, error) {
	if len(firstRow) != len(h.Names) {
		return nil, errors.Wrap(ErrRowLength, errors.ErrorTypeFormat, "first data row does not match the header").
			WithDetail("columns", len(h.Names)).
			WithDetail("tokens", len(firstRow))
	}

	cols := make([]Column, len(h.Names))
	for i, name := range h.Names {
		t := InferType(firstRow[i])
		cols[i] = Column{
			Name:    name,
			Label:   h.Labels[i],
			Type:    t,
			Indexed: t == TypeInt,
		}
	}
	return cols, nil
}

// MarkIndexed sets Indexed on the named columns in addition to the ones
// already flagged. Unknown names are logged and ignored.
func MarkIndexed(cols []Column, names []string, log *zap.Logger) []Column {
	for _, name := range names {
		found := false
		for i := range cols {
			if cols[i].Name == name {
				cols[i].Indexed = true
				found = true
				break
			}
		}
		if !found && log != nil {
			log.Warn("cannot index unknown column", zap.String("column", name))
		}
	}
	return cols
}
