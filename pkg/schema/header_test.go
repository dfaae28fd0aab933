package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

const dumpMarkers = "#%!"

func TestParseMetadataLine(t *testing.T) {
	meta, err := ParseMetadataLine("# DUMP, bez = IP5, number of particles = 2, s = 1.5", dumpMarkers, zaptest.NewLogger(t))
	require.NoError(t, err)

	format, ok := meta.Text(FormatKey)
	require.True(t, ok)
	assert.Equal(t, "DUMP", format)

	bez, ok := meta.Text("BEZ")
	require.True(t, ok)
	assert.Equal(t, "IP5", bez)

	n, ok := meta.Int("NUMBER_OF_PARTICLES")
	require.True(t, ok)
	assert.Equal(t, int64(2), n)

	s, ok := meta.Float("S")
	require.True(t, ok)
	assert.Equal(t, 1.5, s)

	assert.Equal(t, []string{"BEZ", "FORMAT", "NUMBER_OF_PARTICLES", "S"}, meta.Keys())
}

func TestParseMetadataLineSkipsPairsWithoutEquals(t *testing.T) {
	meta, err := ParseMetadataLine("  % DUMP, broken, KTRACK=3", dumpMarkers, nil)
	require.NoError(t, err)

	assert.Len(t, meta, 2)
	k, ok := meta.Int("KTRACK")
	require.True(t, ok)
	assert.Equal(t, int64(3), k)
}

func TestParseMetadataLineMissingMarker(t *testing.T) {
	_, err := ParseMetadataLine("DUMP, bez = IP5", dumpMarkers, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingMarker))
}

func TestParseHeaderLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		names  []string
		labels []string
	}{
		{
			name:   "whitespace",
			line:   "# ID TURN S[m] X[mm] XP[mrad]",
			names:  []string{"ID", "TURN", "S", "X", "XP"},
			labels: []string{"ID", "TURN", "S[m]", "X[mm]", "XP[mrad]"},
		},
		{
			name:   "detached units",
			line:   "#  x [mm]  y [mm] ktrack",
			names:  []string{"X", "Y", "KTRACK"},
			labels: []string{"x [mm]", "y [mm]", "ktrack"},
		},
		{
			name:   "commas",
			line:   "! ID, turn (count), e=E [MeV],",
			names:  []string{"ID", "TURN", "E"},
			labels: []string{"ID", "turn (count)", "e=E [MeV]"},
		},
		{
			name:   "strip characters",
			line:   "# dE/E sigma-z",
			names:  []string{"DEE", "SIGMAZ"},
			labels: []string{"dE/E", "sigma-z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeaderLine(tt.line, dumpMarkers)
			require.NoError(t, err)
			assert.Equal(t, tt.names, h.Names)
			assert.Equal(t, tt.labels, h.Labels)
		})
	}
}

func TestParseHeaderLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"no marker", "ID TURN", ErrMissingMarker},
		{"empty", "#   ", ErrInvalidHeader},
		{"empty name", "# ID, [mm]", ErrInvalidHeader},
		{"duplicate", "# ID x X", ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeaderLine(tt.line, dumpMarkers)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"x[mm]":          "X",
		"alias=name":     "NAME",
		"(a)b[c]d":       "BD",
		"  Part.ID  ":    "PARTID",
		"e_kin":          "E_KIN",
		"[only a unit]":  "",
		"n(1)=count (x)": "COUNT",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), "label %q", in)
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		token string
		want  Type
	}{
		{"7", TypeInt},
		{"-07", TypeInt},
		{"+3", TypeInt},
		{"1.0", TypeFloat},
		{"1e-3", TypeFloat},
		{"-2.5E+03", TypeFloat},
		{"IP5", TypeString},
		{"MQ.12R1.B1", TypeString},
		{"1.0D+00", TypeString},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferType(tt.token), "token %q", tt.token)
	}
}

func TestInferColumns(t *testing.T) {
	h := Header{
		Names:  []string{"ID", "TURN", "X", "BEZ"},
		Labels: []string{"ID", "TURN", "X[mm]", "bez"},
	}

	cols, err := InferColumns(h, []string{"1", "1", "0.5", "IP1"})
	require.NoError(t, err)
	require.Len(t, cols, 4)

	assert.Equal(t, Column{Name: "ID", Label: "ID", Type: TypeInt, Indexed: true}, cols[0])
	assert.Equal(t, TypeFloat, cols[2].Type)
	assert.False(t, cols[2].Indexed)
	assert.Equal(t, TypeString, cols[3].Type)
	assert.False(t, cols[3].Indexed)

	_, err = InferColumns(h, []string{"1", "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRowLength))
}

func TestMarkIndexed(t *testing.T) {
	cols := []Column{
		{Name: "ID", Type: TypeInt, Indexed: true},
		{Name: "BEZ", Type: TypeString},
		{Name: "X", Type: TypeFloat},
	}

	cols = MarkIndexed(cols, []string{"BEZ", "NOPE"}, zaptest.NewLogger(t))
	assert.True(t, cols[0].Indexed)
	assert.True(t, cols[1].Indexed)
	assert.False(t, cols[2].Indexed)
}
