package text

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func serine(t *testing.T) *core.Pattern {
	t.Helper()
	p, err := core.NewCalculator(nil, nil).NewPattern("Serine", core.Formula{"C": 3, "H": 7, "N": 1, "O": 3}, "", core.DefaultOptions())
	require.NoError(t, err)
	return p
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, serine(t), FormatTable))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Serine  C3H7NO3  charge 0\n"))
	assert.Contains(t, out, "105.042593")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, strings.ToLower(out), "peaks")
}

func TestWriteCSV(t *testing.T) {
	p := serine(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p, FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, p.Distribution.Len()+1)
	assert.Equal(t, []string{"name", "formula", "charge", "mass", "abundance"}, records[0])
	assert.Equal(t, "C3H7NO3", records[1][1])
	assert.True(t, strings.HasPrefix(records[1][3], "105.0425930"))
}

func TestWriteYAML(t *testing.T) {
	p := serine(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p, FormatYAML))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Serine", doc.Name)
	assert.Equal(t, "C3H7NO3", doc.Formula)
	assert.Equal(t, 10, doc.Options.Decimals)
	require.Len(t, doc.Peaks, p.Distribution.Len())
	assert.InDelta(t, 105.042593085, doc.Peaks[0].Mass, 1e-6)
	assert.InDelta(t, 105.042593085, doc.MonoisotopicMass, 1e-6)
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, serine(t), "xml")
	assert.ErrorContains(t, err, "unknown output format")
}
