package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"id", "email"},
		Rows: []map[string]string{
			{"id": "sub-1", "email": "a@example.com"},
			{"id": "sub-2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "id,email\nsub-1,a@example.com\nsub-2,\n", string(out))
}

func TestCSVExporterEscapesFormulas(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"value"},
		Rows: []map[string]string{
			{"value": "=HYPERLINK(\"http://evil\")"},
			{"value": "+1"},
			{"value": "@SUM(A1)"},
			{"value": "plain"},
		},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, `"'=HYPERLINK(""http://evil"")"`, lines[1])
	assert.Equal(t, "'+1", lines[2])
	assert.Equal(t, "'@SUM(A1)", lines[3])
	assert.Equal(t, "plain", lines[4])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Sheet{
		Title:    "Submission review",
		Subtitle: "sub-1",
		Sections: []Section{
			{Heading: "Applicant", Fields: []Field{{Label: "Name", Value: "Ada Lovelace"}, {Label: "Phone"}}},
			{Heading: "Relay", Fields: []Field{{Label: "Response", Value: strings.Repeat("long body ", 60)}}},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresSections(t *testing.T) {
	_, err := NewPDFExporter().Render(Sheet{Title: "empty"})
	assert.Error(t, err)
}
