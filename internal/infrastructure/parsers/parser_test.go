package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLParserSequence(t *testing.T) {
	input := `
- name: Ada Lovelace
  type: person
  access_level: public
  start:
    year: 1815
    month: 12
    day: 10
- name: Alan Turing
  type: person
`
	spans, err := (&YAMLParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, "Ada Lovelace", spans[0].Name)
	assert.Equal(t, "public", spans[0].AccessLevel)
	require.NotNil(t, spans[0].Start)
	assert.Equal(t, 1815, spans[0].Start.Year)
	assert.Equal(t, 1, spans[0].Index)
	assert.Equal(t, 2, spans[1].Index)
}

func TestYAMLParserEnvelope(t *testing.T) {
	input := `
spans:
  - name: Bletchley Park
    type: place
    subtype: photo
    metadata:
      url: https://example.org/bp.jpg
`
	spans, err := (&YAMLParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "Bletchley Park", spans[0].Name)
	assert.Equal(t, "photo", spans[0].Subtype)
	assert.Equal(t, "https://example.org/bp.jpg", spans[0].Metadata["url"])
}

func TestYAMLParserInvalid(t *testing.T) {
	_, err := (&YAMLParser{}).Parse(strings.NewReader("{not: [valid"))
	assert.Error(t, err)
}

func TestJSONParser(t *testing.T) {
	input := `[{"name": "Ada Lovelace", "type": "person", "end": {"year": 1852}}]`
	spans, err := (&JSONParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, 1852, spans[0].End.Year)
}

func TestParserSelection(t *testing.T) {
	assert.IsType(t, &YAMLParser{}, ForFile("people.yaml"))
	assert.IsType(t, &YAMLParser{}, ForFile("people.YML"))
	assert.IsType(t, &JSONParser{}, ForFile("people.json"))
	assert.Nil(t, ForFile("people.csv"))

	assert.IsType(t, &YAMLParser{}, ForFormat("yaml"))
	assert.IsType(t, &JSONParser{}, ForFormat("JSON"))
	assert.Nil(t, ForFormat("xml"))
}
