package parsers

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLParser parses spans from YAML. The document is either a top-level
// sequence of spans or a mapping with a "spans" key.
type YAMLParser struct{}

// yamlDocument is the enveloped form of a span document.
type yamlDocument struct {
	Spans []RawSpan `yaml:"spans"`
}

// Parse parses spans from YAML.
func (p *YAMLParser) Parse(r io.Reader) ([]RawSpan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var spans []RawSpan
	if err := yaml.Unmarshal(data, &spans); err != nil {
		var doc yamlDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		spans = doc.Spans
	}

	for i := range spans {
		spans[i].Index = i + 1
	}
	return spans, nil
}
