package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses spans from a JSON array.
type JSONParser struct{}

// Parse parses spans from JSON.
func (p *JSONParser) Parse(r io.Reader) ([]RawSpan, error) {
	var spans []RawSpan
	if err := json.NewDecoder(r).Decode(&spans); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	for i := range spans {
		spans[i].Index = i + 1
	}
	return spans, nil
}
