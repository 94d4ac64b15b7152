// Package parsers provides parsers for importing spans from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawDate is a span date parsed from an external source before validation.
type RawDate struct {
	Year  int `json:"year,omitempty" yaml:"year,omitempty"`
	Month int `json:"month,omitempty" yaml:"month,omitempty"`
	Day   int `json:"day,omitempty" yaml:"day,omitempty"`
}

// RawSpan represents a span parsed from an external source before validation.
type RawSpan struct {
	Name        string            `json:"name" yaml:"name"`
	Type        string            `json:"type" yaml:"type"`
	AccessLevel string            `json:"access_level,omitempty" yaml:"access_level,omitempty"`
	Start       *RawDate          `json:"start,omitempty" yaml:"start,omitempty"`
	End         *RawDate          `json:"end,omitempty" yaml:"end,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Notes       string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	Subtype     string            `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Index       int               `json:"-" yaml:"-"` // Position in source document (set by parser)
}

// Parser defines the interface for parsing spans from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawSpan, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "yaml", "json".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return &YAMLParser{}
	case "json":
		return &JSONParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".yaml", ".yml":
		return &YAMLParser{}
	case ".json":
		return &JSONParser{}
	default:
		return nil
	}
}
