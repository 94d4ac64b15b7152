package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/services"
	"github.com/spanlab/span-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing spans from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "yaml", "json", or "auto"
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle existing spans
}

// Handle imports spans from a file on behalf of the principal.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, principal *entities.User, opts ImportOptions) (*services.ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	rawSpans, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(rawSpans) == 0 {
		return &services.ImportResult{}, nil
	}

	return h.service.Import(ctx, rawSpans, principal, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
	})
}
