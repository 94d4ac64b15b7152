package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spanlab/span-core/internal/application/handlers"
	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/services"
	"github.com/spanlab/span-core/internal/infrastructure/config"
	"github.com/spanlab/span-core/internal/infrastructure/musicbrainz"
	"github.com/spanlab/span-core/internal/infrastructure/store/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config      *config.Config
	Principal   *entities.User
	Spans       *handlers.SpanHandler
	Connections *handlers.ConnectionHandler
	Types       *handlers.TypeHandler
	Users       *handlers.UserHandler
	Import      *handlers.ImportHandler
	Export      *handlers.ExportHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	store           *sqlite.Repository
	spanService     *services.SpanService
	spanTypes       *services.SpanTypeService
	connectionTypes *services.ConnectionTypeService
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level
// components.
func withInternalDeps(fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	spanTypes := services.NewSpanTypeService(store)
	connectionTypes := services.NewConnectionTypeService(store)
	if err := spanTypes.LoadDefaults(ctx); err != nil {
		return fmt.Errorf("seeding span types: %w", err)
	}
	if err := connectionTypes.LoadDefaults(ctx); err != nil {
		return fmt.Errorf("seeding connection types: %w", err)
	}

	recorder := services.NewVersionRecorder(store)
	spanService := services.NewSpanService(store, recorder, spanTypes)
	access := services.NewAccessResolver(store)
	projections := services.NewProjectionService(store)
	connectionService := services.NewConnectionService(store, spanService, connectionTypes)
	userService := services.NewUserService(store, spanService)
	importService := services.NewImportService(spanService, spanTypes)

	principal, err := resolvePrincipal(ctx, store)
	if err != nil {
		return err
	}

	deps := &internalDeps{
		Deps: Deps{
			Config:      cfg,
			Principal:   principal,
			Spans:       handlers.NewSpanHandler(spanService, access, projections, recorder),
			Connections: handlers.NewConnectionHandler(connectionService, projections, spanService, access),
			Types:       handlers.NewTypeHandler(spanTypes, connectionTypes),
			Users:       handlers.NewUserHandler(userService),
			Import:      handlers.NewImportHandler(importService),
			Export:      handlers.NewExportHandler(spanService, access, projections),
		},
		store:           store,
		spanService:     spanService,
		spanTypes:       spanTypes,
		connectionTypes: connectionTypes,
	}

	return fn(deps)
}

// withMusicHandler builds the rate-limited MusicBrainz client on top of the
// usual dependencies.
func withMusicHandler(fn func(*handlers.MusicHandler, *entities.User) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		client, err := musicbrainz.NewClient(d.Config.MusicBrainz)
		if err != nil {
			return fmt.Errorf("creating musicbrainz client: %w", err)
		}
		handler := handlers.NewMusicHandler(client, d.spanService)
		return fn(handler, d.Principal)
	})
}

// resolvePrincipal maps the --as flag to a user. An empty flag is a guest.
func resolvePrincipal(ctx context.Context, store *sqlite.Repository) (*entities.User, error) {
	if globalAs == "" {
		return nil, nil
	}
	user, err := store.FindUserByID(ctx, globalAs)
	if err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("unknown user: %s", globalAs)
	}
	return user, nil
}
