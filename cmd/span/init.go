package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spanlab/span-core/internal/domain/services"
	"github.com/spanlab/span-core/internal/infrastructure/config"
	"github.com/spanlab/span-core/internal/infrastructure/store/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new span workspace",
		Long:  "Creates a .span directory with default configuration, the SQLite database, and the default type taxonomies.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.Exists(cwd) {
		return fmt.Errorf("span workspace already initialized in %s", cwd)
	}

	if err := config.WriteDefault(cwd); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	fmt.Printf("Created %s\n", config.ConfigFilePath(cwd))

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := config.EnsureDatabaseDir(cfg.SQLite.Path); err != nil {
		return err
	}

	store, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := services.NewSpanTypeService(store).LoadDefaults(ctx); err != nil {
		return fmt.Errorf("seeding span types: %w", err)
	}
	if err := services.NewConnectionTypeService(store).LoadDefaults(ctx); err != nil {
		return fmt.Errorf("seeding connection types: %w", err)
	}

	fmt.Printf("Created database: %s\n", cfg.SQLite.Path)
	fmt.Println("Run 'span users create <email> --name <name>' to add your first user.")
	return nil
}
