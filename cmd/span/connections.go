package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spanlab/span-core/internal/domain/entities"
)

func newConnectCmd() *cobra.Command {
	var access string

	cmd := &cobra.Command{
		Use:   "connect <parent-slug> <type> <child-slug>",
		Short: "Connect two spans",
		Long: `Creates a directed, typed connection between two spans. The parent is
the subject of the forward reading, the child the object. A narrating
span of type "connection" is created alongside.

Examples:
  span connect ada-lovelace residence london --as u1
  span connect ada-lovelace employment analytical-engine-society --as u1 --access public`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				info, err := d.Connections.HandleCreate(cmd.Context(),
					args[0], args[1], args[2], entities.AccessLevel(access), d.Principal)
				if err != nil {
					return fmt.Errorf("creating connection: %w", err)
				}
				fmt.Printf("Created connection: %s\n", info.Connection.ID)
				fmt.Printf("  %s\n", info.Narration)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&access, "access", string(entities.AccessPrivate), "Access level of the narrating span")
	cmd.AddCommand(newConnectDeleteCmd())
	return cmd
}

func newConnectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <connection-id>",
		Short: "Delete a connection",
		Long:  "Deletes a connection and its narrating span.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.Connections.HandleDelete(cmd.Context(), args[0], d.Principal); err != nil {
					return fmt.Errorf("deleting connection: %w", err)
				}
				fmt.Printf("Deleted connection: %s\n", args[0])
				return nil
			})
		},
	}
}

func newConnectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connections <slug>",
		Short: "List a span's connections",
		Long:  "Lists every visible connection touching the span, narrated from its point of view.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				infos, err := d.Connections.HandleList(cmd.Context(), args[0], d.Principal)
				if err != nil {
					return fmt.Errorf("listing connections: %w", err)
				}
				if len(infos) == 0 {
					fmt.Println("No connections found.")
					return nil
				}
				for i := range infos {
					fmt.Printf("%s  [%s] %s\n", infos[i].Connection.ID, infos[i].Connection.TypeID, infos[i].Narration)
				}
				return nil
			})
		},
	}
}
