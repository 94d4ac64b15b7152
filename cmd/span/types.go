package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spanlab/span-core/internal/domain/entities"
)

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage span and connection types",
		Long:  "List, add, or remove span types and connection types.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpanTypesList(cmd)
		},
	}

	spanTypes := &cobra.Command{
		Use:   "span",
		Short: "Manage span types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpanTypesList(cmd)
		},
	}
	spanTypes.AddCommand(newSpanTypesAddCmd(), newSpanTypesRemoveCmd())

	connectionTypes := &cobra.Command{
		Use:   "connection",
		Short: "Manage connection types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnectionTypesList(cmd)
		},
	}
	connectionTypes.AddCommand(newConnectionTypesAddCmd(), newConnectionTypesRemoveCmd(), newConnectionTypesDescribeCmd())

	cmd.AddCommand(spanTypes, connectionTypes)
	return cmd
}

func runSpanTypesList(cmd *cobra.Command) error {
	return withDeps(func(d *Deps) error {
		types, err := d.Types.HandleListSpanTypes(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing span types: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION\tDEFAULT")
		for i := range types {
			isDefault := ""
			if entities.IsDefaultSpanType(types[i].Name) {
				isDefault = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", types[i].Name, truncate(types[i].Description, 50), isDefault)
		}
		w.Flush()
		return nil
	})
}

func newSpanTypesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <description>",
		Short: "Add a span type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.Types.HandleAddSpanType(cmd.Context(), args[0], args[1]); err != nil {
					return fmt.Errorf("adding span type: %w", err)
				}
				fmt.Printf("Added span type: %s\n", args[0])
				return nil
			})
		},
	}
}

func newSpanTypesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a span type",
		Long:  "Removes a span type. Default types and types still in use cannot be removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.Types.HandleRemoveSpanType(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("removing span type: %w", err)
				}
				fmt.Printf("Removed span type: %s\n", args[0])
				return nil
			})
		},
	}
}

func runConnectionTypesList(cmd *cobra.Command) error {
	return withDeps(func(d *Deps) error {
		types, err := d.Types.HandleListConnectionTypes(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing connection types: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFORWARD\tINVERSE\tDEFAULT")
		for i := range types {
			isDefault := ""
			if entities.IsDefaultConnectionType(types[i].Name) {
				isDefault = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				types[i].Name, types[i].ForwardPredicate, types[i].InversePredicate, isDefault)
		}
		w.Flush()
		return nil
	})
}

func newConnectionTypesAddCmd() *cobra.Command {
	var forwardDesc, inverseDesc string

	cmd := &cobra.Command{
		Use:   "add <name> <forward-predicate> <inverse-predicate>",
		Short: "Add a connection type",
		Long: `Adds a connection type. The forward predicate reads parent-to-child,
the inverse child-to-parent.

Example:
  span types connection add mentorship "mentored" "was mentored by"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				ct := entities.ConnectionType{
					Name:               args[0],
					ForwardPredicate:   args[1],
					ForwardDescription: forwardDesc,
					InversePredicate:   args[2],
					InverseDescription: inverseDesc,
				}
				if err := d.Types.HandleAddConnectionType(cmd.Context(), ct); err != nil {
					return fmt.Errorf("adding connection type: %w", err)
				}
				fmt.Printf("Added connection type: %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&forwardDesc, "forward-description", "", "Description of the forward reading")
	cmd.Flags().StringVar(&inverseDesc, "inverse-description", "", "Description of the inverse reading")
	return cmd
}

func newConnectionTypesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a connection type",
		Long:  "Removes a connection type. Default types and types still referenced by connections cannot be removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.Types.HandleRemoveConnectionType(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("removing connection type: %w", err)
				}
				fmt.Printf("Removed connection type: %s\n", args[0])
				return nil
			})
		},
	}
}

func newConnectionTypesDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show a connection type's predicates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				ct, err := d.Types.HandleDescribeConnectionType(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("describing connection type: %w", err)
				}
				if ct == nil {
					return fmt.Errorf("connection type not found: %s", args[0])
				}
				fmt.Printf("%s\n", ct.Name)
				fmt.Printf("  forward: %s", ct.ForwardPredicate)
				if ct.ForwardDescription != "" {
					fmt.Printf(" (%s)", ct.ForwardDescription)
				}
				fmt.Println()
				fmt.Printf("  inverse: %s", ct.InversePredicate)
				if ct.InverseDescription != "" {
					fmt.Printf(" (%s)", ct.InverseDescription)
				}
				fmt.Println()
				return nil
			})
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
