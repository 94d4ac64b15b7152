package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export visible spans as YAML",
		Long: `Writes every span the acting user may see, plus the connections between
them, as a YAML document that can be imported back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				out := os.Stdout
				if output != "" {
					file, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("creating output file: %w", err)
					}
					defer file.Close()
					out = file
				}

				if err := d.Export.Handle(cmd.Context(), out, d.Principal); err != nil {
					return fmt.Errorf("exporting spans: %w", err)
				}

				if output != "" {
					fmt.Printf("Exported to %s\n", output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
