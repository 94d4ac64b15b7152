package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spanlab/span-core/internal/application/handlers"
	"github.com/spanlab/span-core/internal/domain/entities"
)

func newMusicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "music",
		Short: "Look up artists on MusicBrainz",
	}

	cmd.AddCommand(
		newMusicSearchCmd(),
		newMusicAdoptCmd(),
	)
	return cmd
}

func newMusicSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search MusicBrainz for artists",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withMusicHandler(func(handler *handlers.MusicHandler, principal *entities.User) error {
				matches, err := handler.HandleSearch(cmd.Context(), query)
				if err != nil {
					return fmt.Errorf("searching: %w", err)
				}
				if len(matches) == 0 {
					fmt.Printf("No matches for %q.\n", query)
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "#\tNAME\tTYPE\tCOUNTRY\tSCORE\tNOTE")
				for i, m := range matches {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
						i+1, m.Name, m.Type, m.Country, m.Score, truncate(m.Disambiguation, 40))
				}
				w.Flush()
				fmt.Println("\nUse 'span music adopt <query> <#>' to create a span from a match.")
				return nil
			})
		},
	}
}

func newMusicAdoptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adopt <query> <match-number>",
		Short: "Create a span from a search match",
		Long: `Re-runs the search and creates a private span from the numbered match.
Person artists become person spans; groups and orchestras become
organisations.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil || index < 1 {
				return fmt.Errorf("invalid match number %q", args[1])
			}

			return withMusicHandler(func(handler *handlers.MusicHandler, principal *entities.User) error {
				matches, err := handler.HandleSearch(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("searching: %w", err)
				}
				if index > len(matches) {
					return fmt.Errorf("match number %d out of range (%d matches)", index, len(matches))
				}

				span, err := handler.HandleAdopt(cmd.Context(), matches[index-1], principal)
				if err != nil {
					return fmt.Errorf("creating span: %w", err)
				}
				fmt.Printf("Created span: %s (%s)\n", span.Name, span.Slug)
				return nil
			})
		},
	}
}
