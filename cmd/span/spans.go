package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/services"
)

func newSpansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spans",
		Short: "Manage spans",
		Long:  "Create, inspect, update, and delete spans.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpansList(cmd, "", DefaultListLimit, 0)
		},
	}

	cmd.AddCommand(
		newSpansCreateCmd(),
		newSpansShowCmd(),
		newSpansListCmd(),
		newSpansSearchCmd(),
		newSpansUpdateCmd(),
		newSpansDeleteCmd(),
		newSpansHistoryCmd(),
		newSpansDiffCmd(),
		newSpansAuditCmd(),
		newSpansGrantCmd(),
		newSpansRevokeCmd(),
	)

	return cmd
}

// spanFlags carries the editable span fields shared by create and update.
type spanFlags struct {
	spanType    string
	access      string
	start       string
	end         string
	description string
	notes       string
}

func (f *spanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.spanType, "type", "t", entities.TypePerson, "Span type")
	cmd.Flags().StringVar(&f.access, "access", string(entities.AccessPrivate), "Access level (public, private, shared)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY, YYYY-MM, or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date (YYYY, YYYY-MM, or YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notes")
}

func (f *spanFlags) toInput(name string) (services.SpanInput, error) {
	start, err := parseFlexDate(f.start)
	if err != nil {
		return services.SpanInput{}, fmt.Errorf("parsing --start: %w", err)
	}
	end, err := parseFlexDate(f.end)
	if err != nil {
		return services.SpanInput{}, fmt.Errorf("parsing --end: %w", err)
	}
	return services.SpanInput{
		Name:        name,
		Type:        f.spanType,
		AccessLevel: entities.AccessLevel(f.access),
		Start:       start,
		End:         end,
		Description: f.description,
		Notes:       f.notes,
	}, nil
}

// parseFlexDate parses YYYY, YYYY-MM, or YYYY-MM-DD. Empty input is the
// zero date.
func parseFlexDate(s string) (entities.FlexDate, error) {
	if s == "" {
		return entities.FlexDate{}, nil
	}
	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return entities.FlexDate{}, fmt.Errorf("invalid date %q", s)
	}
	var date entities.FlexDate
	fields := []*int{&date.Year, &date.Month, &date.Day}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return entities.FlexDate{}, fmt.Errorf("invalid date %q", s)
		}
		*fields[i] = n
	}
	if !date.Valid() {
		return entities.FlexDate{}, fmt.Errorf("invalid date %q", s)
	}
	return date, nil
}

func newSpansCreateCmd() *cobra.Command {
	var flags spanFlags

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new span",
		Long: `Creates a span owned by the acting user (--as).

Examples:
  span spans create "Ada Lovelace" --as u1 --type person --start 1815-12-10 --access public
  span spans create "London" --as u1 --type place`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.toInput(args[0])
			if err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				span, err := d.Spans.HandleCreate(cmd.Context(), input, d.Principal)
				if err != nil {
					return fmt.Errorf("creating span: %w", err)
				}
				fmt.Printf("Created span: %s (%s)\n", span.Name, span.Slug)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newSpansShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a span with its connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				view, err := d.Spans.HandleShow(cmd.Context(), args[0], d.Principal)
				if err != nil {
					return err
				}
				printSpan(view.Span)
				if len(view.Connections) > 0 {
					fmt.Println("\nConnections:")
					for _, line := range view.Connections {
						fmt.Printf("  %s\n", line)
					}
				}
				return nil
			})
		},
	}
}

func printSpan(span *entities.Span) {
	fmt.Printf("%s\n", span.Name)
	fmt.Printf("  slug:   %s\n", span.Slug)
	fmt.Printf("  type:   %s\n", span.Type)
	fmt.Printf("  access: %s\n", span.AccessLevel)
	if !span.Start.IsZero() {
		fmt.Printf("  start:  %s\n", span.Start)
	}
	if !span.End.IsZero() {
		fmt.Printf("  end:    %s\n", span.End)
	}
	if span.Description != "" {
		fmt.Printf("  description: %s\n", span.Description)
	}
	if span.Notes != "" {
		fmt.Printf("  notes: %s\n", span.Notes)
	}
}

func newSpansListCmd() *cobra.Command {
	var spanType string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible spans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpansList(cmd, spanType, limit, offset)
		},
	}

	cmd.Flags().StringVarP(&spanType, "type", "t", "", "Filter by span type")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum spans to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of spans to skip")
	return cmd
}

func runSpansList(cmd *cobra.Command, spanType string, limit, offset int) error {
	return withDeps(func(d *Deps) error {
		spans, err := d.Spans.HandleList(cmd.Context(), spanType, limit, offset, d.Principal)
		if err != nil {
			return fmt.Errorf("listing spans: %w", err)
		}
		if len(spans) == 0 {
			fmt.Println("No spans found.")
			return nil
		}
		printSpanTable(spans)
		return nil
	})
}

func printSpanTable(spans []*entities.Span) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSLUG\tTYPE\tACCESS\tSTART")
	for _, span := range spans {
		start := ""
		if !span.Start.IsZero() {
			start = span.Start.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", span.Name, span.Slug, span.Type, span.AccessLevel, start)
	}
	w.Flush()
}

func newSpansSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search spans by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				spans, err := d.Spans.HandleSearch(cmd.Context(), args[0], limit, d.Principal)
				if err != nil {
					return fmt.Errorf("searching spans: %w", err)
				}
				if len(spans) == 0 {
					fmt.Println("No spans found.")
					return nil
				}
				printSpanTable(spans)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum results")
	return cmd
}

func newSpansUpdateCmd() *cobra.Command {
	var flags spanFlags
	var name string

	cmd := &cobra.Command{
		Use:   "update <slug>",
		Short: "Update a span",
		Long:  "Updates a span's fields and records a new version. The slug never changes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				ctx := cmd.Context()

				// Start from the current state so unset flags keep their values.
				view, err := d.Spans.HandleShow(ctx, args[0], d.Principal)
				if err != nil {
					return err
				}
				current := view.Span

				if name == "" {
					name = current.Name
				}
				if !cmd.Flags().Changed("type") {
					flags.spanType = current.Type
				}
				if !cmd.Flags().Changed("access") {
					flags.access = string(current.AccessLevel)
				}
				if !cmd.Flags().Changed("start") {
					flags.start = dateFlag(current.Start)
				}
				if !cmd.Flags().Changed("end") {
					flags.end = dateFlag(current.End)
				}
				if !cmd.Flags().Changed("description") {
					flags.description = current.Description
				}
				if !cmd.Flags().Changed("notes") {
					flags.notes = current.Notes
				}

				input, err := flags.toInput(name)
				if err != nil {
					return err
				}
				input.Metadata = current.Metadata

				span, err := d.Spans.HandleUpdate(ctx, args[0], input, d.Principal)
				if err != nil {
					return fmt.Errorf("updating span: %w", err)
				}
				fmt.Printf("Updated span: %s\n", span.Slug)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name (slug stays unchanged)")
	flags.register(cmd)
	return cmd
}

func dateFlag(d entities.FlexDate) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func newSpansDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a span and everything connected to it",
		Long:  "Deletes a span, its versions, its grants, and every connection touching it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.Spans.HandleDelete(cmd.Context(), args[0], d.Principal); err != nil {
					return fmt.Errorf("deleting span: %w", err)
				}
				fmt.Printf("Deleted span: %s\n", args[0])
				return nil
			})
		},
	}
}

func newSpansHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <slug>",
		Short: "Show a span's version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				versions, err := d.Spans.HandleHistory(cmd.Context(), args[0], d.Principal)
				if err != nil {
					return fmt.Errorf("loading history: %w", err)
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSUMMARY\tCHANGED BY\tDATE")
				for i := range versions {
					v := &versions[i]
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
						v.Version, v.ChangeSummary, v.ChangedBy, v.CreatedAt.Format("2006-01-02 15:04"))
				}
				w.Flush()
				return nil
			})
		},
	}
}

func newSpansDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <slug> <from> <to>",
		Short: "Describe what changed between two versions",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[1])
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[2])
			}
			return withDeps(func(d *Deps) error {
				diff, err := d.Spans.HandleDiff(cmd.Context(), args[0], from, to, d.Principal)
				if err != nil {
					return fmt.Errorf("diffing versions: %w", err)
				}
				if diff == "" {
					fmt.Println("No differences.")
					return nil
				}
				fmt.Println(diff)
				return nil
			})
		},
	}
}

func newSpansAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <slug>",
		Short: "Show the action log for a span",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				entries, err := d.Spans.HandleAudit(cmd.Context(), args[0], d.Principal)
				if err != nil {
					return fmt.Errorf("loading audit log: %w", err)
				}
				if len(entries) == 0 {
					fmt.Println("No recorded actions.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ACTION\tACTOR\tDATE")
				for i := range entries {
					e := &entries[i]
					fmt.Fprintf(w, "%s\t%s\t%s\n", e.Action, e.ActorID, e.CreatedAt.Format("2006-01-02 15:04"))
				}
				w.Flush()
				return nil
			})
		},
	}
}

func newSpansGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <slug> <user-id>",
		Short: "Share a span with a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.Spans.HandleGrant(cmd.Context(), args[0], args[1], d.Principal); err != nil {
					return fmt.Errorf("granting access: %w", err)
				}
				fmt.Printf("Granted %s access to %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func newSpansRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <slug> <user-id>",
		Short: "Revoke a user's shared access to a span",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.Spans.HandleRevoke(cmd.Context(), args[0], args[1], d.Principal); err != nil {
					return fmt.Errorf("revoking access: %w", err)
				}
				fmt.Printf("Revoked %s's access to %s\n", args[1], args[0])
				return nil
			})
		},
	}
}
