package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/ambient/pkg/diag"
	"github.com/gnana997/ambient/pkg/externs"
	"github.com/gnana997/ambient/pkg/registry"
	"github.com/gnana997/ambient/pkg/synth"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		minSeverity string
		showStats   bool
	)
	cmd := &cobra.Command{
		Use:   "check [file|dir|glob]...",
		Short: "Load externs and report diagnostics",
		Long: "Load externs and report diagnostics. Arguments override the externs\n" +
			"listed in the config. Exits 1 when any error is reported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			minSev, ok := diag.ParseSeverity(minSeverity)
			if !ok {
				return fmt.Errorf("unknown severity %q", minSeverity)
			}

			res, err := a.load(cmd.Context(), a.patterns(args))
			if res == nil {
				return err
			}
			shown := res.Diagnostics.AtLeast(minSev)

			if a.jsonOut {
				out := checkJSON{
					Files:       res.Files,
					Diagnostics: shown,
				}
				if res.Registry != nil {
					out.RegistryID = res.Registry.ID()
					out.Entries = res.Registry.Len()
				}
				if err := printJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
			} else {
				printDiagnostics(cmd.OutOrStdout(), shown)
				printSummary(cmd.OutOrStdout(), res)
				if showStats {
					printStats(cmd.OutOrStdout(), res.Stats)
				}
			}

			if err != nil {
				return reported(err)
			}
			if res.Diagnostics.HasErrors() {
				return errDiagnostics
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&minSeverity, "severity", "info", "Minimum severity shown: info, warning, error")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print load statistics")
	return cmd
}

type checkJSON struct {
	RegistryID  string    `json:"registry_id,omitempty"`
	Entries     int       `json:"entries"`
	Files       []string  `json:"files"`
	Diagnostics diag.List `json:"diagnostics"`
}

func printStats(w io.Writer, s externs.LoadStats) {
	fmt.Fprintf(w, "blocks %d, symbols %d, accepted %d, cache %d hit / %d miss, %s\n",
		s.Blocks, s.Symbols, s.Accepted, s.CacheHits, s.CacheMisses, s.Duration.Round(time.Microsecond))
	for _, phase := range []string{externs.PhaseParse, externs.PhaseValidate, externs.PhaseCollect, externs.PhaseLink, externs.PhaseInsert} {
		fmt.Fprintf(w, "  %-9s %s\n", phase, s.Phases[phase].Round(time.Microsecond))
	}
}

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup NAME...",
		Short: "Show the declarations of qualified names",
		Long:  `Show the declarations of qualified names. "Type#member" is accepted for prototype members.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var (
				found   []registry.Entry
				missing []string
			)
			for _, name := range args {
				if e, ok := q.GetEntry(name); ok {
					found = append(found, e)
				} else {
					missing = append(missing, name)
				}
			}

			if a.jsonOut {
				views := make([]entryJSON, len(found))
				for i, e := range found {
					views[i] = newEntryJSON(e)
				}
				if err := printJSON(cmd.OutOrStdout(), views); err != nil {
					return err
				}
			} else {
				for i, e := range found {
					if i > 0 {
						fmt.Fprintln(cmd.OutOrStdout())
					}
					printEntry(cmd.OutOrStdout(), e)
				}
			}

			if len(missing) > 0 {
				return fmt.Errorf("not declared: %v", missing)
			}
			return nil
		},
	}
}

func newMembersCmd(a *app) *cobra.Command {
	var details bool
	cmd := &cobra.Command{
		Use:   "members TYPE",
		Short: "List the prototype members of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			typeName := args[0]
			members, err := q.Registry.MembersOf(typeName)
			if errors.Is(err, registry.ErrNotFound) {
				return fmt.Errorf("%s is not a known type", typeName)
			}
			if err != nil {
				return err
			}

			if a.jsonOut && !details {
				return printJSON(cmd.OutOrStdout(), map[string]any{"type": typeName, "members": members})
			}
			views := []entryJSON{}
			for _, m := range members {
				if !details {
					fmt.Fprintln(cmd.OutOrStdout(), m)
					continue
				}
				e, err := q.Registry.Lookup(typeName + ".prototype." + m)
				if err != nil {
					continue
				}
				if a.jsonOut {
					views = append(views, newEntryJSON(e))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", m, e.Symbol.Signature())
				}
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{"type": typeName, "members": views})
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&details, "details", false, "Include each member's signature")
	return cmd
}

func newNamesCmd(a *app) *cobra.Command {
	var filter registry.NameFilter
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List declared names in namespace order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validKind(filter.Kind) {
				return fmt.Errorf("unknown kind %q, want one of %v", filter.Kind, kindNames)
			}
			q, err := a.query(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			names, truncated := q.ListNames(filter)

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{"names": names, "truncated": truncated})
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			if truncated {
				fmt.Fprintln(cmd.ErrOrStderr(), infoStyle.Render(fmt.Sprintf("(first %d names shown)", filter.Limit)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Prefix, "prefix", "", "Only names starting with this")
	cmd.Flags().StringVar(&filter.Keyword, "keyword", "", "Only names containing this, ignoring case")
	cmd.Flags().StringVar(&filter.Kind, "kind", "", "Only symbols of this kind, e.g. method")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of names (0 for all)")
	return cmd
}

func newSynthCmd(a *app) *cobra.Command {
	var (
		output string
		opts   synth.Options
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write the loaded registry back out as a single externs file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return synth.WriteWithOptions(cmd.OutOrStdout(), q.Registry, opts)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := synth.WriteWithOptions(f, q.Registry, opts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("externs written", "path", output, "entries", q.Registry.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&opts.Overview, "overview", "", "@fileoverview text")
	cmd.Flags().BoolVar(&opts.Provenance, "provenance", false, "Add an @see tag naming where each entry was declared")
	return cmd
}

// kindNames lists the values accepted by names --kind.
var kindNames = []string{"variable", "function", "method", "property", "constructor", "interface", "typedef", "namespace"}

func validKind(kind string) bool {
	return kind == "" || slices.Contains(kindNames, kind)
}
