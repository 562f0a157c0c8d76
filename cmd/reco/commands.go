// ABOUTME: Terminal commands for the reco CLI: do, shell, resources and logs.
// ABOUTME: Drives console controllers from flags or survey prompts and prints their sessions.

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/2389/reco/internal/config"
	"github.com/2389/reco/internal/console"
	"github.com/2389/reco/internal/form"
	"github.com/2389/reco/internal/store"
	"github.com/2389/reco/plugins/core"
)

func newDoCmd() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "do <resource> <action>",
		Short: "Run one console action and print the result",
		Long: `Run a single action against a resource and print the flash message,
the resulting form fields and any search results.

Fields are given as name=value using either the field name or its form
selector. Values are text, exactly as typed into the console form.

Examples:
  reco do pets create --set name=Rex --set available=true
  reco do pets retrieve --set id=7
  reco do recommendations search --set user_id=42
  reco do recommendations rate --set id=3 --set rating=5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.console.Controller(args[0])
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(a.console.Names(), ", "))
			}
			state, err := parseSets(ctrl.Schema(), sets)
			if err != nil {
				return err
			}
			ctrl.Session().SetState(state)

			if err := ctrl.Run(cmd.Context(), args[1]); err != nil {
				return err
			}
			return printSnapshot(cmd.OutOrStdout(), ctrl.Schema(), ctrl.Session().Snapshot())
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Form field value as name=value (repeatable)")
	return cmd
}

// parseSets turns name=value pairs into form state keyed by selector
func parseSets(schema core.ResourceSchema, sets []string) (form.State, error) {
	values := make(map[string]string, len(sets))
	for _, set := range sets {
		name, value, ok := strings.Cut(set, "=")
		if !ok {
			return form.State{}, fmt.Errorf("invalid --set %q: want name=value", set)
		}
		field, found := schema.Field(name)
		if !found {
			field, found = schema.FieldBySelector(name)
		}
		if !found {
			return form.State{}, fmt.Errorf("%s has no field %q", schema.Name, name)
		}
		values[field.Selector] = value
	}
	return form.NewState(values), nil
}

func printSnapshot(w io.Writer, schema core.ResourceSchema, snap console.Snapshot) error {
	flash := snap.Flash
	if flash == "" {
		flash = "(none)"
	}
	fmt.Fprintf(w, "Flash: %s\n\n", flash)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, field := range schema.Fields {
		if value, ok := snap.State.Get(field.Selector); ok {
			fmt.Fprintf(tw, "%s:\t%s\n", field.Display, value)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if snap.Results == "" {
		return nil
	}
	rows, err := tableRows(snap.Results)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nResults (%d):\n", len(rows)-1)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// tableRows reads the rendered results table back into text cells, header first
func tableRows(markup string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var header []string
	doc.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		header = append(header, strings.TrimSpace(th.Text()))
	})
	rows := [][]string{header}
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, td.Text())
		})
		rows = append(rows, cells)
	})
	return rows, nil
}

const (
	shellEdit = "edit fields"
	shellQuit = "quit"
	noValue   = "(empty)"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell <resource>",
		Short: "Interactive terminal console for one resource",
		Long: `Open an interactive console for a resource. Pick an action from the
menu; "edit fields" prompts for every form field. The flash message, form
fields and search results are printed after each action.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.console.Controller(args[0])
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(a.console.Names(), ", "))
			}

			err = runShell(cmd, ctrl)
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		},
	}
}

func runShell(cmd *cobra.Command, ctrl *console.Controller) error {
	schema := ctrl.Schema()
	options := []string{shellEdit}
	for _, action := range schema.Actions {
		options = append(options, action.Name)
	}
	options = append(options, shellQuit)

	out := cmd.OutOrStdout()
	for {
		var choice string
		prompt := &survey.Select{
			Message: schema.Name + " action:",
			Options: options,
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return err
		}

		switch choice {
		case shellQuit:
			return nil
		case shellEdit:
			state, err := promptFields(schema, ctrl.Session().Snapshot().State)
			if err != nil {
				return err
			}
			ctrl.Session().SetState(state)
		default:
			if err := ctrl.Run(cmd.Context(), choice); err != nil {
				return err
			}
		}

		fmt.Fprintln(out)
		if err := printSnapshot(out, schema, ctrl.Session().Snapshot()); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
}

// promptFields asks for every field, offering current values as defaults
func promptFields(schema core.ResourceSchema, state form.State) (form.State, error) {
	for _, field := range schema.Fields {
		current := state.Value(field.Selector)

		var options []string
		switch field.Kind {
		case core.KindBoolean:
			options = []string{"true", "false"}
		case core.KindEnum:
			options = field.Options
		}

		var answer string
		if options != nil {
			sel := &survey.Select{
				Message: field.Display + ":",
				Options: append([]string{noValue}, options...),
				Default: noValue,
			}
			for _, opt := range options {
				if opt == current {
					sel.Default = current
				}
			}
			if err := survey.AskOne(sel, &answer); err != nil {
				return form.State{}, err
			}
			if answer == noValue {
				answer = ""
			}
		} else {
			if err := survey.AskOne(&survey.Input{Message: field.Display + ":", Default: current}, &answer); err != nil {
				return form.State{}, err
			}
		}
		state = state.With(field.Selector, answer)
	}
	return state, nil
}

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List registered resource kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RESOURCE\tPATH\tACTIONS")
			for _, p := range core.All() {
				schema := p.Schema()
				var actions []string
				for _, a := range schema.Actions {
					actions = append(actions, a.Name)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name(), schema.CollectionPath(), strings.Join(actions, ", "))
			}
			return tw.Flush()
		},
	}
}

func newLogsCmd() *cobra.Command {
	var (
		limit    int
		resource string
		failed   bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent outbound API requests",
		Long: `Print the most recent requests the console sent to the API, newest first,
followed by request totals and the busiest endpoints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("request logging is disabled")
			}
			s, err := store.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			logs, err := s.GetRequestLogs(ctx, &store.RequestLogQuery{Limit: limit, Resource: resource, FailedOnly: failed})
			if err != nil {
				return err
			}
			stats, err := s.GetRequestLogStats(ctx)
			if err != nil {
				return err
			}
			top, err := s.GetTopEndpoints(ctx, 5)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tRESOURCE\tACTION\tMETHOD\tPATH\tSTATUS\tMS")
			for _, l := range logs {
				status := fmt.Sprint(l.StatusCode)
				if l.Error != "" {
					status = "error: " + l.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
					l.Timestamp.Local().Format("2006-01-02 15:04:05"), l.Resource, l.Action, l.Method, l.Path, status, l.DurationMs)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\nTotal: %d  Today: %d  Errors: %d  Avg: %dms  Endpoints: %d\n",
				stats.TotalRequests, stats.TodayRequests, stats.ErrorRequests, stats.AvgDurationMs, stats.UniqueEndpoints)

			for _, e := range top {
				fmt.Fprintf(out, "  %-40s %5d  %dms\n", e.Path, e.Count, e.AvgMs)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of requests to show")
	cmd.Flags().StringVar(&resource, "resource", "", "Only show requests for this resource")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only show failed requests")
	return cmd
}
