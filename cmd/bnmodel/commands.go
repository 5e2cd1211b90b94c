package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dd0wney/cluso-bayesnet/pkg/bayesnet"
	"github.com/dd0wney/cluso-bayesnet/pkg/constraints"
	"github.com/dd0wney/cluso-bayesnet/pkg/events"
	"github.com/dd0wney/cluso-bayesnet/pkg/graphql"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errAuditFailed = errors.New("model audit failed")

func newBuildCmd(a *app) *cobra.Command {
	var output string
	var journal bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the model and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sub *events.Subscription
			if journal {
				var err error
				if sub, err = a.events.Subscribe(cmd.Context(), events.All); err != nil {
					return err
				}
				defer sub.Unsubscribe()
			}

			m, err := a.openModel()
			if err != nil {
				return err
			}

			switch output {
			case "text":
				printSummary(a.out, m)
			case "yaml":
				enc := yaml.NewEncoder(a.out)
				enc.SetIndent(2)
				if err := enc.Encode(m.Spec()); err != nil {
					return err
				}
				if err := enc.Close(); err != nil {
					return err
				}
			case "json":
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(m.Spec()); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown output format %q (want text, yaml or json)", output)
			}

			if sub != nil {
				printJournal(a.out, sub, a.events.Dropped())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, yaml or json")
	cmd.Flags().BoolVar(&journal, "journal", false, "list the change events raised while building")
	return cmd
}

func printSummary(w io.Writer, m *bayesnet.Model) {
	nets := m.Networks()
	nodes := 0
	for _, net := range nets {
		nodes += len(net.Nodes())
	}
	links := m.Links()
	fmt.Fprintf(w, "model %s: %d networks, %d nodes, %d links, %d data sets\n",
		m.ID(), len(nets), nodes, len(links), len(m.DataSets()))

	for _, net := range nets {
		fmt.Fprintf(w, "\nnetwork %s\n", net.ID())
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NODE\tTYPE\tSTATES\tPARENTS\tTABLE")
		for _, n := range net.Nodes() {
			states := strings.Join(n.StateLabels(), ", ")
			if n.Simulated() {
				states = "(simulated)"
			}
			var parents []string
			for _, p := range n.Parents() {
				parents = append(parents, p.String())
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", n.ID(), n.Type(), states, orDash(parents), tableSummary(n))
		}
		tw.Flush()
	}

	if len(links) > 0 {
		fmt.Fprintln(w, "\nlinks")
		for _, l := range links {
			line := "  " + l.String()
			if v := l.Variable(); v != "" {
				line += " via " + v
			}
			fmt.Fprintln(w, line)
		}
	}
}

func tableSummary(n *bayesnet.Node) string {
	t := n.Table()
	s := t.Kind.String()
	if t.Expression != "" {
		s += " " + t.Expression
	}
	if t.Default {
		s += " (default)"
	}
	return s
}

func orDash(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ", ")
}

// printJournal drains what the subscription has buffered so far.
func printJournal(w io.Writer, sub *events.Subscription, dropped uint64) {
	fmt.Fprintln(w, "\njournal")
	for {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			subject := e.Network
			if e.Node != "" {
				subject += "." + e.Node
			}
			if e.From != "" {
				subject = e.From + " -> " + e.To
			}
			fmt.Fprintf(w, "  %-18s %s\n", e.Topic, subject)
		default:
			if dropped > 0 {
				fmt.Fprintf(w, "  (%d events dropped)\n", dropped)
			}
			return
		}
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Build the model and audit its structure",
		Long: `check builds the model and runs every structural audit over it. It exits
non-zero when an audit reports an error, or a warning when --strict is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.openModel()
			if err != nil {
				return err
			}
			result, err := constraints.NewDefaultValidator().ValidateModel(m)
			if err != nil {
				return err
			}
			return report(a.out, result, a.cfg.Strict)
		},
	}
}

func report(w io.Writer, result *constraints.ValidationResult, strict bool) error {
	if len(result.Violations) == 0 {
		fmt.Fprintln(w, "ok: no violations")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, v := range result.Violations {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.ToUpper(v.Severity.String()), v.Constraint, v.Message)
	}
	tw.Flush()

	errs := len(result.GetViolationsBySeverity(constraints.Error))
	warns := len(result.GetViolationsBySeverity(constraints.Warning))
	infos := len(result.GetViolationsBySeverity(constraints.Info))
	fmt.Fprintf(w, "%d errors, %d warnings, %d notes\n", errs, warns, infos)

	if !result.Valid || (strict && warns > 0) {
		return errAuditFailed
	}
	return nil
}

func newQueryCmd(a *app) *cobra.Command {
	var vars map[string]string

	cmd := &cobra.Command{
		Use:   "query [query | -]",
		Short: "Run a GraphQL inspection query against the model",
		Long: `query builds the model and runs one read-only GraphQL query against it.
Pass "-" to read the query from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := args[0]
			if q == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				q = string(b)
			}

			m, err := a.openModel()
			if err != nil {
				return err
			}
			schema, err := graphql.GenerateSchema(m)
			if err != nil {
				return err
			}

			variables := make(map[string]any, len(vars))
			for k, v := range vars {
				variables[k] = v
			}
			result := graphql.ExecuteWithDepthLimit(cmd.Context(), schema, q, a.cfg.MaxQueryDepth, variables)

			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if result.HasErrors() {
				return fmt.Errorf("query returned %d errors", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "query variable as name=value (repeatable)")
	cmd.Flags().Int("max-depth", graphql.DefaultMaxDepth, "maximum query nesting depth")
	return cmd
}
