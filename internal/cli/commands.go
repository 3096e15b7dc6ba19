package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/emergent-company/primary-api/domain/graph"
)

var resources = map[string]bool{
	"tasks":        true,
	"agents":       true,
	"capabilities": true,
	"nodes":        true,
}

func checkResource(r string) error {
	if !resources[r] {
		return fmt.Errorf("unknown resource %q (want tasks, agents, capabilities or nodes)", r)
	}
	return nil
}

func newHealthCmd(newClient func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check graph store connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newClient().StoreHealth(cmd.Context())
			if err != nil {
				return err
			}
			if h.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", h.Status, h.Error)
				return fmt.Errorf("graph store is %s", h.Status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), h.Status)
			return nil
		},
	}
}

func newStatsCmd(newClient func() *Client, newPrinter func(io.Writer) *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show node and relationship counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClient().Stats(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if p := newPrinter(w); p.structured() {
				return p.print(s)
			}

			table := tablewriter.NewWriter(w)
			table.Header("Kind", "Name", "Count")
			table.Append("nodes", "*", fmt.Sprint(s.NodeCount))
			for _, l := range sortedKeys(s.Labels) {
				table.Append("label", l, fmt.Sprint(s.Labels[l]))
			}
			table.Append("relationships", "*", fmt.Sprint(s.RelationshipCount))
			for _, t := range sortedKeys(s.RelationshipTypes) {
				table.Append("type", t, fmt.Sprint(s.RelationshipTypes[t]))
			}
			return table.Render()
		},
	}
}

func newQueryCmd(newClient func() *Client, newPrinter func(io.Writer) *printer) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "query <cypher>",
		Short: "Run a raw Cypher statement",
		Example: `  primaryctl query 'MATCH (n:Task) RETURN n.id AS id LIMIT 5'
  primaryctl query 'MATCH (n {id: $id}) RETURN n' --param id=bot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}
			rows, err := newClient().Query(cmd.Context(), args[0], parsed)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout()).print(rows)
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "query parameter as key=value (repeatable; JSON values are decoded)")
	return cmd
}

func newGetCmd(newClient func() *Client, newPrinter func(io.Writer) *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show one task, agent, capability or node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkResource(args[0]); err != nil {
				return err
			}
			entity, err := newClient().Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout()).print(entity)
		},
	}
}

func newListCmd(newClient func() *Client, newPrinter func(io.Writer) *printer) *cobra.Command {
	var property, value string
	var contains bool

	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List tasks, agents, capabilities or nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkResource(args[0]); err != nil {
				return err
			}
			filter := map[string]string{}
			if property != "" {
				filter["property"] = property
				filter["value"] = value
				if contains {
					filter["match"] = string(graph.MatchContains)
				}
			}

			items, err := newClient().List(cmd.Context(), args[0], filter)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if p := newPrinter(w); p.structured() {
				return p.print(items)
			}

			table := tablewriter.NewWriter(w)
			table.Header("ID", "Name", "Properties")
			for _, item := range items {
				// /nodes wraps properties next to the labels
				if props, ok := item["properties"].(map[string]any); ok {
					item = props
				}
				table.Append(fmt.Sprint(item["id"]), fmt.Sprint(item["name"]), otherProps(item))
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&property, "property", "", "property to filter on")
	cmd.Flags().StringVar(&value, "value", "", "value to match")
	cmd.Flags().BoolVar(&contains, "contains", false, "substring match instead of exact")
	return cmd
}

func newRelateCmd(newClient func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "relate <startLabel> <startId> <TYPE> <endLabel> <endId>",
		Short: "Create a relationship between two nodes",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := graph.RelationshipRequest{
				StartNodeLabel:   args[0],
				StartNodeID:      args[1],
				RelationshipType: args[2],
				EndNodeLabel:     args[3],
				EndNodeID:        args[4],
			}
			if err := newClient().Relate(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s '%s' -[%s]-> %s '%s'\n",
				args[0], args[1], strings.ToUpper(args[2]), args[3], args[4])
			return nil
		},
	}
}

func newRelationshipsCmd(newClient func() *Client, newPrinter func(io.Writer) *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "relationships <label> <id>",
		Short: "List a node's outgoing relationships",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			edges, err := newClient().Relationships(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if p := newPrinter(w); p.structured() {
				return p.print(edges)
			}

			table := tablewriter.NewWriter(w)
			table.Header("Type", "Target Labels", "Target ID")
			for _, e := range edges {
				table.Append(e.Type, strings.Join(e.EndLabels, ","), e.EndID)
			}
			return table.Render()
		},
	}
}

// parseParams turns key=value pairs into query parameters. Values that
// parse as JSON keep their type; anything else is a string.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, raw, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		params[k] = v
	}
	return params, nil
}

func otherProps(item map[string]any) string {
	var parts []string
	for _, k := range sortedKeys(item) {
		if k == "id" || k == "name" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, item[k]))
	}
	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
