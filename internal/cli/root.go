// Package cli implements primaryctl, a command-line client for the Primary API.
package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the primaryctl command tree. Each call returns a
// fresh tree bound to v.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "primaryctl",
		Short:         "CLI for the Primary API graph store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("server", DefaultServer, "Primary API base URL")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().String("output", "table", "output format (table, json, yaml)")
	root.PersistentFlags().String("jq", "", "jq expression applied to the response")
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	_ = v.BindPFlag("output", root.PersistentFlags().Lookup("output"))
	_ = v.BindPFlag("jq", root.PersistentFlags().Lookup("jq"))

	v.SetEnvPrefix("PRIMARY")
	v.AutomaticEnv()

	newClient := func() *Client {
		return NewClient(v.GetString("server"), v.GetDuration("timeout"))
	}
	newPrinter := func(w io.Writer) *printer {
		return &printer{w: w, format: v.GetString("output"), jq: v.GetString("jq")}
	}

	root.AddCommand(
		newHealthCmd(newClient),
		newStatsCmd(newClient, newPrinter),
		newQueryCmd(newClient, newPrinter),
		newGetCmd(newClient, newPrinter),
		newListCmd(newClient, newPrinter),
		newRelateCmd(newClient),
		newRelationshipsCmd(newClient, newPrinter),
	)
	return root
}

// Execute runs primaryctl with the process arguments
func Execute() error {
	return NewRootCommand(viper.New()).Execute()
}
