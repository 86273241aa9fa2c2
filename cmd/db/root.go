package db

import (
	"os"

	"github.com/ValentinKolb/kvbase/cmd/util"
	"github.com/ValentinKolb/kvbase/lib/command"
	"github.com/spf13/cobra"
)

var (
	infoFormat string

	// DBCommands represents the db command group
	DBCommands = &cobra.Command{
		Use:   "db",
		Short: "Perform database operations",
	}

	createCmd = &cobra.Command{
		Use:   "create [name] [resources...]",
		Short: "Create an empty database",
		Long:  "Create an empty database with the given resource table. Requires the create permission.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return util.Run(os.Stdout, &command.Create{DB: args[0], Resources: args[1:]})
		},
	}

	dropCmd = &cobra.Command{
		Use:   "drop [name]",
		Short: "Delete a database",
		Long:  "Delete a database and all its files. Databases that are being updated are not dropped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return util.Run(os.Stdout, &command.Drop{DB: args[0]})
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List all databases",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return util.Run(os.Stdout, &command.List{})
		},
	}

	infoCmd = &cobra.Command{
		Use:   "info [name]",
		Short: "Print the metadata of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return util.Run(os.Stdout, &command.Open{DB: args[0]}, &command.Info{Format: infoFormat})
		},
	}

	openCmd = &cobra.Command{
		Use:   "open [name] [path]",
		Short: "Open a database",
		Long:  "Open a database, optionally narrowed to the resources below path, and report the time it took. Notices are printed for databases in an outdated format or with a damaged header.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			open := &command.Open{DB: args[0]}
			if len(args) == 2 {
				open.Path = args[1]
			}
			return util.Run(os.Stdout, open)
		},
	}
)

func init() {
	DBCommands.AddCommand(createCmd)
	DBCommands.AddCommand(dropCmd)
	DBCommands.AddCommand(listCmd)
	DBCommands.AddCommand(infoCmd)
	DBCommands.AddCommand(openCmd)

	infoCmd.Flags().StringVar(&infoFormat, "format", command.FormatText, util.WrapString("Output format (text, json, yaml)"))
}
