package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvbase/cmd/db"
	"github.com/ValentinKolb/kvbase/cmd/shell"
	"github.com/ValentinKolb/kvbase/cmd/update"
	"github.com/ValentinKolb/kvbase/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvbase",
		Short: "embedded multi-database store",
		Long: fmt.Sprintf(`kvbase (v%s)

An embedded store that keeps many named databases below one directory.
Databases are opened through a shared handle registry, so every database is
loaded at most once, no matter how many sessions use it.

All flags can also be set as environment variables in the format
KVBASE_<flag> (e.g. KVBASE_DB_PATH=/var/lib/kvbase).`, Version),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := util.LoadConfig(cmd)
			return err
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return util.CloseContext()
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvbase",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvbase v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(db.DBCommands)
	RootCmd.AddCommand(update.UpdateCommands)
	RootCmd.AddCommand(shell.ShellCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if closeErr := util.CloseContext(); err == nil {
		err = closeErr
	}
	if err != nil {
		util.PrintError(os.Stderr, err)
		os.Exit(util.ExitCode(err))
	}
}
