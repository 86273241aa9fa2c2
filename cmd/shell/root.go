package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/kvbase/cmd/util"
	"github.com/ValentinKolb/kvbase/lib/command"
	"github.com/ValentinKolb/kvbase/lib/core"
	"github.com/spf13/cobra"
)

const prompt = "kvbase> "

var (
	quiet bool

	// ShellCmd represents the shell command
	ShellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell",
		Long: util.WrapString("Start an interactive shell. All commands of the shell run in one session, " +
			"so a database stays open between commands. Type 'help' for a list of commands."),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := util.Context()
			if err != nil {
				return err
			}
			return Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), !quiet)
		},
	}
)

func init() {
	ShellCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, util.WrapString("Do not print the prompt (useful when piping commands)"))
}

const help = `open <name> [<path>]           open a database, optionally narrowed to path
close                          close the open database
create <name> [<resource>...]  create an empty database
drop <name>                    delete a database
info [text|json|yaml]          print the metadata of the open database
list                           list all databases
stats                          print registry metrics and command latencies
exit                           leave the shell`

// Run reads commands line by line from in and runs them in one session
// until in is exhausted or "exit" is read.
func Run(ctx *core.Context, in io.Reader, out io.Writer, showPrompt bool) error {
	s := ctx.NewSession()
	defer s.End()

	scanner := bufio.NewScanner(in)
	for {
		if showPrompt {
			_, _ = fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			_, _ = fmt.Fprintln(out, help)
			continue
		}

		c, err := command.Parse(line)
		if err != nil {
			util.PrintError(out, err)
			continue
		}
		util.PrintResult(out, command.Execute(s, c))
	}
	return scanner.Err()
}
