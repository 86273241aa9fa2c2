package util

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/kvbase/lib/command"
	"github.com/fatih/color"
)

var (
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	green  = color.New(color.FgGreen)
	dim    = color.New(color.Faint)
)

// InitColors configures global color output. fatih/color already honors
// NO_COLOR and disables colors if stdout is not a terminal.
func InitColors(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// PrintResult writes the output, the notices and the status of r to w.
func PrintResult(w io.Writer, r *command.Result) {
	for _, line := range r.Output {
		_, _ = fmt.Fprintln(w, line)
	}
	for _, notice := range r.Notices {
		_, _ = yellow.Fprintf(w, "! %s\n", notice)
	}
	if !r.OK() {
		PrintError(w, r.Err)
		return
	}
	if r.Info != "" {
		_, _ = green.Fprintln(w, r.Info)
	}
}

// PrintError writes err to w in red.
func PrintError(w io.Writer, err error) {
	_, _ = red.Fprintf(w, "error: %v\n", err)
}

// PrintDim writes a less important line to w.
func PrintDim(w io.Writer, format string, args ...interface{}) {
	_, _ = dim.Fprintf(w, format+"\n", args...)
}

// Run executes cmds in one new session of the application context and prints the
// result to stdout. A failure is returned instead of printed.
func Run(w io.Writer, cmds ...command.Command) error {
	ctx, err := Context()
	if err != nil {
		return err
	}
	s := ctx.NewSession()
	defer s.End()

	for _, c := range cmds {
		r := command.Execute(s, c)
		if !r.OK() {
			PrintResult(w, &command.Result{Output: r.Output, Notices: r.Notices})
			return r.Err
		}
		PrintResult(w, r)
	}
	return nil
}
