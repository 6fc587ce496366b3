package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/subcommands"

	"lip/builtin"
	"lip/runtime"
	"lip/vm"
)

// runCmd executes a lip source file, grounded on the teacher's cmd_run.go
// one-for-one in structure (read file, run the pipeline, report errors to
// stderr), replacing the tree-walking interpreter with LoadScript +
// ExecScript.
type runCmd struct {
	configPath string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a lip source file" }
func (*runCmd) Usage() string {
	return `run <file.lip>:
  Execute lip source code from a file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.configPath, "config", "lip.toml", "path to an optional VM configuration file")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "file not provided")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	file, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	ctx := runtime.NewContext(nil)
	defer ctx.Close()
	builtin.Register(ctx)

	fn, err := ctx.LoadScript(filename, file)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("%v", err))
		return subcommands.ExitFailure
	}

	m := runtime.NewVM(ctx, loadVMConfig(r.configPath))
	result, status, err := m.ExecScript(fn)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("%v", err))
		for _, frame := range ctx.Traceback(m) {
			if frame.Native {
				fmt.Fprintf(os.Stderr, "\tat %s (<native>)\n", frame.FunctionName)
				continue
			}
			fmt.Fprintf(os.Stderr, "\tat %s (%s:%d:%d)\n", frame.FunctionName, frame.Filename, frame.Loc.Start.Line, frame.Loc.Start.Column)
		}
		if status == vm.AbortedStatus {
			fmt.Fprintln(os.Stderr, "execution aborted")
		}
		return subcommands.ExitFailure
	}

	fmt.Println(color.GreenString("%s", result.String()))
	return subcommands.ExitSuccess
}
