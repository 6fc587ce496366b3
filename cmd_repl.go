package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/subcommands"

	"lip/builtin"
	"lip/runtime"
	"lip/vm"
)

// replCmd is the interactive session, grounded on the teacher's
// cmd_repl.go/cmd_repl_compiled.go shape (a read-eval-print loop around a
// single long-lived compiler/VM pair) but using readline for real input
// editing/history instead of bufio.Scanner, and color for banners/results/
// errors the way go-mix/repl does.
type replCmd struct {
	configPath string
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive lip session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive REPL session.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.configPath, "config", "lip.toml", "path to an optional VM configuration file")
}

func (r *replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	color.Blue("Welcome to lip.")
	color.Blue(`Type an expression and press enter; "exit" quits.`)

	rl, err := readline.New("lip> ")
	if err != nil {
		fmt.Println(color.RedString("failed to start REPL: %v", err))
		return subcommands.ExitFailure
	}
	defer rl.Close()

	ctx := runtime.NewContext(nil)
	defer ctx.Close()
	builtin.Register(ctx)
	m := runtime.NewVM(ctx, loadVMConfig(r.configPath))

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Println(color.RedString("%v", err))
			return subcommands.ExitFailure
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return subcommands.ExitSuccess
		}

		fn, err := ctx.LoadScript("<repl>", strings.NewReader(line))
		if err != nil {
			fmt.Println(color.RedString("%v", err))
			continue
		}

		result, status, err := m.ExecScript(fn)
		if err != nil {
			fmt.Println(color.RedString("%v", err))
			if status == vm.AbortedStatus {
				fmt.Println(color.RedString("execution aborted"))
			}
			continue
		}
		fmt.Println(color.GreenString("%s", result.String()))
	}
}
