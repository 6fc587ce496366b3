package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"lip/bytecode"
	"lip/runtime"
)

// disasmCmd replaces the teacher's cmd_emit_bytecode.go one-for-one: it
// compiles a source file and prints its disassembly instead of dumping a
// persisted .nic artifact, since persistence across process boundaries is
// out of scope here (SPEC_FULL.md §11).
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a lip source file and print its bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm <file.lip>:
  Compile a file and print the disassembled bytecode for its program and
  every nested lambda.
`
}

func (*disasmCmd) SetFlags(_ *flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	fn, err := ctx.LoadScript(filename, file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Print(bytecode.DisassembleBytecode(fn))
	return subcommands.ExitSuccess
}
