package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/moon45140/narcomp/compile"
)

const outputFileName = "narcomp_output.c"

func printVersion() {
	fmt.Println("narcomp version 0.01")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  narcomp [FLAGS] FILE")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  NARCOMPDEBUG=true appends a stack trace to internal-invariant errors.")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

// main is grounded on the teacher's cc.go main/compileFile pair, adapted
// to spec §6.4's single positional argument, fixed output filename, and
// always-exit-0 policy: a source file with syntax or type errors is not a
// tool failure, just a program with nothing to emit.
func main() {
	flag.Usage = printUsage
	version := flag.Bool("version", false, "Print version info and exit.")
	flag.Parse()

	if *version {
		printVersion()
		return
	}
	if flag.NArg() == 0 {
		printUsage()
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Bad number of args, please specify a single source file.")
		return
	}

	input := flag.Args()[0]

	out, err := os.Create(outputFileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output file %s: %s\n", outputFileName, err)
		return
	}

	result, err := compile.CompileFile(input, out)
	out.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Remove(outputFileName)
		return
	}

	if result.ErrorCount > 0 {
		os.Remove(outputFileName)
	}

	printSummary(result.LinesRead, result.ErrorCount, result.WarningCount)
}
