// Command rasm assembles AVR assembly source into a raw flat binary
// image, compatible with avr-objdump -b binary -m avr -D.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/raek/rasm/assembler"
	"github.com/raek/rasm/image"
)

func main() {
	outFile := flag.String("o", "", "Output file (default: input with its extension replaced by .bin)")
	noVectors := flag.Bool("no-vectors", false, "Omit the interrupt vector table prefix")
	vectors := flag.Bool("vectors", false, "Prefix the image with the ATmega328 interrupt vector table (default)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rasm [options] input.s\n\nAssembles AVR assembly source into a raw flat binary image.\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  rasm blink.s\n")
		fmt.Fprintf(os.Stderr, "  rasm -o blink.bin blink.s\n")
		fmt.Fprintf(os.Stderr, "  rasm --no-vectors boot.s\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if *noVectors && *vectors {
		fmt.Fprintf(os.Stderr, "error: --vectors and --no-vectors are mutually exclusive\n")
		os.Exit(1)
	}

	inputPath := flag.Arg(0)

	src, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	opts := assembler.Options{Vectors: &image.ATmega328}
	if *noVectors {
		opts.Vectors = nil
	}

	out, err := assembler.Assemble(inputPath, src, opts)
	if err != nil {
		printDiagnostic(err)
		os.Exit(1)
	}

	outputPath := *outFile
	if outputPath == "" {
		outputPath = outputPathFor(inputPath)
	}

	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outputPath, err)
		os.Exit(1)
	}
}

// outputPathFor derives a default output path by stripping the input's
// extension (if any) and appending .bin.
func outputPathFor(inputPath string) string {
	for i := len(inputPath) - 1; i >= 0 && inputPath[i] != '/'; i-- {
		if inputPath[i] == '.' {
			return inputPath[:i] + ".bin"
		}
	}
	return inputPath + ".bin"
}

// printDiagnostic writes err to stderr, prefixing it with its Kind.
// When stderr is a real terminal, the Kind prefix is colorized.
func printDiagnostic(err error) {
	kind := "error"
	var d *assembler.Diagnostic
	if errors.As(err, &d) {
		kind = d.Kind.String()
	}

	if term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintf(os.Stderr, "\x1b[31m%s:\x1b[0m %v\n", kind, err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
}
