// Command arcoverhang post-processes a PrusaSlicer gcode file, replacing
// its bridge infill with concentric arc fill and the solid infill above it
// with a Hilbert curve fill.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"ArcOverhang/config"
	"ArcOverhang/pipeline"
	"ArcOverhang/writer"
)

func main() {
	var (
		outputPath = flag.StringP("output", "o", "", "output gcode path (defaults to overwriting the input file)")
		seed       = flag.Int64P("seed", "s", 1, "random seed for the start-point fallback and the Hilbert chain shuffle")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: arcoverhang [flags] <gcode-file>")
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if err := run(inputPath, *outputPath, *seed, logger); err != nil {
		logger.Fatalf("arcoverhang: %v", err)
	}
}

func run(inputPath, outputPath string, seed int64, logger *log.Logger) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	if outputPath == "" {
		outputPath = inputPath
	}

	options := config.NewOptions(config.Settings{})
	options.Logger = logger
	options.Seed = seed

	var out bytes.Buffer
	proc := pipeline.New(options)
	if err := proc.Process(in, &out); err != nil {
		return err
	}

	return writer.WriteFile(outputPath, out.String())
}
