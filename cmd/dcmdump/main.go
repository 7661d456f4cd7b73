// Command dcmdump parses DICOM files and prints their elements.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"

	"github.com/openimaging/go-dicom-core/dicom"
)

var (
	headless = flag.Bool("headless", false, "parse files without preamble and DICM magic")
	maxGroup = flag.Uint("max-group", 0, "stop parsing at the first tag whose group exceeds this value")
	verbose  = flag.Bool("v", false, "enable diagnostic logging")
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] file...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *verbose {
		dicom.SetLogger(dicom.NewConsoleLogger(zapcore.Lock(os.Stderr)))
	}

	opts := []dicom.ParseOption{}
	if *headless {
		opts = append(opts, dicom.WithPreamble(false))
	}
	if *maxGroup > 0 {
		opts = append(opts, dicom.WithMaxGroup(uint16(*maxGroup)))
	}

	exitCode := 0
	for _, path := range flag.Args() {
		ds, err := dicom.ParseFile(path, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
			continue
		}
		fmt.Printf("# %s\n%s\n", path, ds)
	}
	os.Exit(exitCode)
}
