// Command admrender-dump-axml prints a BW64 file's parsed ADM graph as YAML,
// for inspecting audioProgramme/Content/Object/PackFormat/ChannelFormat
// structure without a full render.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ebu/ebu-adm-renderer/internal/admxml"
	"github.com/ebu/ebu-adm-renderer/internal/bw64"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <file.wav>\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(pflag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := bw64.Open(f)
	if err != nil {
		return err
	}

	chnaIndex, err := admxml.ParseCHNA(reader.CHNA)
	if err != nil {
		return err
	}
	graph, err := admxml.Parse(reader.AXML, chnaIndex)
	if err != nil {
		return err
	}

	printBanner(path)
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(graph)
}

// printBanner writes the report header with a strftime-formatted timestamp,
// matching the teacher's diagnostic-tool banner convention.
func printBanner(path string) {
	ts, err := strftime.New("%Y-%m-%d %H:%M:%S")
	if err != nil {
		fmt.Printf("# audioFormatExtended dump: %s\n", path)
		return
	}
	fmt.Printf("# audioFormatExtended dump: %s (%s)\n", path, ts.FormatString(time.Now()))
}
