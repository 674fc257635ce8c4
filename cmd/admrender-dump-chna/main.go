// Command admrender-dump-chna prints a BW64 file's CHNA table (audioTrackUID
// to physical track index mapping) as YAML.
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

	ts, tsErr := strftime.New("%Y-%m-%d %H:%M:%S")
	if tsErr == nil {
		fmt.Printf("# chna dump: %s (%s)\n", path, ts.FormatString(time.Now()))
	} else {
		fmt.Printf("# chna dump: %s\n", path)
	}

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(chnaIndex)
}
