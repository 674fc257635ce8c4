// Command admrender-regenerate parses a BW64 file's ADM graph and
// re-serialises it back to AXML, exercising the "canonical both directions"
// rule of spec §9 for the audioTrackFormat/audioStreamFormat reference. The
// CHNA table and audio data are carried through unchanged; only the AXML
// chunk is replaced with the regenerated document.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/ebu/ebu-adm-renderer/internal/admxml"
	"github.com/ebu/ebu-adm-renderer/internal/bw64"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <in.wav> <out.wav>\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(pflag.Arg(0), pflag.Arg(1)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return rendererrors.Wrap(rendererrors.RenderError, err, "opening %q", inPath)
	}
	defer in.Close()

	reader, err := bw64.Open(in)
	if err != nil {
		return rendererrors.Wrap(rendererrors.AdmParseError, err, "reading %q", inPath)
	}

	chnaIndex, err := admxml.ParseCHNA(reader.CHNA)
	if err != nil {
		return err
	}
	graph, err := admxml.Parse(reader.AXML, chnaIndex)
	if err != nil {
		return err
	}

	regenerated, err := admxml.Write(graph)
	if err != nil {
		return rendererrors.Wrap(rendererrors.AdmParseError, err, "regenerating AXML")
	}

	data, err := reader.DataBytes()
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return rendererrors.Wrap(rendererrors.RenderError, err, "creating %q", outPath)
	}
	defer out.Close()

	writer, err := bw64.CreateFull(out, reader.NumTracks(), reader.SampleRate(), regenerated, reader.CHNA)
	if err != nil {
		return err
	}
	if err := writer.WriteRawBytes(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	printBanner(inPath, outPath, len(regenerated))
	return nil
}

// printBanner writes a strftime-formatted summary line, matching the
// dump_axml/dump_chna diagnostic-tool banner convention.
func printBanner(inPath, outPath string, axmlBytes int) {
	ts, err := strftime.New("%Y-%m-%d %H:%M:%S")
	if err != nil {
		fmt.Printf("# regenerated %s -> %s\n", inPath, outPath)
		return
	}
	fmt.Printf("# regenerated %s -> %s (%d AXML bytes, %s)\n", inPath, outPath, axmlBytes, ts.FormatString(time.Now()))
}
