// Command admrender-replace-axml splices a new AXML chunk into an existing
// BW64 file, leaving the CHNA table and audio data untouched.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ebu/ebu-adm-renderer/internal/bw64"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <in.wav> <new.axml> <out.wav>\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 3 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(pflag.Arg(0), pflag.Arg(1), pflag.Arg(2)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inPath, axmlPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return rendererrors.Wrap(rendererrors.RenderError, err, "opening %q", inPath)
	}
	defer in.Close()

	reader, err := bw64.Open(in)
	if err != nil {
		return rendererrors.Wrap(rendererrors.AdmParseError, err, "reading %q", inPath)
	}

	newAXML, err := os.ReadFile(axmlPath)
	if err != nil {
		return rendererrors.Wrap(rendererrors.RenderError, err, "reading %q", axmlPath)
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

	writer, err := bw64.CreateFull(out, reader.NumTracks(), reader.SampleRate(), newAXML, reader.CHNA)
	if err != nil {
		return err
	}
	if err := writer.WriteRawBytes(data); err != nil {
		return err
	}
	return writer.Close()
}
