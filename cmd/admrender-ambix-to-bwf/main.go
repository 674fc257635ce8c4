// Command admrender-ambix-to-bwf wraps a raw ambiX (ACN channel ordering,
// SN3D/N3D/FuMa normalisation) 16-bit PCM sample stream in a BW64 container
// with a synthesised HOA audioPackFormat/audioChannelFormat set, for
// exercising the HOA render path (spec §8 scenario E) from a bare raw
// ambisonic recording.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/admxml"
	"github.com/ebu/ebu-adm-renderer/internal/bw64"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

func main() {
	order := pflag.Int("order", 1, "Ambisonic order.")
	sampleRate := pflag.Int("sample-rate", 48000, "Sample rate of the raw ambiX stream.")
	normalization := pflag.String("normalization", "SN3D", "HOA normalization: SN3D, N3D or FuMa.")
	nfcRefDist := pflag.Float64("nfc-ref-dist", 0, "Near-field compensation reference distance (0 disables NFC).")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <raw.pcm> <out.wav> --order N [flags]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(2)
	}
	if *order < 0 {
		fmt.Fprintln(os.Stderr, "--order must be >= 0")
		os.Exit(2)
	}

	if err := run(pflag.Arg(0), pflag.Arg(1), *order, *sampleRate, *normalization, *nfcRefDist); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inPath, outPath string, order, sampleRate int, normalizationName string, nfcRefDist float64) error {
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return rendererrors.Wrap(rendererrors.RenderError, err, "reading %q", inPath)
	}

	numChannels := (order + 1) * (order + 1)
	norm := parseNormalization(normalizationName)

	graph, chna := buildHOAGraph(order, numChannels, norm, nfcRefDist)

	axmlBytes, err := admxml.Write(graph)
	if err != nil {
		return rendererrors.Wrap(rendererrors.AdmParseError, err, "serialising synthetic AXML")
	}
	chnaBytes := admxml.WriteCHNA(chna)

	out, err := os.Create(outPath)
	if err != nil {
		return rendererrors.Wrap(rendererrors.RenderError, err, "creating %q", outPath)
	}
	defer out.Close()

	writer, err := bw64.CreateFull(out, numChannels, sampleRate, axmlBytes, chnaBytes)
	if err != nil {
		return err
	}
	if err := writer.WriteRawBytes(raw); err != nil {
		return err
	}
	return writer.Close()
}

func parseNormalization(s string) admmodel.HOANormalization {
	switch s {
	case "N3D":
		return admmodel.NormN3D
	case "FuMa":
		return admmodel.NormFuMa
	default:
		return admmodel.NormSN3D
	}
}

// acnOrderDegree maps an ACN channel index to its (order, degree) pair:
// index i = n^2 + n + m for order n and degree m in [-n, n].
func acnOrderDegree(i int) (n, m int) {
	n = 0
	for (n+1)*(n+1) <= i {
		n++
	}
	m = i - n*n - n
	return n, m
}

// buildHOAGraph constructs one programme -> content -> object -> one HOA
// audioPackFormat with numChannels audioChannelFormats (one per ACN index),
// each bound 1:1 to a physical track, matching spec §4.5's "a single
// rendering item carries order/degree/normalization... per input channel".
func buildHOAGraph(order, numChannels int, norm admmodel.HOANormalization, nfcRefDist float64) (*admmodel.Graph, []admxml.CHNAEntry) {
	g := admmodel.NewGraph()

	const packID = "AP_00040001"
	var channelFormatIDs []string
	var trackUIDs []string
	var chna []admxml.CHNAEntry

	for i := 0; i < numChannels; i++ {
		n, m := acnOrderDegree(i)
		trackIdx := i + 1
		cfID := fmt.Sprintf("AC_%08d", 0x00040001+i)
		tuID := fmt.Sprintf("ATU_%08d", trackIdx)

		g.ChannelFormats[cfID] = admmodel.ChannelFormat{
			ID: cfID, Name: fmt.Sprintf("HOA %d,%d", n, m), Type: admmodel.PackHOA,
			BlockFormats: []admmodel.BlockFormat{{
				ID: cfID + "_00000001", Type: admmodel.PackHOA, RTime: 0, Duration: 0,
				HOA: &admmodel.HOABlock{Order: n, Degree: m, Normalization: norm, NFCRefDist: nfcRefDist},
			}},
		}
		g.TrackUIDs[tuID] = admmodel.TrackUID{ID: tuID, TrackIndex: trackIdx, PackFormat: packID, ChannelFormat: cfID}
		chna = append(chna, admxml.CHNAEntry{TrackIndex: trackIdx, UID: tuID, PackFormatID: packID, TrackFormatID: fmt.Sprintf("AT_%08d_01", 0x00040001+i)})
		channelFormatIDs = append(channelFormatIDs, cfID)
		trackUIDs = append(trackUIDs, tuID)
	}

	g.PackFormats[packID] = admmodel.PackFormat{
		ID: packID, Type: admmodel.PackHOA, ChannelFormats: channelFormatIDs,
		Normalization: norm, NFCRefDist: nfcRefDist, Importance: 10,
	}
	g.Objects["AO_2001"] = admmodel.Object{
		ID: "AO_2001", Name: "ambisonic bed", PackFormat: packID, TrackUIDs: trackUIDs, Importance: 10,
	}
	g.Contents["ACO_2001"] = admmodel.Content{ID: "ACO_2001", Name: "ambisonic content", Objects: []string{"AO_2001"}}
	g.Programmes["APR_2001"] = admmodel.Programme{ID: "APR_2001", Name: "ambisonic programme", Contents: []string{"ACO_2001"}}

	return g, chna
}
