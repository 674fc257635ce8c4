// Command admrender-make-test-bwf synthesises a BW64 fixture from a bare
// speaker-label list and a tone/noise generator, for exercising the
// DirectSpeakers render path (spec §8 scenario A) without needing an
// external fixture file.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/spf13/pflag"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/admxml"
	"github.com/ebu/ebu-adm-renderer/internal/bw64"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

func main() {
	speakers := pflag.StringArray("speaker", nil, "Speaker label to emit a track for (e.g. M+030); repeatable.")
	sampleRate := pflag.Int("sample-rate", 48000, "Output sample rate.")
	seconds := pflag.Float64("seconds", 1.0, "Signal duration in seconds.")
	signal := pflag.String("signal", "sine", "Signal type: sine or noise.")
	freq := pflag.Float64("freq", 1000.0, "Sine frequency in Hz (ignored for noise).")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <out.wav> --speaker LABEL [--speaker LABEL ...] [flags]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 || len(*speakers) == 0 {
		pflag.Usage()
		os.Exit(2)
	}
	if *signal != "sine" && *signal != "noise" {
		fmt.Fprintf(os.Stderr, "unknown --signal %q: want sine or noise\n", *signal)
		os.Exit(2)
	}

	if err := run(pflag.Arg(0), *speakers, *sampleRate, *seconds, *signal, *freq); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outPath string, speakers []string, sampleRate int, seconds float64, signal string, freq float64) error {
	graph, chna := buildGraph(speakers)

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

	writer, err := bw64.CreateFull(out, len(speakers), sampleRate, axmlBytes, chnaBytes)
	if err != nil {
		return err
	}

	numFrames := int(seconds * float64(sampleRate))
	rng := rand.New(rand.NewSource(1))
	frame := make([]float64, len(speakers))
	for n := 0; n < numFrames; n++ {
		for ch := range speakers {
			switch signal {
			case "sine":
				frame[ch] = math.Sin(2 * math.Pi * freq * float64(n) / float64(sampleRate))
			case "noise":
				frame[ch] = rng.Float64()*2 - 1
			}
		}
		if err := writer.WriteFrames(frame); err != nil {
			return err
		}
	}
	return writer.Close()
}

// buildGraph constructs a single programme -> content -> object -> one
// DirectSpeakers audioPackFormat, with one audioChannelFormat/audioTrackUID
// per requested speaker label, each bound 1:1 to a physical track (spec §8
// scenario A's fixture shape). Channel positions come from the BS.2051
// catalogue when the label is recognised, else default to the front centre.
func buildGraph(speakers []string) (*admmodel.Graph, []admxml.CHNAEntry) {
	g := admmodel.NewGraph()

	const packID = "AP_00010001"
	var channelFormatIDs []string
	var trackUIDs []string
	var chna []admxml.CHNAEntry

	for i, label := range speakers {
		trackIdx := i + 1
		cfID := fmt.Sprintf("AC_%08d", 0x00010001+i)
		tuID := fmt.Sprintf("ATU_%08d", trackIdx)

		pos, _ := layout.FindChannelPosition(label)
		g.ChannelFormats[cfID] = admmodel.ChannelFormat{
			ID: cfID, Name: label, Type: admmodel.PackDirectSpeakers,
			BlockFormats: []admmodel.BlockFormat{{
				ID: cfID + "_00000001", Type: admmodel.PackDirectSpeakers, RTime: 0, Duration: 0,
				DirectSpeaker: &admmodel.DirectSpeakersBlock{
					SpeakerLabels: []string{label},
					PositionPolar: &pos,
					Gain:          1,
				},
			}},
		}
		g.TrackUIDs[tuID] = admmodel.TrackUID{
			ID: tuID, TrackIndex: trackIdx, PackFormat: packID, ChannelFormat: cfID,
		}
		chna = append(chna, admxml.CHNAEntry{TrackIndex: trackIdx, UID: tuID, PackFormatID: packID, TrackFormatID: fmt.Sprintf("AT_%08d_01", 0x00010001+i)})
		channelFormatIDs = append(channelFormatIDs, cfID)
		trackUIDs = append(trackUIDs, tuID)
	}

	g.PackFormats[packID] = admmodel.PackFormat{
		ID: packID, Type: admmodel.PackDirectSpeakers, ChannelFormats: channelFormatIDs, Importance: 10,
	}
	g.Objects["AO_1001"] = admmodel.Object{
		ID: "AO_1001", Name: "test object", PackFormat: packID, TrackUIDs: trackUIDs, Importance: 10,
	}
	g.Contents["ACO_1001"] = admmodel.Content{ID: "ACO_1001", Name: "test content", Objects: []string{"AO_1001"}}
	g.Programmes["APR_1001"] = admmodel.Programme{ID: "APR_1001", Name: "test programme", Contents: []string{"ACO_1001"}}

	return g, chna
}
