// Command admrender is the render entry point of spec §6:
//
//	admrender <in> <out> -s <target_layout> [-l <speakers_file>]
//	  [--output-gain-db G] [--fail-on-overload] [--enable-block-duration-fix]
//	  [--programme ID] [--comp-object ID]... [--apply-conversion MODE] [--strict]
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/admxml"
	"github.com/ebu/ebu-adm-renderer/internal/bw64"
	"github.com/ebu/ebu-adm-renderer/internal/config"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/logging"
	"github.com/ebu/ebu-adm-renderer/internal/monitor"
	"github.com/ebu/ebu-adm-renderer/internal/render"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
	"github.com/ebu/ebu-adm-renderer/internal/selection"
	"github.com/ebu/ebu-adm-renderer/internal/trackspec"
)

// defaultRefScreen is the BS.2127 default reference screen: centred, 30
// degree half-width, square aspect.
func defaultRefScreen() geom.Screen {
	return geom.Screen{CentreAzimuth: 0, CentreElevation: 0, HalfWidth: 30, AspectRatio: 1}
}

const chunkSize = 4096

func main() {
	targetLayout := pflag.StringP("layout", "s", "", "Target reproduction layout name (e.g. 0+5+0).")
	speakersFile := pflag.StringP("speakers-file", "l", "", "Optional speakers YAML file overriding real positions/gains/screen.")
	outputGainDB := pflag.Float64("output-gain-db", 0, "Output gain applied to every sample, in dB.")
	failOnOverload := pflag.Bool("fail-on-overload", false, "Abort on the first output sample exceeding full scale.")
	durationFix := pflag.Bool("enable-block-duration-fix", false, "Extend a block's duration to close a timing gap instead of erroring.")
	programmeID := pflag.String("programme", "", "audioProgramme ID to render; defaults to the first in ID order.")
	compObjects := pflag.StringArray("comp-object", nil, "audioObject ID to select within its complementary group; repeatable.")
	applyConversion := pflag.String("apply-conversion", "", "Coordinate conversion mode: to_cartesian or to_polar.")
	strict := pflag.Bool("strict", false, "Promote accumulated warnings to a final error.")
	debug := pflag.Bool("debug", false, "Attach diagnostic context (item path, block rtime) to errors and enable verbose logging.")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <in.wav> <out.wav> -s <layout> [flags]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	logger := logging.New(*debug)

	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(2)
	}
	if *targetLayout == "" {
		logger.Fatal("missing required flag", "flag", "-s/--layout")
	}
	if *applyConversion != "" && *applyConversion != "to_cartesian" && *applyConversion != "to_polar" {
		logger.Fatal("invalid --apply-conversion value", "value", *applyConversion)
	}

	if err := run(pflag.Arg(0), pflag.Arg(1), runOptions{
		targetLayout:    *targetLayout,
		speakersFile:    *speakersFile,
		outputGainDB:    *outputGainDB,
		failOnOverload:  *failOnOverload,
		durationFix:     *durationFix,
		programmeID:     *programmeID,
		compObjects:     *compObjects,
		applyConversion: *applyConversion,
		strict:          *strict,
		debug:           *debug,
	}, logger); err != nil {
		logger.Fatal("render failed", "err", err)
	}
}

type runOptions struct {
	targetLayout    string
	speakersFile    string
	outputGainDB    float64
	failOnOverload  bool
	durationFix     bool
	programmeID     string
	compObjects     []string
	applyConversion string
	strict          bool
	debug           bool
}

func run(inPath, outPath string, opts runOptions, logger *log.Logger) error {
	l, ok := layout.Named(opts.targetLayout)
	if !ok {
		return rendererrors.New(rendererrors.LayoutError, "unknown target layout %q", opts.targetLayout)
	}

	reproScreen := defaultRefScreen()
	if opts.speakersFile != "" {
		f, err := config.LoadSpeakersFile(opts.speakersFile)
		if err != nil {
			return err
		}
		l, err = f.Apply(l)
		if err != nil {
			return err
		}
		if s, ok := f.ReproductionScreen(); ok {
			reproScreen = s
		}
	}

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
	if opts.durationFix {
		render.FixBlockGaps(graph)
	} else if err := render.ValidateTiming(graph); err != nil {
		return err
	}

	warnings := rendererrors.NewWarnings()
	if opts.applyConversion == "to_cartesian" {
		warnings.Add("--apply-conversion to_cartesian requested: this build always normalises to polar before panning (see DESIGN.md)")
	}
	selOpts := selection.Options{ProgrammeID: opts.programmeID}
	if len(opts.compObjects) > 0 {
		choices, err := selection.ResolveComplementaryChoices(graph, opts.compObjects)
		if err != nil {
			return err
		}
		selOpts.Complementary = choices
	}

	plans, err := render.Plan(graph, l, reader.SampleRate(), render.Options{
		Selection:   selOpts,
		RefScreen:   defaultRefScreen(),
		ReproScreen: reproScreen,
	}, warnings)
	if err != nil {
		ctx := rendererrors.Context{Debug: opts.debug}
		return ctx.Attach(err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return rendererrors.Wrap(rendererrors.RenderError, err, "creating %q", outPath)
	}
	defer out.Close()

	writer, err := bw64.Create(out, l.NumChannels(), reader.SampleRate())
	if err != nil {
		return err
	}

	proc := &trackspec.Processor{Source: reader}
	mon := monitor.New(opts.outputGainDB, opts.failOnOverload)

	totalSamples := renderDurationSamples(graph, reader.SampleRate())
	nOut := l.NumChannels()
	err = render.Run(plans, proc, mon, nOut, totalSamples, chunkSize, func(chunk []float64) error {
		defer reader.Advance(len(chunk) / nOut)
		return writer.WriteFrames(chunk)
	})
	if err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	for _, line := range warnings.Summary() {
		logger.Warn(line)
	}
	if opts.strict && !warnings.Empty() {
		return warnings.AsError()
	}
	logger.Info("render complete", "peak", mon.Peak(), "channels", l.NumChannels())
	return nil
}

// renderDurationSamples is the last block's end time across every channel
// format in the graph, the render's total output length.
func renderDurationSamples(g *admmodel.Graph, sampleRate int) int {
	var end float64
	for _, cf := range g.ChannelFormats {
		for _, bf := range cf.BlockFormats {
			if e := bf.End(); e > end {
				end = e
			}
		}
	}
	return int(end*float64(sampleRate) + 0.5)
}
