package main

/*------------------------------------------------------------------
 *
 * Purpose:	sauc renders a JSON-encoded parse tree (the stand-in for
 *		the external score-text tokenizer's output) to a sound
 *		file: RAW, WAV, or AU. The whole compilation pipeline runs
 *		here — timing passes, program build, pre-allocation,
 *		generation — with the resulting PCM streamed to the chosen
 *		file sink.
 *
 *------------------------------------------------------------------*/

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	sau "github.com/doismellburning/sau/src"
)

func main() {
	var in = pflag.StringP("in", "i", "", "JSON parse-tree input file")
	var rate = pflag.IntP("rate", "r", 48000, "Sample rate in Hz")
	var channels = pflag.IntP("channels", "c", 2, "Output channels, 1 or 2")
	var ampDivVoices = pflag.Bool("amp-div-voices", false, "Divide each voice's amplitude by the voice count")
	var format = pflag.StringP("format", "f", "wav", "Output format: raw, wav or au")
	var out = pflag.StringP("out", "o", "", "Output path (overrides --out-pattern)")
	var outPattern = pflag.String("out-pattern", "out-%Y%m%d-%H%M%S.wav", "strftime pattern for a default output path")
	var waveProfile = pflag.String("wave-profile", "", "Optional YAML wave-profile file")
	var verbose = pflag.BoolP("verbose", "v", false, "Debug-level logging")
	var help = pflag.Bool("help", false, "Display help text")

	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "sauc"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}
	sau.SetLogger(logger)

	if *help || *in == "" {
		pflag.Usage()
		if *in == "" && !*help {
			logger.Fatal("--in is required")
		}
		return
	}
	cfg := sau.RenderConfig{SampleRate: *rate, Channels: *channels, AmpDivVoices: *ampDivVoices}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		logger.Fatal("--channels must be 1 or 2", "channels", cfg.Channels)
	}

	profile := sau.DefaultWaveProfile()
	if *waveProfile != "" {
		var err error
		profile, err = sau.LoadWaveProfile(*waveProfile)
		if err != nil {
			logger.Fatal("loading wave profile", "err", err)
		}
	}

	tree, err := sau.DecodeParseTreeFile(*in)
	if err != nil {
		logger.Fatal("loading parse tree", "err", err)
	}

	var mode sau.ProgramMode
	if cfg.AmpDivVoices {
		mode |= sau.ModeAmpDivVoices
	}

	flat := sau.RunTimingPasses(tree)
	program := sau.BuildProgram(flat, mode, *in)
	logger.Info("compiled program",
		"events", len(program.Events),
		"voices", program.VoiceCount,
		"operators", program.OpCount,
		"duration_ms", program.DurationMs)

	rt, err := sau.PreAlloc(program, cfg.SampleRate, profile)
	if err != nil {
		logger.Fatal("pre-allocation failed", "err", err)
	}

	path := *out
	if path == "" {
		path, err = strftime.Format(*outPattern, time.Now())
		if err != nil {
			logger.Fatal("bad --out-pattern", "pattern", *outPattern, "err", err)
		}
	}

	sink, err := openSink(*format, path, cfg.SampleRate, cfg.Channels)
	if err != nil {
		logger.Fatal("opening output", "err", err)
	}

	g := sau.NewGenerator(rt, cfg.Channels, program.AmpDivVoices())
	if err := sau.RenderTo(g, sink, cfg.Channels); err != nil {
		logger.Fatal("render failed", "err", err)
	}
	logger.Info("render complete", "path", path)
}

func openSink(format, path string, rate, channels int) (sau.Sink, error) {
	switch format {
	case "raw":
		return sau.NewRawSink(path)
	case "au":
		return sau.NewAUSink(path, rate, channels)
	default:
		return sau.NewWAVSink(path, rate, channels)
	}
}
