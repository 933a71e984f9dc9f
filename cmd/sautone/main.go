package main

/*------------------------------------------------------------------
 *
 * Purpose:	Quick test program for generating tones without any input
 *		file: builds a two-event program by hand (a plain sine,
 *		then a second carrier amplitude-modulated by a 4 Hz sine)
 *		and renders it to a WAV file. Useful as a smoke test of
 *		the whole pipeline below the parse-tree layer.
 *
 *------------------------------------------------------------------*/

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	sau "github.com/doismellburning/sau/src"
)

func main() {
	var out = pflag.StringP("out", "o", "sautone.wav", "Output WAV path")
	var rate = pflag.IntP("rate", "r", 48000, "Sample rate in Hz")
	var freq = pflag.Float64P("freq", "f", 440, "Tone frequency in Hz")

	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "sautone"})
	sau.SetLogger(logger)

	tree := &sau.ParseTree{Events: []*sau.ParseEvent{
		{MainRefs: []*sau.OpRef{toneRef(*freq, 1000)}},
		{WaitMs: 1200, MainRefs: []*sau.OpRef{tremoloRef(*freq, 1000)}},
	}}

	flat := sau.RunTimingPasses(tree)
	program := sau.BuildProgram(flat, 0, "sautone")

	rt, err := sau.PreAlloc(program, *rate, sau.DefaultWaveProfile())
	if err != nil {
		logger.Fatal("pre-allocation failed", "err", err)
	}

	sink, err := sau.NewWAVSink(*out, *rate, 2)
	if err != nil {
		logger.Fatal("opening output", "err", err)
	}

	g := sau.NewGenerator(rt, 2, false)
	if err := sau.RenderTo(g, sink, 2); err != nil {
		logger.Fatal("render failed", "err", err)
	}
	logger.Info("wrote tone", "path", *out, "freq", *freq)
}

func constRamp(v float64) sau.Ramp {
	return sau.Ramp{V0: v, Flags: sau.RampState}
}

func toneRef(freq float64, ms uint32) *sau.OpRef {
	return &sau.OpRef{
		UseType: sau.UseCarr,
		Obj:     &sau.OpObj{},
		Data: sau.OpData{
			Wave: sau.WaveSin,
			Amp:  constRamp(0.5),
			Freq: constRamp(freq),
			Time: sau.Time{Ms: ms, Flags: sau.TimeSet},
			Mask: sau.ParamAll,
		},
	}
}

func tremoloRef(freq float64, ms uint32) *sau.OpRef {
	carrier := toneRef(freq, ms)
	carrier.Mods = []sau.ListData{{
		Use: sau.UseAMod,
		Refs: []*sau.OpRef{{
			UseType: sau.UseAMod,
			Flags:   sau.RefNested,
			Obj:     &sau.OpObj{},
			Data: sau.OpData{
				Wave: sau.WaveSin,
				Amp:  constRamp(1),
				Freq: constRamp(4),
				Mask: sau.ParamAll,
			},
		}},
	}}
	return carrier
}
