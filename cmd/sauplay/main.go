package main

/*------------------------------------------------------------------
 *
 * Purpose:	sauplay renders a JSON-encoded parse tree straight to the
 *		default audio output device via PortAudio, instead of a
 *		file. The core pipeline is identical to sauc's; only the
 *		sink differs.
 *
 *------------------------------------------------------------------*/

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	sau "github.com/doismellburning/sau/src"
)

// paSink adapts a blocking PortAudio output stream to sau.Sink. The
// stream's own buffer is sized to sau.BufLen frames, the unit RenderTo
// delivers, so every WriteFrames maps onto exactly one stream write.
type paSink struct {
	stream   *portaudio.Stream
	buf      []int16
	channels int
}

func newPASink(rate, channels int) (*paSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	s := &paSink{
		buf:      make([]int16, sau.BufLen*channels),
		channels: channels,
	}
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(rate), sau.BufLen, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

func (s *paSink) WriteFrames(pcm []int16, frames int) error {
	// The final chunk of a render may be shorter than the stream
	// buffer; pad with silence rather than re-open a smaller stream.
	n := copy(s.buf, pcm)
	for i := n; i < len(s.buf); i++ {
		s.buf[i] = 0
	}
	return s.stream.Write()
}

func (s *paSink) Close() error {
	err := s.stream.Stop()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

func main() {
	var in = pflag.StringP("in", "i", "", "JSON parse-tree input file")
	var rate = pflag.IntP("rate", "r", 48000, "Sample rate in Hz")
	var channels = pflag.IntP("channels", "c", 2, "Output channels, 1 or 2")
	var ampDivVoices = pflag.Bool("amp-div-voices", false, "Divide each voice's amplitude by the voice count")
	var waveProfile = pflag.String("wave-profile", "", "Optional YAML wave-profile file")
	var help = pflag.Bool("help", false, "Display help text")

	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "sauplay"})
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
	logger.Info("playing", "voices", program.VoiceCount, "duration_ms", program.DurationMs)

	rt, err := sau.PreAlloc(program, cfg.SampleRate, profile)
	if err != nil {
		logger.Fatal("pre-allocation failed", "err", err)
	}

	sink, err := newPASink(cfg.SampleRate, cfg.Channels)
	if err != nil {
		logger.Fatal("opening audio device", "err", err)
	}

	g := sau.NewGenerator(rt, cfg.Channels, program.AmpDivVoices())
	if err := sau.RenderTo(g, sink, cfg.Channels); err != nil {
		logger.Fatal("playback failed", "err", err)
	}
}
