package sau

/*------------------------------------------------------------------
 *
 * Purpose:	The runtime (generator-side) mirrors of the program-level
 *		entities. PreAlloc builds these once from a
 *		Program; they live for the whole render and are never
 *		reallocated mid-stream.
 *
 *------------------------------------------------------------------*/

// Osc holds the oscillator's running state: the PILUT differentiation
// needs the previous phase/integral/difference to compute each new
// sample.
type Osc struct {
	Phase     uint32
	PrevPhase uint32
	PrevIs    float64
	PrevDiffS float64
	PhaseAdj  uint32
	NoiseReg  uint32 // xorshift32 state, only meaningful for WaveNoise
}

// SoundNode is the common runtime state of every operator: how long it
// has left to run, its amplitude/pan ramps, and its amod list — the
// parts that apply regardless of whether the node is a wave oscillator,
// a bare ramp ("line"), or a noise source.
type SoundNode struct {
	OpID           OpID
	TimeSamples    int // total resolved duration in samples
	RemainSamples  int // samples remaining before this node goes inactive
	SilenceSamples int // silence_ms padding still to elapse before output starts

	Amp     Ramp
	Amp2    Ramp
	HasAmp2 bool
	Pan     Ramp
	HasPan  bool

	AMods ModListID
	Flags OpFlag

	visited bool // cycle guard for modulator-graph recursion
}

func (s *SoundNode) HasAMods() bool    { return s.AMods > NoModList }
func (s *SoundNode) IsAmpRatio() bool  { return s.Flags&AmpRatio != 0 }
func (s *SoundNode) IsFreqRatio() bool { return s.Flags&FreqRatio != 0 }

// WaveNode is a SoundNode plus the oscillator, frequency ramps, and
// fmod/pmod lists only a wave-producing node needs.
type WaveNode struct {
	SoundNode

	Wave  Wave
	Osc   Osc
	Freq  Ramp
	Freq2 Ramp

	HasFreq2 bool

	FMods ModListID
	PMods ModListID
}

func (w *WaveNode) HasFMods() bool { return w.FMods > NoModList }
func (w *WaveNode) HasPMods() bool { return w.PMods > NoModList }

// VoiceNode is the runtime carrier context: the root sound and the
// delay (in samples) still pending before its first event fires.
type VoiceNode struct {
	Root         *WaveNode
	DelaySamples int
}

// EventStatus carries an EventNode's PREPARED/UPDATE/ACTIVE bits.
type EventStatus uint8

const (
	EvPrepared EventStatus = 1 << iota
	EvUpdate
	EvActive
)

// EventNode is the runtime mirror of a Program Event: which sound it
// touches, its position (negative while a delay is still pending,
// while a delay is still pending), and its status bits.
type EventNode struct {
	Sound       *WaveNode
	VoiceID     VoiceID
	Pos         int
	Status      EventStatus
	RefEventIdx int
}

func (e *EventNode) IsPrepared() bool { return e.Status&EvPrepared != 0 }
func (e *EventNode) IsUpdate() bool   { return e.Status&EvUpdate != 0 }
func (e *EventNode) IsActive() bool   { return e.Status&EvActive != 0 }
