package sau

/*------------------------------------------------------------------
 *
 * Purpose:	Operator is the program-level sound node: a carrier or a
 *		modulator, addressed everywhere else by its stable OpID.
 *
 *------------------------------------------------------------------*/

// Wave selects an oscillator wave type.
type Wave uint8

const (
	WaveSin Wave = iota
	WaveSqr
	WaveTri
	WaveSaw
	// WaveNone dispatches to the "line" block function: a
	// pure ramp output with no oscillator, useful as a plain envelope
	// modulator that doesn't need its own LFO waveform.
	WaveNone
	// WaveNoise dispatches to the "noise" block function: an LFSR
	// noise generator scaled by the amp ramp, no PILUT involved.
	WaveNoise
)

// OpFlag carries an Operator's attribute bits.
type OpFlag uint16

const (
	// FreqRatio means freq (and freq2) are multipliers against the
	// parent carrier's frequency buffer rather than absolute Hz.
	FreqRatio OpFlag = 1 << iota
	// AmpRatio is carried in the operator's flags, but the block engine
	// does not read it: amp/amp2 are always evaluated as absolute values.
	AmpRatio
	// IsCarrier means this operator is addressable as a Voice root or
	// member of a carrier list, not only as a modulator.
	IsCarrier
)

// Operator is the compiled, identifier-addressable sound node described
// by a Program. Program.Operators is indexed by OpID.
type Operator struct {
	ID    OpID
	Wave  Wave
	Phase uint32 // fixed-point phase offset, u32 turns = full cycle

	Amp  Ramp
	Freq Ramp

	// Freq2/Amp2 are the modulation endpoints: the value freq/amp
	// interpolate toward under fmod/amod wave-envelope modulation.
	Freq2    Ramp
	HasFreq2 bool
	Amp2     Ramp
	HasAmp2  bool

	// Pan is only meaningful when the operator is used as a carrier.
	Pan      Ramp
	HasPan   bool

	Time      Time
	SilenceMs uint32

	FMods ModListID
	PMods ModListID
	AMods ModListID

	Flags OpFlag
}

func (o *Operator) IsFreqRatio() bool { return o.Flags&FreqRatio != 0 }
func (o *Operator) IsAmpRatio() bool  { return o.Flags&AmpRatio != 0 }
func (o *Operator) IsCarrierAttr() bool { return o.Flags&IsCarrier != 0 }

// HasFMods, HasPMods, HasAMods test a modulator slot without needing the
// caller to know about NoModList directly.
func (o *Operator) HasFMods() bool { return o.FMods > NoModList }
func (o *Operator) HasPMods() bool { return o.PMods > NoModList }
func (o *Operator) HasAMods() bool { return o.AMods > NoModList }

// ParamMask selects which Operator sub-fields an Event's op_data entry
// carries. The zero value ParamMask(0) updates nothing; ParamAll marks
// the sole creating event for an operator.
type ParamMask uint16

const (
	ParamWave ParamMask = 1 << iota
	ParamPhase
	ParamAmp
	ParamAmp2
	ParamFreq
	ParamFreq2
	ParamPan
	ParamTime
	ParamSilence
	ParamFMods
	ParamPMods
	ParamAMods
	ParamFlags

	ParamAll = ParamWave | ParamPhase | ParamAmp | ParamAmp2 | ParamFreq |
		ParamFreq2 | ParamPan | ParamTime | ParamSilence | ParamFMods |
		ParamPMods | ParamAMods | ParamFlags
)

// OpData is the partial (or complete, under ParamAll) description of an
// operator's parameters carried by one Event entry. Fields not selected
// in Mask are ignored by ApplyTo.
type OpData struct {
	ID   OpID
	Mask ParamMask

	Wave  Wave
	Phase uint32

	Amp   Ramp
	Amp2  Ramp
	Freq  Ramp
	Freq2 Ramp
	Pan   Ramp

	Time      Time
	SilenceMs uint32

	FMods IDArr
	PMods IDArr
	AMods IDArr

	Flags OpFlag
}

// ApplyTo copies the masked fields of d onto op, interning any modulator
// list fields via table. Ramp sub-fields are copied with Ramp.Copy so a
// GOAL-bearing update restarts Pos.
func (d *OpData) ApplyTo(op *Operator, table *modListTable) {
	if d.Mask&ParamWave != 0 {
		op.Wave = d.Wave
	}
	if d.Mask&ParamPhase != 0 {
		op.Phase = d.Phase
	}
	if d.Mask&ParamAmp != 0 {
		op.Amp.Copy(d.Amp)
	}
	if d.Mask&ParamAmp2 != 0 {
		op.Amp2.Copy(d.Amp2)
		op.HasAmp2 = true
	}
	if d.Mask&ParamFreq != 0 {
		op.Freq.Copy(d.Freq)
	}
	if d.Mask&ParamFreq2 != 0 {
		op.Freq2.Copy(d.Freq2)
		op.HasFreq2 = d.Freq2.Flags&(RampState|RampGoal) != 0
	}
	if d.Mask&ParamPan != 0 {
		op.Pan.Copy(d.Pan)
		op.HasPan = true
	}
	if d.Mask&ParamTime != 0 {
		op.Time = d.Time
	}
	if d.Mask&ParamSilence != 0 {
		op.SilenceMs = d.SilenceMs
	}
	if d.Mask&ParamFMods != 0 {
		op.FMods = table.Intern(d.FMods)
	}
	if d.Mask&ParamPMods != 0 {
		op.PMods = table.Intern(d.PMods)
	}
	if d.Mask&ParamAMods != 0 {
		op.AMods = table.Intern(d.AMods)
	}
	if d.Mask&ParamFlags != 0 {
		op.Flags = d.Flags
	}
}

// ApplyToNode is ApplyTo's runtime-side counterpart: it mutates a live WaveNode instead of the compiled
// Operator table, since an UPDATE event changes an operator that may
// already be mid-render. A wave or phase change reseeds the
// oscillator's differencing state so the next sample picks up cleanly
// at the new phase.
func (d *OpData) ApplyToNode(w *WaveNode, srate int, table *modListTable) {
	oscDirty := d.Mask&(ParamWave|ParamPhase) != 0

	if d.Mask&ParamWave != 0 {
		w.Wave = d.Wave
	}
	if d.Mask&ParamAmp != 0 {
		w.Amp.Copy(d.Amp)
	}
	if d.Mask&ParamAmp2 != 0 {
		w.Amp2.Copy(d.Amp2)
		w.HasAmp2 = true
	}
	if d.Mask&ParamFreq != 0 {
		w.Freq.Copy(d.Freq)
	}
	if d.Mask&ParamFreq2 != 0 {
		w.Freq2.Copy(d.Freq2)
		w.HasFreq2 = d.Freq2.Flags&(RampState|RampGoal) != 0
	}
	if d.Mask&ParamPan != 0 {
		w.Pan.Copy(d.Pan)
		w.HasPan = true
	}
	if d.Mask&ParamTime != 0 {
		w.TimeSamples = int(d.Time.Ms) * srate / 1000
		w.RemainSamples = w.TimeSamples
	}
	if d.Mask&ParamSilence != 0 {
		w.SilenceSamples = int(d.SilenceMs) * srate / 1000
	}
	if d.Mask&ParamFMods != 0 {
		w.FMods = table.Intern(d.FMods)
	}
	if d.Mask&ParamPMods != 0 {
		w.PMods = table.Intern(d.PMods)
	}
	if d.Mask&ParamAMods != 0 {
		w.AMods = table.Intern(d.AMods)
	}
	if d.Mask&ParamFlags != 0 {
		w.Flags = d.Flags
	}

	if oscDirty {
		phase := w.Osc.Phase
		if d.Mask&ParamPhase != 0 {
			phase = d.Phase
		}
		w.Osc.Reset(w.Wave, phase)
	}
}
