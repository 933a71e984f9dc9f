package sau

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// phaseFromTurns maps a phase given in waveform turns onto the 32-bit
// fixed-point phasor, taking only the fractional turn so 1.25 and 0.25
// land on the same phase instead of overflowing the conversion.
func phaseFromTurns(turns float64) uint32 {
	frac := math.Mod(turns, 1)
	if frac < 0 {
		frac += 1
	}
	return uint32(frac * float64(uint64(1)<<32))
}

/*------------------------------------------------------------------
 *
 * Purpose:	The JSON file encoding of ParseTree the command-line tools accept as
 *		input, standing in for whatever a real score-text tokenizer
 *		would otherwise produce. Shared identity between two
 *		references to "the same" operator — the thing OpObj
 *		exists to track — is expressed as a repeated string "ref"
 *		key; the first OpRef carrying a given ref key creates the
 *		OpObj, later ones reuse it.
 *
 *------------------------------------------------------------------*/

type jsonRamp struct {
	V0     *float64 `json:"v0"`
	Vt     *float64 `json:"vt"`
	TimeMs uint32   `json:"time_ms"`
	Curve  string   `json:"curve"`
	Ratio  bool     `json:"ratio"`
}

func (r *jsonRamp) toRamp() Ramp {
	if r == nil {
		return Ramp{}
	}
	var flags RampFlag
	var v0 float64
	if r.V0 != nil {
		v0 = *r.V0
		flags |= RampState
		if r.Ratio {
			flags |= RampStateRatio
		}
	}
	var vt float64
	if r.Vt != nil {
		vt = *r.Vt
		flags |= RampGoal
		if r.Ratio {
			flags |= RampGoalRatio
		}
		if r.TimeMs != 0 {
			flags |= RampTime
		}
	}
	return Ramp{
		V0: v0, Vt: vt, TimeMs: r.TimeMs,
		Curve: curveFromString(r.Curve), Flags: flags,
	}
}

func curveFromString(s string) Curve {
	switch s {
	case "lin":
		return CurveLin
	case "exp":
		return CurveExp
	case "log":
		return CurveLog
	case "xpe":
		return CurveXpe
	case "lge":
		return CurveLge
	case "cos":
		return CurveCos
	default:
		return CurveHold
	}
}

func waveFromString(s string) Wave {
	switch s {
	case "sqr":
		return WaveSqr
	case "tri":
		return WaveTri
	case "saw":
		return WaveSaw
	case "noise":
		return WaveNoise
	case "none", "line":
		return WaveNone
	default:
		return WaveSin
	}
}

type jsonOpData struct {
	Wave      string    `json:"wave"`
	PhaseTurn float64   `json:"phase"`
	Amp       *jsonRamp `json:"amp"`
	Amp2      *jsonRamp `json:"amp2"`
	Freq      *jsonRamp `json:"freq"`
	Freq2     *jsonRamp `json:"freq2"`
	Pan       *jsonRamp `json:"pan"`
	TimeMs    *uint32   `json:"time_ms"`
	SilenceMs uint32    `json:"silence_ms"`
	FreqRatio bool      `json:"freq_ratio"`
	AmpRatio  bool      `json:"amp_ratio"`
}

// toOpData converts one JSON operator-data block. Every ref entry in
// this input format fully restates wave/phase/amp/freq/silence (there
// is no separate sparse-patch shape for a later UPDATE reference to
// the same ref key) — only amp2/freq2/pan are genuinely optional
// sub-features, gated on their JSON field being present at all.
func (d *jsonOpData) toOpData() OpData {
	od := OpData{
		Wave:      waveFromString(d.Wave),
		Phase:     phaseFromTurns(d.PhaseTurn),
		Amp:       d.Amp.toRamp(),
		Amp2:      d.Amp2.toRamp(),
		Freq:      d.Freq.toRamp(),
		Freq2:     d.Freq2.toRamp(),
		Pan:       d.Pan.toRamp(),
		SilenceMs: d.SilenceMs,
		Mask:      ParamWave | ParamPhase | ParamAmp | ParamFreq | ParamSilence,
	}
	if d.Amp2 != nil {
		od.Mask |= ParamAmp2
	}
	if d.Freq2 != nil {
		od.Mask |= ParamFreq2
	}
	if d.Pan != nil {
		od.Mask |= ParamPan
	}
	if d.TimeMs != nil {
		od.Time = Time{Ms: *d.TimeMs, Flags: TimeSet}
		od.Mask |= ParamTime
	}
	if d.FreqRatio {
		od.Flags |= FreqRatio
	}
	if d.AmpRatio {
		od.Flags |= AmpRatio
	}
	od.Mask |= ParamFlags
	return od
}

type jsonListData struct {
	Use  string       `json:"use"`
	Refs []jsonOpRef `json:"refs"`
}

type jsonOpRef struct {
	Use      string         `json:"use"`
	Ref      string         `json:"ref"`
	Nested   bool           `json:"nested"`
	Multiple bool           `json:"multiple"`
	Data     jsonOpData     `json:"data"`
	Mods     []jsonListData `json:"mods"`
}

type jsonFork struct {
	Events []jsonEvent `json:"events"`
}

type jsonEvent struct {
	WaitMs       uint32      `json:"wait_ms"`
	Refs         []jsonOpRef `json:"refs"`
	Forks        []jsonFork  `json:"forks"`
	Key          string      `json:"key"`
	GroupClose   string      `json:"group_close"`
	VoiceSetDur  bool        `json:"voice_set_dur"`
	LockDurScope bool        `json:"lock_dur_scope"`
	WaitPrevDur  bool        `json:"wait_prev_dur"`
	FromGapShift bool        `json:"from_gap_shift"`
}

type jsonTree struct {
	Events []jsonEvent `json:"events"`
}

// DecodeParseTreeFile reads the JSON stand-in format from path and builds a
// ParseTree, resolving ref-key identity into shared *OpObj and
// key/group_close pairs into GroupBackref pointers.
func DecodeParseTreeFile(path string) (*ParseTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parse tree %q: %w", path, err)
	}

	var jt jsonTree
	if err := json.Unmarshal(data, &jt); err != nil {
		return nil, fmt.Errorf("parse parse tree %q: %w", path, err)
	}

	c := &treeConverter{
		objs:   make(map[string]*OpObj),
		events: make(map[string]*ParseEvent),
	}
	return &ParseTree{Events: c.convertEvents(jt.Events)}, nil
}

type treeConverter struct {
	objs   map[string]*OpObj
	events map[string]*ParseEvent
}

func (c *treeConverter) convertEvents(in []jsonEvent) []*ParseEvent {
	out := make([]*ParseEvent, len(in))
	for i, je := range in {
		pe := &ParseEvent{WaitMs: je.WaitMs}

		var flags ParseEventFlag
		if je.VoiceSetDur {
			flags |= VoiceSetDur
		}
		if je.LockDurScope {
			flags |= LockDurScope
		}
		if je.WaitPrevDur {
			flags |= WaitPrevDur
		}
		if je.FromGapShift {
			flags |= FromGapShift
		}
		pe.Flags = flags

		for _, jr := range je.Refs {
			pe.MainRefs = append(pe.MainRefs, c.convertRef(jr))
		}
		for _, jf := range je.Forks {
			pe.Forks = append(pe.Forks, &Fork{Events: c.convertEvents(jf.Events)})
		}

		if je.Key != "" {
			c.events[je.Key] = pe
		}
		if je.GroupClose != "" {
			pe.GroupBackref = c.events[je.GroupClose]
		}

		out[i] = pe
	}
	return out
}

func (c *treeConverter) convertRef(jr jsonOpRef) *OpRef {
	obj, ok := c.objs[jr.Ref]
	if !ok {
		obj = &OpObj{}
		if jr.Ref != "" {
			c.objs[jr.Ref] = obj
		}
	}

	var flags OpRefFlag
	if jr.Nested {
		flags |= RefNested
	}
	if jr.Multiple {
		flags |= RefMultiple
	}

	ref := &OpRef{
		UseType: useFromString(jr.Use),
		Flags:   flags,
		Obj:     obj,
		Data:    jr.Data.toOpData(),
	}

	for _, jld := range jr.Mods {
		ld := ListData{Use: useFromString(jld.Use)}
		for _, child := range jld.Refs {
			ld.Refs = append(ld.Refs, c.convertRef(child))
		}
		ref.Mods = append(ref.Mods, ld)
	}

	return ref
}

func useFromString(s string) UseType {
	switch s {
	case "amod":
		return UseAMod
	case "fmod":
		return UseFMod
	case "pmod":
		return UsePMod
	default:
		return UseCarr
	}
}
