package sau

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	The block engine: renders one node's next n
 *		samples, recursing into its fmod/pmod/amod graphs as
 *		needed. Three block functions cover the three node kinds
 *		a Wave selects between: renderWave (an oscillating
 *		carrier or modulator), renderLine (a bare ramp, no
 *		oscillator), and renderNoise (an LFSR source). All
 *		three share one amp-ramp/amod evaluation path since every
 *		node kind carries an amplitude.
 *
 *		Modulators render in one of two layering modes. Audio
 *		layers (carrier output, PM sources) are bipolar and sum.
 *		Wave-envelope layers (AM sources, FM interpolants) are
 *		rescaled to 0..|amp| as s*|amp/2| + |amp/2| and multiply
 *		into one another, so stacked envelopes gate rather than
 *		add.
 *
 *------------------------------------------------------------------*/

// scratchArena is the bump-allocated pool of scratch Bufs PreAlloc sized
// to RuntimeProgram.MaxBufs. It behaves like a stack: Mark/Reset let a
// modulator sub-recursion give back every Buf it touched as soon as its
// result has been folded into the caller's buffer, so sibling modulator
// chains (never live at the same time) can reuse the same slots.
type scratchArena struct {
	bufs []Buf
	top  int
}

func newScratchArena(n int) *scratchArena {
	if n < 1 {
		n = 1
	}
	return &scratchArena{bufs: make([]Buf, n)}
}

func (a *scratchArena) Mark() int { return a.top }

func (a *scratchArena) Reset(mark int) { a.top = mark }

// Alloc reserves the next free Buf and returns its first n floats. A
// panic here means PreAlloc's calcBufsFor under-counted the worst-case
// traversal depth, which is a programming error in this package, not a
// malformed-input condition callers need to recover from.
func (a *scratchArena) Alloc(n int) []float64 {
	if a.top >= len(a.bufs) {
		panic("sau: scratch arena exhausted, PreAlloc under-sized MaxBufs")
	}
	b := &a.bufs[a.top]
	a.top++
	return b[:n]
}

// runSound renders the next n samples of node, recursing through its
// modulator graph, and returns the mono signal. n must not exceed
// BufLen; the Generator is responsible for chunking a run_sound call
// against both BufLen and the node's own RemainSamples.
func runSound(rt *RuntimeProgram, arena *scratchArena, node *WaveNode, n int) []float64 {
	return renderNode(rt, arena, node, nil, n, false)
}

// renderNode dispatches on node's Wave and applies the cycle guard: a
// node already on the current recursion path (a modulator graph that
// loops back on itself) contributes silence instead of recursing
// forever. envelope selects the wave-envelope layering mode for
// AM/FM sources.
func renderNode(rt *RuntimeProgram, arena *scratchArena, node *WaveNode, parentFreq []float64, n int, envelope bool) []float64 {
	if node.visited {
		buf := arena.Alloc(n)
		for i := range buf {
			buf[i] = 0
		}
		return buf
	}
	node.visited = true
	defer func() { node.visited = false }()

	switch node.Wave {
	case WaveNone:
		return renderLine(rt, arena, node, n)
	case WaveNoise:
		return renderNoise(rt, arena, node, n, envelope)
	default:
		return renderWave(rt, arena, node, parentFreq, n, envelope)
	}
}

// evalAmp evaluates a node's amp ramp and, if it carries an amod list,
// slides it toward amp2 (or zero, absent a dynamp endpoint) by the amod
// graph's wave-envelope output: the envelope scales (dynamp - amp)
// and adds amp back, so a full-swing envelope sweeps between the two.
func evalAmp(rt *RuntimeProgram, arena *scratchArena, node *SoundNode, n int) []float64 {
	amp := arena.Alloc(n)
	node.Amp.Run(amp, rt.SampleRate, nil)

	if !node.HasAMods() {
		return amp
	}

	mark := arena.Mark()
	env := renderModListEnv(rt, arena, node.AMods, nil, n)

	var dyn []float64
	if node.HasAmp2 {
		dyn = arena.Alloc(n)
		node.Amp2.Run(dyn, rt.SampleRate, nil)
	}

	for i := 0; i < n; i++ {
		d := 0.0
		if dyn != nil {
			d = dyn[i]
		}
		amp[i] += (d - amp[i]) * env[i]
	}
	arena.Reset(mark)

	return amp
}

// renderLine is the block function for WaveNone: the amp ramp (after
// amod blending) is the entire signal, with no oscillator underneath.
// The same buffer serves both layering modes, since a bare ramp is its
// own envelope.
func renderLine(rt *RuntimeProgram, arena *scratchArena, node *WaveNode, n int) []float64 {
	return evalAmp(rt, arena, &node.SoundNode, n)
}

// renderNoise is the block function for WaveNoise: an LFSR source
// scaled by the amp ramp, no PILUT involved.
func renderNoise(rt *RuntimeProgram, arena *scratchArena, node *WaveNode, n int, envelope bool) []float64 {
	amp := evalAmp(rt, arena, &node.SoundNode, n)
	mix := arena.Alloc(n)
	for i := 0; i < n; i++ {
		s := node.Osc.NextNoise()
		if envelope {
			half := math.Abs(amp[i] * 0.5)
			mix[i] = s*half + half
		} else {
			mix[i] = s * amp[i]
		}
	}
	return mix
}

// renderWave is the block function for an oscillating wave type: build
// the per-sample frequency (ratio-scaled against the parent and/or
// fmod-modulated), advance the phasor (offset by any pmod), evaluate
// the PILUT oscillator, and scale by the amp (amod-blended) buffer.
// Frequency, phase, amplitude, oscillator, in that order.
func renderWave(rt *RuntimeProgram, arena *scratchArena, node *WaveNode, parentFreq []float64, n int, envelope bool) []float64 {
	srate := rt.SampleRate

	freq := arena.Alloc(n)
	node.Freq.Run(freq, srate, nil)
	if node.IsFreqRatio() && parentFreq != nil {
		for i := 0; i < n; i++ {
			freq[i] *= parentFreq[i]
		}
	}

	if node.HasFMods() {
		mark := arena.Mark()
		if node.HasFreq2 {
			// Interpolate toward the dynfreq endpoint by the FM
			// wave-envelope.
			env := renderModListEnv(rt, arena, node.FMods, freq, n)
			freq2 := arena.Alloc(n)
			node.Freq2.Run(freq2, srate, nil)
			if node.IsFreqRatio() && parentFreq != nil {
				for i := 0; i < n; i++ {
					freq2[i] *= parentFreq[i]
				}
			}
			for i := 0; i < n; i++ {
				freq[i] += (freq2[i] - freq[i]) * env[i]
			}
		} else {
			// No dynfreq endpoint: the fmod list scales the carrier
			// frequency by its own bipolar output, so a unit modulator
			// with amp a swings freq between freq*(1-a) and freq*(1+a).
			fm := renderModListAudio(rt, arena, node.FMods, freq, n)
			for i := 0; i < n; i++ {
				freq[i] *= 1 + fm[i]
			}
		}
		arena.Reset(mark)
	}

	phase := arena.Alloc(n)
	var pmSignal []float64
	pmMark := arena.Mark()
	if node.HasPMods() {
		pmSignal = renderModListAudio(rt, arena, node.PMods, freq, n)
	}
	depth := rt.Profile.MaxPMDepth
	for i := 0; i < n; i++ {
		node.Osc.Phase += PhaseStep(freq[i], srate)
		p := node.Osc.Phase
		if pmSignal != nil {
			// Phase-mod operand scaling: a unit bipolar signal sweeps a
			// full turn of the phasor,
			// clamped to the configured maximum modulation depth so an
			// extreme pmod amplitude can't wrap the phase many times
			// over within a single sample and alias badly.
			s := clamp(pmSignal[i], -depth, depth)
			p += uint32(int64(s * float64(uint32(1)<<31)))
		}
		phase[i] = float64(p)
	}
	if node.HasPMods() {
		arena.Reset(pmMark)
	}

	amp := evalAmp(rt, arena, &node.SoundNode, n)

	mix := arena.Alloc(n)
	for i := 0; i < n; i++ {
		s := node.Osc.Next(node.Wave, uint32(phase[i]))
		if envelope {
			half := math.Abs(amp[i] * 0.5)
			mix[i] = s*half + half
		} else {
			mix[i] = s * amp[i]
		}
	}

	return mix
}

// renderModListAudio recurses into every operator id in list and sums
// their bipolar output, each sub-recursion's scratch reclaimed via
// Mark/Reset as soon as it has been folded in (so sibling list members
// don't each need their own permanent buffer budget).
func renderModListAudio(rt *RuntimeProgram, arena *scratchArena, list ModListID, parentFreq []float64, n int) []float64 {
	sum := arena.Alloc(n)
	for i := range sum {
		sum[i] = 0
	}

	for _, id := range rt.ModList.Get(list) {
		mark := arena.Mark()
		out := renderNode(rt, arena, rt.Sounds[id], parentFreq, n, false)
		for i := 0; i < n; i++ {
			sum[i] += out[i]
		}
		arena.Reset(mark)
	}

	return sum
}

// renderModListEnv renders every operator id in list as a 0..|amp|
// wave-envelope; the first layer sets the buffer, later layers multiply
// into it.
func renderModListEnv(rt *RuntimeProgram, arena *scratchArena, list ModListID, parentFreq []float64, n int) []float64 {
	env := arena.Alloc(n)

	for li, id := range rt.ModList.Get(list) {
		mark := arena.Mark()
		out := renderNode(rt, arena, rt.Sounds[id], parentFreq, n, true)
		if li == 0 {
			copy(env, out[:n])
		} else {
			for i := 0; i < n; i++ {
				env[i] *= out[i]
			}
		}
		arena.Reset(mark)
	}

	return env
}
