package sau

/*------------------------------------------------------------------
 *
 * Purpose:	The PILUT-based bandlimited oscillator: a
 *		32-bit phasor accumulates phase per sample, and a first
 *		difference of the pre-integrated lookup table produces a
 *		bandlimited sample at that phase.
 *
 *------------------------------------------------------------------*/

// PhaseStep returns the per-sample phase increment for freq Hz at
// srate, using srate_coeff = UINT32_MAX / srate.
func PhaseStep(freq float64, srate int) uint32 {
	if freq <= 0 {
		return 0
	}
	coeff := float64(^uint32(0)) / float64(srate)
	return uint32(coeff*freq + 0.5)
}

// NewOsc constructs an Osc for wave, seeded at startPhase. Osc.Reset
// primes prev_Is/prev_phase/prev_diff_s from the LUT at
// the start phase so the very first sample produced is consistent with
// the steady-state differencing the rest of the run uses.
func NewOsc(wave Wave, startPhase uint32) Osc {
	InitWaveTables()
	o := Osc{}
	o.Reset(wave, startPhase)
	return o
}

// Reset reseeds the oscillator's differencing state at phase, without
// discarding which table/phase_adj the wave type uses.
func (o *Osc) Reset(wave Wave, phase uint32) {
	if wave == WaveNoise {
		o.NoiseReg = phase
		if o.NoiseReg == 0 {
			o.NoiseReg = 1
		}
		return
	}
	if wave == WaveNone {
		// Line nodes never evaluate the oscillator.
		o.Phase = phase
		o.PrevPhase = phase
		return
	}

	adj := pilutAdj[wave]
	o.PhaseAdj = adj
	o.Phase = phase
	o.PrevPhase = phase
	o.PrevIs = lutIntegral(wave, phase+adj)
	o.PrevDiffS = 0
}

// NextNoise advances the xorshift32 generator one step and returns a
// sample uniformly in [-1, 1]. WaveNoise nodes use this instead of the
// PILUT path.
func (o *Osc) NextNoise() float64 {
	x := o.NoiseReg
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	o.NoiseReg = x
	return float64(x)/float64(^uint32(0))*2 - 1
}

// lutIntegral linearly interpolates the pre-integrated table for wave at
// the given fixed-point phase.
func lutIntegral(wave Wave, phase uint32) float64 {
	table := pilutTables[wave]
	idx := phase >> scaleBits
	frac := float64(phase&fracMask) / float64(1<<scaleBits)
	i0 := table[idx&lutLenMask]
	i1 := table[(idx+1)&lutLenMask]
	return i0 + (i1-i0)*frac
}

// Next advances the oscillator by one sample at the given absolute
// phase (already including any phase-mod offset) and returns the
// bandlimited waveform sample via first-difference PILUT
// differentiation, with a Hermite-style fallback to the previous
// difference when the phase didn't move at all within a sample
// (a zero phase_diff would otherwise divide by zero).
func (o *Osc) Next(wave Wave, phase uint32) float64 {
	adjPhase := phase + o.PhaseAdj
	is := lutIntegral(wave, adjPhase)

	phaseDiff := adjPhase - (o.PrevPhase + o.PhaseAdj)
	var sample float64
	if phaseDiff == 0 {
		sample = o.PrevDiffS
	} else {
		norm := float64(phaseDiff) / float64(uint64(1)<<32)
		sample = (is - o.PrevIs) / norm
	}

	o.PrevIs = is
	o.PrevPhase = phase
	o.PrevDiffS = sample
	return sample
}

// CycleOffs returns the signed number of samples to add to time so it
// lands on the nearest whole-cycle boundary at freq (negative shortens,
// positive lengthens), the core of click-reduction.
func CycleOffs(freq float64, timeSamples int, srate int) int {
	if freq <= 0 || timeSamples <= 0 {
		return 0
	}
	cycleSamples := float64(srate) / freq
	cycles := float64(timeSamples) / cycleSamples
	nearest := roundFloat(cycles)
	nearestSamples := nearest * cycleSamples
	return int(roundFloat(nearestSamples)) - timeSamples
}

func roundFloat(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}
