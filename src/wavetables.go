package sau

import (
	"math"
	"sync"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Process-wide PILUT construction. Each wave type's Pre-Integrated
 *		LookUp Table is built once, lazily, the first time any
 *		Generator needs it, and is safe to share read-only across
 *		however many Generator instances the host creates
 *		.
 *
 *------------------------------------------------------------------*/

const (
	lutBits    = 11
	LUTLen     = 1 << lutBits // 2048 samples
	lutLenMask = LUTLen - 1
	scaleBits  = 32 - lutBits // 21
	fracMask   = (1 << scaleBits) - 1
)

var (
	pilutOnce   sync.Once
	pilutTables [4][]float64 // indexed by Wave for Sin/Sqr/Tri/Saw
	pilutAdj    [4]uint32
)

// InitWaveTables builds the PILUT for every oscillating wave type. It is
// idempotent and safe to call from multiple Generators; only the first
// call does any work.
func InitWaveTables() {
	pilutOnce.Do(func() {
		pilutTables[WaveSin] = buildPILUT(func(x float64) float64 { return math.Sin(2 * math.Pi * x) })
		pilutTables[WaveSqr] = buildPILUT(squareWave)
		pilutTables[WaveTri] = buildPILUT(triangleWave)
		pilutTables[WaveSaw] = buildPILUT(sawWave)

		pilutAdj[WaveSin] = 0
		pilutAdj[WaveSqr] = 0
		pilutAdj[WaveTri] = 0
		// The naive sawtooth is -1 at phase 0; shift by half a cycle so
		// that, like the other waves, phase == 0 reads as a zero
		// crossing.
		pilutAdj[WaveSaw] = 1 << 31
	})
}

func squareWave(x float64) float64 {
	if x < 0.5 {
		return 1
	}
	return -1
}

func triangleWave(x float64) float64 {
	switch {
	case x < 0.25:
		return 4 * x
	case x < 0.75:
		return 2 - 4*x
	default:
		return -4 + 4*x
	}
}

func sawWave(x float64) float64 {
	return 2*x - 1
}

// buildPILUT numerically integrates a one-cycle waveform function into
// LUTLen table entries. Every wave type supported here is zero-mean
// over a full cycle, so the cumulative integral returns to its starting
// value at the wrap point and the table tiles cleanly.
func buildPILUT(w func(x float64) float64) []float64 {
	table := make([]float64, LUTLen)
	dx := 1.0 / float64(LUTLen)
	integral := 0.0
	for i := 0; i < LUTLen; i++ {
		x := float64(i) * dx
		integral += w(x) * dx
		table[i] = integral
	}
	return table
}
