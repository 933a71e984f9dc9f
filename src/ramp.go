package sau

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Ramp is a time-varying parameter: a current value sliding
 *		toward a goal value over time_ms milliseconds along one of a
 *		small family of curves. Used for amp, freq, pan and their
 *		modulation endpoints throughout the Operator graph.
 *
 *------------------------------------------------------------------*/

// Curve selects the shape used to interpolate a Ramp from v0 to vt.
type Curve uint8

const (
	CurveHold Curve = iota
	CurveLin
	CurveExp
	CurveLog
	CurveXpe
	CurveLge
	CurveCos
)

// RampFlag marks which fields of a Ramp currently hold meaningful data.
type RampFlag uint8

const (
	// RampState means v0 holds a meaningful starting value.
	RampState RampFlag = 1 << iota
	// RampStateRatio means v0 (and the running value while STATE-only)
	// is a multiplier against a parent buffer, not an absolute value.
	RampStateRatio
	// RampGoal means vt/TimeMs describe an active slide toward vt.
	RampGoal
	// RampGoalRatio means vt is a multiplier against a parent buffer.
	RampGoalRatio
	// RampTime means TimeMs was explicitly supplied rather than left to
	// fall back to the enclosing operator's duration.
	RampTime
)

// Ramp is a time-parameterized value: current value, goal, duration,
// curve, and the
// flags that say which of those fields apply right now.
type Ramp struct {
	V0     float64
	Vt     float64
	TimeMs uint32
	Pos    uint32 // samples elapsed since the current goal was set
	Curve  Curve
	Flags  RampFlag
}

func (r Ramp) hasState() bool { return r.Flags&RampState != 0 }
func (r Ramp) hasGoal() bool  { return r.Flags&RampGoal != 0 }
func (r Ramp) stateRatio() bool { return r.Flags&RampStateRatio != 0 }
func (r Ramp) goalRatio() bool  { return r.Flags&RampGoalRatio != 0 }

// TimeSamples converts TimeMs to a sample count at srate, rounding to the
// nearest sample at ramp setup.
func (r Ramp) TimeSamples(srate int) uint32 {
	if r.TimeMs == 0 {
		return 0
	}
	return uint32(math.Round(float64(r.TimeMs) * float64(srate) / 1000.0))
}

// Copy duplicates a Ramp's current state into dst per the params mask
// convention of prepare_event: copying ramps via Ramp_copy,
// restarting Pos when the GOAL bit is set in the incoming ramp.
func (dst *Ramp) Copy(src Ramp) {
	goalWasSet := src.hasGoal()
	*dst = src
	if goalWasSet {
		dst.Pos = 0
	}
}

// Run evaluates len samples of the ramp into buf starting at the ramp's
// current Pos, optionally multiplying by mulbuf (used for *_RATIO flags,
// and for un-ratio'd values mulbuf is nil). It advances Pos and, on
// reaching the goal, commits V0 = Vt and clears the GOAL flag — this
// keeps Run additive in time: Run(n) then Run(m)
// produces the same trailing state (and hence samples) as Run(n+m),
// because the ramp only ever advances Pos by the length actually run.
func (r *Ramp) Run(buf []float64, srate int, mulbuf []float64) {
	n := len(buf)
	if n == 0 {
		return
	}

	if !r.hasState() && !r.hasGoal() {
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	if !r.hasGoal() {
		v := r.V0
		for i := 0; i < n; i++ {
			out := v
			if r.stateRatio() && mulbuf != nil {
				out *= mulbuf[i]
			}
			buf[i] = out
		}
		return
	}

	totalSamples := r.TimeSamples(srate)
	if totalSamples == 0 {
		// Degenerate zero-length ramp: jump straight to goal.
		r.V0 = r.Vt
		r.Flags &^= RampGoal
		r.Pos = 0
		v := r.V0
		for i := range buf {
			out := v
			if r.goalRatio() && mulbuf != nil {
				out *= mulbuf[i]
			}
			buf[i] = out
		}
		return
	}

	v0, vt := r.V0, r.Vt
	for i := 0; i < n; i++ {
		pos := r.Pos + uint32(i)
		var v float64
		if pos >= totalSamples {
			// Emit the goal exactly: evaluating the curve at t = 1
			// rounds differently than the committed V0 = Vt will.
			v = vt
		} else {
			v = evalCurve(r.Curve, v0, vt, float64(pos)/float64(totalSamples))
		}
		if r.goalRatio() && mulbuf != nil {
			v *= mulbuf[i]
		}
		buf[i] = v
	}

	newPos := r.Pos + uint32(n)
	if newPos >= totalSamples {
		r.V0 = vt
		r.Flags &^= RampGoal
		r.Pos = 0
	} else {
		r.Pos = newPos
	}
}

// evalCurve evaluates one of the seven curve shapes at normalized t in [0, 1].
func evalCurve(c Curve, v0, vt, t float64) float64 {
	switch c {
	case CurveHold:
		if t >= 1 {
			return vt
		}
		return v0
	case CurveLin:
		return v0 + (vt-v0)*t
	case CurveExp:
		return v0 + (vt-v0)*(1-math.Cos(math.Pi*t*0.5))
	case CurveLog:
		return v0 + (vt-v0)*math.Sin(math.Pi*t*0.5)
	case CurveXpe:
		if v0 == 0 {
			return vt * t
		}
		if vt/v0 < 0 {
			// No geometric path crosses zero; fall back to linear.
			return v0 + (vt-v0)*t
		}
		return v0 * math.Pow(vt/v0, t)
	case CurveLge:
		if vt == 0 {
			return v0 * (1 - t)
		}
		if v0/vt < 0 {
			return v0 + (vt-v0)*t
		}
		return vt * math.Pow(v0/vt, 1-t)
	case CurveCos:
		return v0 + (vt-v0)*(1-math.Cos(math.Pi*t))*0.5
	default:
		return v0 + (vt-v0)*t
	}
}
