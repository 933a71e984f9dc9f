package sau

/*------------------------------------------------------------------
 *
 * Purpose:	Generator: the event-driven render loop. It
 *		walks the Program's Event list against a running sample
 *		clock, applying each Event's operator updates exactly when
 *		its delay elapses, and calls into the block engine to
 *		render every active voice's next chunk, mixing and
 *		writing out 16-bit PCM as it goes.
 *
 *------------------------------------------------------------------*/

// Generator holds all per-render state: the compiled program, the
// scratch arena PreAlloc sized for it, the mixer, and the event/voice
// scheduling clocks.
type Generator struct {
	rt    *RuntimeProgram
	arena *scratchArena
	mixer *Mixer

	nextEventIdx   int
	delayRemaining int // samples until rt.Events[nextEventIdx] fires

	// pendingShift is the single-slot delay offset: the
	// click-reduction nudge published by the most recent carrier
	// creation, consumed by the very next event-delay computation.
	pendingShift    int
	hasPendingShift bool

	active []bool // per VoiceID
}

// NewGenerator builds a Generator ready to render rt. channels is 1 or
// 2; ampDivVoices mirrors the Program's AMP_DIV_VOICES mode into the
// mixer.
func NewGenerator(rt *RuntimeProgram, channels int, ampDivVoices bool) *Generator {
	// +4 covers renderVoice's own mono/pan/l/r buffers: mono is held
	// beneath each carrier's run_sound recursion, and pan/l/r are taken
	// after that recursion has released its buffers — rt.MaxBufs only
	// accounts for the recursion itself.
	g := &Generator{
		rt:     rt,
		arena:  newScratchArena(rt.MaxBufs + 4),
		mixer:  NewMixer(channels, len(rt.Voices), ampDivVoices),
		active: make([]bool, len(rt.Voices)),
	}
	if len(rt.Events) > 0 {
		g.delayRemaining = -rt.Events[0].Pos
	}
	return g
}

// Done reports whether every event has fired and every voice has
// finished playing: nothing further would come out of Run.
func (g *Generator) Done() bool {
	if g.nextEventIdx < len(g.rt.Events) {
		return false
	}
	for _, a := range g.active {
		if a {
			return false
		}
	}
	return true
}

// Run renders up to len(frames)/channels samples into frames
// (interleaved s16, already expected to be zeroed by the caller for
// the span being written) and returns the number of sample frames
// actually produced. It returns fewer than requested only once Done
// would report true.
func (g *Generator) Run(frames []int16) int {
	channels := g.mixer.Channels
	want := len(frames) / channels
	produced := 0

	for produced < want {
		g.fireDueEvents()

		chunk := want - produced
		if chunk > BufLen {
			chunk = BufLen
		}
		if g.nextEventIdx < len(g.rt.Events) && g.delayRemaining < chunk {
			chunk = g.delayRemaining
		} else if g.nextEventIdx >= len(g.rt.Events) {
			// No events left: stop exactly when the last voice does,
			// rather than rounding the tail up to a whole chunk.
			if rem := g.longestActiveRemaining(); rem < chunk {
				chunk = rem
			}
		}

		if chunk <= 0 {
			if g.Done() {
				break
			}
			// An event is due this very sample; fireDueEvents already
			// ran, so looping re-evaluates delayRemaining against a
			// fresh event.
			continue
		}

		g.renderChunk(frames[produced*channels:(produced+chunk)*channels], chunk)
		produced += chunk
		g.delayRemaining -= chunk
	}

	return produced
}

// fireDueEvents applies every Event whose delay has elapsed, in order.
// Every due event — note-disabling updates included — is fully
// prepared before renderChunk writes another block, so an operator
// can never emit samples past an update that was meant to stop it.
func (g *Generator) fireDueEvents() {
	for g.nextEventIdx < len(g.rt.Events) && g.delayRemaining <= 0 {
		offs := g.fireEvent(g.nextEventIdx)
		if offs != 0 && (!g.hasPendingShift || offs < g.pendingShift) {
			g.pendingShift = offs
			g.hasPendingShift = true
		}
		g.nextEventIdx++
		if g.nextEventIdx < len(g.rt.Events) {
			g.delayRemaining = -g.rt.Events[g.nextEventIdx].Pos
			if g.hasPendingShift {
				// Consume on apply: TIME_OFFS is single-slot.
				g.delayRemaining += g.pendingShift
				g.hasPendingShift = false
				if g.delayRemaining < 0 {
					g.delayRemaining = 0
				}
			}
		}
	}
}

// fireEvent applies event idx's operator updates to their target nodes.
// A creation event (not an UPDATE) on a voice's carrier also triggers
// click-reduction, and its resulting sample offset is returned so the
// caller can thread it into the rest of the timeline.
func (g *Generator) fireEvent(idx int) int {
	ev := &g.rt.Events[idx]
	pe := g.rt.program.Events[ev.RefEventIdx]
	for i := range pe.OpData {
		d := &pe.OpData[i]
		d.ApplyToNode(g.rt.Sounds[d.ID], g.rt.SampleRate, g.rt.ModList)
	}
	ev.Status |= EvPrepared

	if ev.IsUpdate() {
		// A zero-time update cuts the note; a non-zero one re-arms it
		//. ApplyToNode already reset
		// RemainSamples for any ParamTime bit, so only the
		// voice-active bookkeeping is left.
		if ev.Sound.RemainSamples > 0 {
			g.active[ev.VoiceID] = true
		}
		return 0
	}

	voice := &g.rt.program.Voices[ev.VoiceID]
	if !isVoiceCarrier(voice, ev.Sound.OpID) {
		return 0
	}

	g.active[ev.VoiceID] = true
	if !g.rt.Profile.ClickReduction {
		return 0
	}
	return AdjustWaveTime(ev.Sound, g.rt.SampleRate)
}

// longestActiveRemaining returns the sample count until the
// longest-lived active voice finishes, 0 if nothing is playing. A
// voice with nothing left (a zero-time update cut it since its last
// render) is deactivated here so it can't wedge the Run loop.
func (g *Generator) longestActiveRemaining() int {
	longest := 0
	for vid := range g.rt.Voices {
		if !g.active[vid] {
			continue
		}
		carriers := g.rt.program.Voices[vid].Carriers
		if len(carriers) == 0 {
			carriers = []OpID{g.rt.Voices[vid].Root.OpID}
		}
		voiceRem := 0
		for _, cid := range carriers {
			node := g.rt.Sounds[cid]
			if rem := node.SilenceSamples + node.RemainSamples; rem > voiceRem {
				voiceRem = rem
			}
		}
		if voiceRem == 0 {
			g.active[vid] = false
			continue
		}
		if voiceRem > longest {
			longest = voiceRem
		}
	}
	return longest
}

func isVoiceCarrier(voice *Voice, id OpID) bool {
	if id == voice.Root {
		return true
	}
	for _, c := range voice.Carriers {
		if c == id {
			return true
		}
	}
	return false
}

// renderChunk renders exactly n samples (n <= BufLen) of every active
// voice, mixes and pans each, and writes the clipped s16 result into
// out (interleaved, length n*channels).
func (g *Generator) renderChunk(out []int16, n int) {
	g.mixer.Reset(n)

	for vid := range g.rt.Voices {
		if !g.active[vid] {
			continue
		}
		g.renderVoice(VoiceID(vid), n)
	}

	g.mixer.Write(out, n)
}

func (g *Generator) renderVoice(vid VoiceID, n int) {
	vn := &g.rt.Voices[vid]
	carriers := g.rt.program.Voices[vid].Carriers
	if len(carriers) == 0 {
		carriers = []OpID{vn.Root.OpID}
	}

	mark := g.arena.Mark()
	mono := g.arena.Alloc(n)
	for i := range mono {
		mono[i] = 0
	}

	stillPlaying := false
	for _, cid := range carriers {
		node := g.rt.Sounds[cid]

		// silence_ms pads the carrier's start: consume it first,
		// contributing nothing, before the node's own time begins.
		offs := 0
		if node.SilenceSamples > 0 {
			offs = node.SilenceSamples
			if offs > n {
				offs = n
			}
			node.SilenceSamples -= offs
			if node.SilenceSamples > 0 {
				stillPlaying = true
				continue
			}
			if offs == n {
				if node.RemainSamples > 0 {
					stillPlaying = true
				}
				continue
			}
		}

		if node.RemainSamples <= 0 {
			continue
		}
		cm := n - offs
		if node.RemainSamples < cm {
			cm = node.RemainSamples
		}
		cmark := g.arena.Mark()
		out := runSound(g.rt, g.arena, node, cm)
		for i := 0; i < cm; i++ {
			mono[offs+i] += out[i]
		}
		g.arena.Reset(cmark)
		node.RemainSamples -= cm
		if node.RemainSamples > 0 {
			stillPlaying = true
		}
	}

	pan := g.arena.Alloc(n)
	vn.Root.Pan.Run(pan, g.rt.SampleRate, nil)

	l := g.arena.Alloc(n)
	r := g.arena.Alloc(n)
	for i := 0; i < n; i++ {
		v := pan[i]
		if !vn.Root.HasPan {
			v = 0
		}
		panFrac := (1 + v) * 0.5
		sr := mono[i] * panFrac
		sl := mono[i] - sr
		l[i], r[i] = sl, sr
	}

	g.mixer.Add(l, r, n)
	g.arena.Reset(mark)

	if !stillPlaying {
		g.active[vid] = false
	}
}
