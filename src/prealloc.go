package sau

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	PreAlloc: build the generator's runtime node
 *		arrays from a Program, and pre-size the scratch-buffer
 *		arena to the worst-case traversal depth any one voice's
 *		modulator DAG will need.
 *
 *------------------------------------------------------------------*/

// BufLen is the float-sample block size every scratch Buf holds and the
// unit the block engine chunks a run_sound call into.
const BufLen = 256

// maxScratchBufs caps how large an arena a single voice's traversal may
// demand. A score has to nest modulator chains hundreds deep to hit it;
// past that point the render's working set stops being sensible and
// PreAlloc refuses with a PoolExhaustedError instead of allocating.
const maxScratchBufs = 4096

// Buf is one scratch arena slot: BUF_LEN floats reused by every block
// of every voice's traversal, never by more than one traversal level at
// once.
type Buf [BufLen]float64

// RuntimeProgram is PreAlloc's output: the node arrays and sized scratch
// arena the Generator walks.
type RuntimeProgram struct {
	Sounds  []*WaveNode // indexed by OpID
	Voices  []VoiceNode // indexed by VoiceID
	Events  []EventNode
	ModList *modListTable

	SampleRate int
	MaxBufs    int
	Profile    WaveProfile

	program *Program
}

// PreAlloc builds a RuntimeProgram from a compiled Program. It fails
// with a MalformedProgramError when a modulator list references an
// operator ID that doesn't exist at the program level, and with a
// PoolExhaustedError when the worst-case scratch need exceeds
// maxScratchBufs.
func PreAlloc(p *Program, srate int, profile WaveProfile) (*RuntimeProgram, error) {
	rp := &RuntimeProgram{
		SampleRate: srate,
		ModList:    p.ModLists,
		Profile:    profile,
		program:    p,
	}

	rp.Sounds = make([]*WaveNode, p.OpCount)
	for i := range p.Operators {
		op := &p.Operators[i]
		rp.Sounds[i] = newWaveNodeFromOp(op, srate)
	}

	if err := validateModLists(p, rp.ModList); err != nil {
		logger.Error("preAlloc: malformed program", "err", err)
		return nil, err
	}

	rp.Voices = make([]VoiceNode, p.VoiceCount)
	for i := range p.Voices {
		v := &p.Voices[i]
		rp.Voices[i] = VoiceNode{Root: rp.Sounds[v.Root]}
	}

	rp.Events = make([]EventNode, len(p.Events))
	created := make(map[OpID]bool, p.OpCount)
	for i, ev := range p.Events {
		waitSamples := int(ev.WaitMs) * srate / 1000
		en := EventNode{Pos: -waitSamples, RefEventIdx: i, VoiceID: ev.VoID}
		for _, d := range ev.OpData {
			// The primary (last-listed) operator decides whether the
			// event as a whole is a creation or an update; nested
			// modulators created alongside don't change that.
			en.Sound = rp.Sounds[d.ID]
			if created[d.ID] {
				en.Status = EvUpdate
			} else {
				en.Status = 0
				created[d.ID] = true
			}
		}
		rp.Events[i] = en
	}

	rp.MaxBufs = calcMaxBufs(p)
	if rp.MaxBufs > maxScratchBufs {
		err := &PoolExhaustedError{Requested: rp.MaxBufs}
		logger.Error("preAlloc: scratch pool over budget", "err", err)
		return nil, err
	}
	logger.Debug("preAlloc: built runtime program", "voices", p.VoiceCount, "operators", p.OpCount, "max_bufs", rp.MaxBufs)

	return rp, nil
}

func newWaveNodeFromOp(op *Operator, srate int) *WaveNode {
	w := &WaveNode{}
	w.OpID = op.ID
	w.TimeSamples = int(op.Time.Ms) * srate / 1000
	w.RemainSamples = w.TimeSamples
	w.SilenceSamples = int(op.SilenceMs) * srate / 1000
	w.Amp = op.Amp
	w.Amp2 = op.Amp2
	w.HasAmp2 = op.HasAmp2
	w.Pan = op.Pan
	w.HasPan = op.HasPan
	w.AMods = op.AMods
	w.Wave = op.Wave
	w.Freq = op.Freq
	w.Freq2 = op.Freq2
	w.HasFreq2 = op.HasFreq2
	w.FMods = op.FMods
	w.PMods = op.PMods
	w.Flags = op.Flags
	w.Osc = NewOsc(op.Wave, op.Phase)
	return w
}

func validateModLists(p *Program, table *modListTable) error {
	for _, op := range p.Operators {
		for _, id := range []ModListID{op.FMods, op.PMods, op.AMods} {
			for _, ref := range table.Get(id) {
				if int(ref) >= p.OpCount {
					return &MalformedProgramError{OpID: ref, Reason: fmt.Sprintf("operator %d references non-existent operator %d in its modulator list", op.ID, ref)}
				}
			}
		}
	}
	return nil
}

// calcMaxBufs simulates the worst-case traversal PreAlloc must size for:
// for every carrier voice, walk its modulator DAG the same way the
// block engine will (calcBufsFor mirrors renderNode/renderWave's buffer
// reservations) and keep the maximum across all voices.
func calcMaxBufs(p *Program) int {
	max := 0
	for i := range p.Voices {
		visiting := make(map[OpID]bool, p.OpCount)
		n := calcBufsFor(p, p.Voices[i].Root, visiting)
		if n > max {
			max = n
		}
	}
	if max == 0 {
		max = 4
	}
	return max
}

// calcBufsFor returns the number of scratch Bufs one run_sound call on
// opID will need at once, at the deepest point of its own recursion.
// One mix and one amp buffer for every node, plus (for a wave node) one
// phase and one freq buffer, plus whatever each modulator sub-recursion needs (each
// nested modulator chain gets its own buffer on top of what it
// internally consumes). The cycle guard mirrors the block engine's
// visited-flag: a node already on the current path contributes zero
// further buffers.
func calcBufsFor(p *Program, opID OpID, visiting map[OpID]bool) int {
	if visiting[opID] {
		return 0
	}
	visiting[opID] = true
	defer delete(visiting, opID)

	op := &p.Operators[opID]
	bufs := 2 // mix + amp (every node type evaluates an amp ramp)

	isWave := op.Wave != WaveNone && op.Wave != WaveNoise
	if isWave {
		bufs += 2 // freq + phase
		if op.HasFreq2 {
			bufs++
		}
		if op.HasFMods() {
			bufs++ // fm sub-render sum buffer
			bufs += maxOverList(p, p.ModLists.Get(op.FMods), visiting)
		}
		if op.HasPMods() {
			bufs++ // pm sub-render sum buffer
			bufs += maxOverList(p, p.ModLists.Get(op.PMods), visiting)
		}
	}

	if op.HasAmp2 {
		bufs++
	}
	if op.HasAMods() {
		bufs++ // am sub-render sum buffer
		bufs += maxOverList(p, p.ModLists.Get(op.AMods), visiting)
	}

	return bufs
}

func maxOverList(p *Program, ids IDArr, visiting map[OpID]bool) int {
	max := 0
	for _, id := range ids {
		n := calcBufsFor(p, id, visiting)
		if n > max {
			max = n
		}
	}
	return max
}
