package sau

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_PreAlloc_BuildsRuntimeArrays(t *testing.T) {
	p, _, _ := buildSimpleAM(t)

	rt, err := PreAlloc(p, testRate, DefaultWaveProfile())
	assert.NoError(t, err)

	assert.Len(t, rt.Sounds, 2)
	assert.Len(t, rt.Voices, 1)
	assert.Len(t, rt.Events, 1)
	assert.Equal(t, testRate/2, rt.Sounds[0].TimeSamples) // 500ms

	// The single creation event is not an update and has no delay.
	assert.False(t, rt.Events[0].IsUpdate())
	assert.Zero(t, rt.Events[0].Pos)
}

func Test_PreAlloc_UpdateEventsMarked(t *testing.T) {
	obj := &OpObj{}
	create := carrierRef(440, 1000, true)
	create.Obj = obj
	update := carrierRef(880, 500, true)
	update.Obj = obj
	update.Data.Mask = ParamFreq

	tree := &ParseTree{Events: []*ParseEvent{
		{MainRefs: []*OpRef{create}},
		{WaitMs: 400, MainRefs: []*OpRef{update}},
	}}
	p := BuildProgram(RunTimingPasses(tree), 0, "upd")

	rt, err := PreAlloc(p, testRate, DefaultWaveProfile())
	assert.NoError(t, err)

	assert.False(t, rt.Events[0].IsUpdate())
	assert.True(t, rt.Events[1].IsUpdate())
	assert.Equal(t, -400*testRate/1000, rt.Events[1].Pos)
}

func Test_PreAlloc_RejectsDanglingModulatorID(t *testing.T) {
	p, _, _ := buildSimpleAM(t)

	// Corrupt the carrier's amod list to point past op_count.
	p.Operators[0].AMods = p.ModLists.Intern(IDArr{99})

	_, err := PreAlloc(p, testRate, DefaultWaveProfile())
	assert.Error(t, err)
	assert.ErrorContains(t, err, "malformed program")

	var mpe *MalformedProgramError
	assert.ErrorAs(t, err, &mpe)
	assert.Equal(t, OpID(99), mpe.OpID)
}

func Test_CalcMaxBufs_GrowsWithNesting(t *testing.T) {
	flatCarrier := carrierRef(440, 100, true)
	treeA := &ParseTree{Events: []*ParseEvent{{MainRefs: []*OpRef{flatCarrier}}}}
	pa := BuildProgram(RunTimingPasses(treeA), 0, "flat")

	nested := carrierRef(440, 100, true)
	inner := modRef(UseFMod, 3, 100, true)
	innermost := modRef(UseAMod, 7, 100, true)
	attachMod(inner, UseAMod, innermost)
	attachMod(nested, UseFMod, inner)
	treeB := &ParseTree{Events: []*ParseEvent{{MainRefs: []*OpRef{nested}}}}
	pb := BuildProgram(RunTimingPasses(treeB), 0, "nested")

	assert.Greater(t, calcMaxBufs(pb), calcMaxBufs(pa))
}

func Test_PreAlloc_RefusesPathologicalNesting(t *testing.T) {
	// A modulator chain nested over a thousand levels deep demands a
	// scratch arena past any sensible working set.
	chain := modRef(UseFMod, 1, 100, true)
	for i := 0; i < 1200; i++ {
		parent := modRef(UseFMod, 1, 100, true)
		attachMod(parent, UseFMod, chain)
		chain = parent
	}
	carr := carrierRef(440, 100, true)
	attachMod(carr, UseFMod, chain)

	tree := &ParseTree{Events: []*ParseEvent{{MainRefs: []*OpRef{carr}}}}
	p := BuildProgram(RunTimingPasses(tree), 0, "deep")

	_, err := PreAlloc(p, testRate, DefaultWaveProfile())
	var pee *PoolExhaustedError
	assert.ErrorAs(t, err, &pee)
	assert.Greater(t, pee.Requested, maxScratchBufs)
}

func Test_CalcMaxBufs_TerminatesOnCycle(t *testing.T) {
	p, _, _ := buildSimpleAM(t)

	// Pathological self-modulation: op 0 amplitude-modulated by itself.
	p.Operators[0].AMods = p.ModLists.Intern(IDArr{0})

	n := calcMaxBufs(p)
	assert.Greater(t, n, 0)
}

func Test_ScratchArena_MarkResetReuse(t *testing.T) {
	a := newScratchArena(2)

	mark := a.Mark()
	b1 := a.Alloc(BufLen)
	a.Reset(mark)
	b2 := a.Alloc(BufLen)

	// Same slot handed back after reset.
	assert.Same(t, &b1[0], &b2[0])

	a.Alloc(16)
	assert.Panics(t, func() { a.Alloc(16) })
}
