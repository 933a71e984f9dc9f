package sau

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildSimpleAM(t *testing.T) (*Program, *OpRef, *OpRef) {
	t.Helper()

	carr := carrierRef(200, 500, true)
	mod := modRef(UseAMod, 4, 500, true)
	attachMod(carr, UseAMod, mod)

	tree := &ParseTree{Events: []*ParseEvent{{MainRefs: []*OpRef{carr}}}}
	flat := RunTimingPasses(tree)
	return BuildProgram(flat, 0, "am"), carr, mod
}

func Test_Builder_DenseIDs(t *testing.T) {
	p, _, _ := buildSimpleAM(t)

	assert.Equal(t, 2, p.OpCount)
	assert.Equal(t, 1, p.VoiceCount)
	for i, op := range p.Operators {
		assert.Equal(t, OpID(i), op.ID)
	}
	assert.Equal(t, OpID(0), p.Voices[0].Root)
}

func Test_Builder_ModListInterned(t *testing.T) {
	p, _, _ := buildSimpleAM(t)

	carrier := p.Operators[0]
	assert.True(t, carrier.HasAMods())
	assert.Equal(t, IDArr{1}, p.ModLists.Get(carrier.AMods))

	// Empty slots test false without consulting the table.
	assert.False(t, carrier.HasFMods())
	assert.Nil(t, p.ModLists.Get(carrier.FMods))
}

func Test_Builder_SecondReferenceIsUpdate(t *testing.T) {
	obj := &OpObj{}

	create := carrierRef(440, 1000, true)
	create.Obj = obj

	update := carrierRef(880, 500, true)
	update.Obj = obj
	update.Data.Mask = ParamFreq | ParamTime

	tree := &ParseTree{Events: []*ParseEvent{
		{MainRefs: []*OpRef{create}},
		{WaitMs: 400, MainRefs: []*OpRef{update}},
	}}
	flat := RunTimingPasses(tree)
	p := BuildProgram(flat, 0, "update")

	// One operator, one voice, two events.
	assert.Equal(t, 1, p.OpCount)
	assert.Equal(t, 1, p.VoiceCount)
	assert.Len(t, p.Events, 2)

	assert.Equal(t, ParamAll, p.Events[0].OpData[0].Mask)
	assert.Equal(t, ParamFreq|ParamTime, p.Events[1].OpData[0].Mask)
	assert.Equal(t, p.Events[0].OpData[0].ID, p.Events[1].OpData[0].ID)
}

func Test_Builder_DurationCoversWaitsPlusLongestOp(t *testing.T) {
	a := carrierRef(440, 300, true)
	b := carrierRef(220, 900, true)

	tree := &ParseTree{Events: []*ParseEvent{
		{MainRefs: []*OpRef{a}},
		{WaitMs: 250, MainRefs: []*OpRef{b}},
	}}
	flat := RunTimingPasses(tree)
	p := BuildProgram(flat, 0, "dur")

	assert.Equal(t, uint32(250+900), p.DurationMs)
}

func Test_Builder_DurationEndsWithLastOperator(t *testing.T) {
	// A long early note followed much later by a short one: the
	// program ends when the short note does, not at
	// last-start-plus-longest-duration.
	early := carrierRef(110, 5000, true)
	late := carrierRef(440, 50, true)

	tree := &ParseTree{Events: []*ParseEvent{
		{MainRefs: []*OpRef{early}},
		{WaitMs: 10000, MainRefs: []*OpRef{late}},
	}}
	flat := RunTimingPasses(tree)
	p := BuildProgram(flat, 0, "tail")

	assert.Equal(t, uint32(10050), p.DurationMs)
}

func Test_Builder_IdenticalModListsShareTableSlot(t *testing.T) {
	table := newModListTable()

	a := table.Intern(IDArr{1, 2, 3})
	b := table.Intern(IDArr{1, 2, 3})
	c := table.Intern(IDArr{1, 2})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	// No separator collisions between [1, 23] and [12, 3].
	d := table.Intern(IDArr{1, 23})
	e := table.Intern(IDArr{12, 3})
	assert.NotEqual(t, d, e)

	assert.Equal(t, NoModList, table.Intern(nil))
}
