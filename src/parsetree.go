package sau

/*------------------------------------------------------------------
 *
 * Purpose:	The shape produced by the external score-text tokenizer/
 *		parser. The timing passes (timing.go) and the
 *		builder (builder.go) are the only consumers; nothing in
 *		this package ever parses SAU score text itself.
 *
 *------------------------------------------------------------------*/

// UseType says how an OpRef's operator is being used at this reference.
type UseType uint8

const (
	UseCarr UseType = iota
	UseAMod
	UseFMod
	UsePMod
)

// OpRefFlag carries an OpRef's per-reference bits.
type OpRefFlag uint16

const (
	// RefNested means this OpRef sits inside another operator's
	// modulator list rather than at the top level of an event.
	RefNested OpRefFlag = 1 << iota
	// RefMultiple means this OpRef is one of several sharing a slot
	// (a composite carrier list).
	RefMultiple
)

// OpObj is the shared identity behind repeated OpRefs to "the same"
// operator across events — comparing pointers (not values) is how the
// builder tells a later update from a second, distinct operator.
type OpObj struct {
	// AssignedID is filled in by the builder the first time this OpObj
	// is seen; zero (and Assigned == false) beforehand.
	AssignedID OpID
	Assigned   bool
}

// ListData names a modulator-list attachment point within an OpRef
// (fmod/pmod/amod), carrying its own nested OpRefs.
type ListData struct {
	Use  UseType
	Refs []*OpRef
}

// OpRef is one reference to an operator within a ParseEvent's main chain
// or a Fork's chain.
type OpRef struct {
	UseType UseType
	Flags   OpRefFlag
	Obj     *OpObj
	OnPrev  *OpRef // previous reference to the same OpObj, if any
	Data    OpData
	Mods    []ListData
}

func (r *OpRef) IsNested() bool   { return r.Flags&RefNested != 0 }
func (r *OpRef) IsMultiple() bool { return r.Flags&RefMultiple != 0 }

// ForkFlag marks timing behavior for a Fork's sub-chain.
type ForkFlag uint16

const (
	// ForkWaitPrevDur adds the previous sibling's resolved duration to
	// this fork event's own wait.
	ForkWaitPrevDur ForkFlag = 1 << iota
	// ForkFromGapShift marks a follow-on attached after a gap, which
	// collapses a DEFAULT-duration previous sibling to zero.
	ForkFromGapShift
)

// Fork is a sub-sequence of events attached to a gap-shifted or
// composite-step position inside its parent ParseEvent's time.
type Fork struct {
	Events []*ParseEvent
}

// ParseEventFlag carries a ParseEvent's per-event bits.
type ParseEventFlag uint16

const (
	// VoiceSetDur means this event's voice explicitly sets the voice
	// duration, which duration-groups must honor.
	VoiceSetDur ParseEventFlag = 1 << iota
	// ImplicitTime means at least one operator in MainRefs had no
	// explicit time and must inherit one.
	ImplicitTime
	// WaitPrevDur mirrors ForkWaitPrevDur but at the top-level event.
	WaitPrevDur
	// FromGapShift mirrors ForkFromGapShift but at the top-level event.
	FromGapShift
	// LockDurScope means this event's operators anchor the enclosing
	// duration group rather than participating in its max().
	LockDurScope
)

// ParseEvent is one node of the tree the external tokenizer produces:
// a wait, a primary operator-reference chain, and optional forks.
type ParseEvent struct {
	WaitMs   uint32
	WaitSet  bool // false if WaitMs must be filled by the timing pass
	MainRefs []*OpRef
	Forks    []*Fork
	// GroupBackref points at the event that opened the duration-group
	// this event closes (the `|` syntax), nil if this
	// event isn't a group-end.
	GroupBackref *ParseEvent
	Flags        ParseEventFlag
}

func (e *ParseEvent) HasVoiceSetDur() bool  { return e.Flags&VoiceSetDur != 0 }
func (e *ParseEvent) HasImplicitTime() bool { return e.Flags&ImplicitTime != 0 }
func (e *ParseEvent) HasWaitPrevDur() bool  { return e.Flags&WaitPrevDur != 0 }
func (e *ParseEvent) HasFromGapShift() bool { return e.Flags&FromGapShift != 0 }
func (e *ParseEvent) HasLockDurScope() bool { return e.Flags&LockDurScope != 0 }

// ParseTree is the complete output of the external parser: a linked
// sequence of top-level ParseEvents in score order.
type ParseTree struct {
	Events []*ParseEvent
}
