package sau

/*------------------------------------------------------------------
 *
 * Purpose:	Event and Program are the output of the timing passes and
 *		builder: a flat, ordered list of operator-parameter
 *		updates, each with a relative wait, ready for PreAlloc.
 *
 *------------------------------------------------------------------*/

// Event applies a set of operator-parameter updates at its scheduled
// time. WaitMs is relative to the immediately preceding event in the
// same Program.
type Event struct {
	WaitMs uint32
	VoID   VoiceID
	OpData []OpData
}

// Program is the fully linearized, identifier-addressable compilation
// unit the builder produces and PreAlloc consumes.
type Program struct {
	Events     []Event
	VoiceCount int
	OpCount    int
	Mode       ProgramMode
	DurationMs uint32
	Name       string

	// Operators/Voices are the program-level entity tables, dense and
	// indexed by OpID/VoiceID respectively. They hold each entity's
	// state after every Event's OpData has been applied in order (a
	// later update overwrites what the creation set) — the Events still
	// carry their own partial OpData for the generator to replay, but
	// having the fully-resolved table here lets PreAlloc size scratch
	// buffers without re-deriving it from the event stream.
	Operators []Operator
	Voices    []Voice

	ModLists *modListTable
}

// ProgramMode carries render-wide behavior flags.
type ProgramMode uint8

const (
	// ModeAmpDivVoices divides the mixer's per-voice contribution by
	// vo_count, so adding more simultaneous voices doesn't raise the
	// overall output level.
	ModeAmpDivVoices ProgramMode = 1 << iota
)

func (p *Program) AmpDivVoices() bool { return p.Mode&ModeAmpDivVoices != 0 }
