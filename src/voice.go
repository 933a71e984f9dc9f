package sau

/*------------------------------------------------------------------
 *
 * Purpose:	Voice is the carrier-level rendering context: it owns a
 *		pan ramp and a duration, and roots one carrier operator
 *		(or, for a composite carrier list, the first of several).
 *
 *------------------------------------------------------------------*/

// VoiceFlag carries Voice-level state bits.
type VoiceFlag uint8

const (
	VoiceInit VoiceFlag = 1 << iota
	VoiceActive
)

// Voice is the compiled program-level carrier context described in
// a compiled Program.
type Voice struct {
	ID         VoiceID
	Root       OpID
	Carriers   []OpID // non-empty only for a composite (multi-carrier) voice
	DurationMs uint32
	Flags      VoiceFlag
}

func (v *Voice) IsInit() bool   { return v.Flags&VoiceInit != 0 }
func (v *Voice) IsActive() bool { return v.Flags&VoiceActive != 0 }
