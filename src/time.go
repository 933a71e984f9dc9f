package sau

/*------------------------------------------------------------------
 *
 * Purpose:	Time, the primitive used throughout the timing passes
 *		to express a duration that may still need resolving.
 *
 *------------------------------------------------------------------*/

// TimeFlag marks how a Time value came to have the value it holds.
type TimeFlag uint8

const (
	// TimeSet means the score text gave an explicit millisecond value.
	TimeSet TimeFlag = 1 << iota
	// TimeDefault means the timing pass filled this in from context
	// (the longest sub-modulator, or a duration group's longest member).
	TimeDefault
	// TimeImplicit means the value was inherited from a sibling rather
	// than computed locally; set alongside TimeDefault for nested operators.
	TimeImplicit
	// TimeLinked means "as long as the enclosing scope" rather than a
	// fixed duration.
	TimeLinked
)

// Time is a millisecond duration paired with the provenance flags the
// timing passes need to decide whether a value may still be
// overwritten by a default.
type Time struct {
	Ms    uint32
	Flags TimeFlag
}

// IsSet reports whether the score text supplied this time explicitly.
func (t Time) IsSet() bool { return t.Flags&TimeSet != 0 }

// IsDefault reports whether the timing pass, not the score text, chose this value.
func (t Time) IsDefault() bool { return t.Flags&TimeDefault != 0 }

// IsImplicit reports whether this value was inherited rather than computed
// from the node's own sub-tree.
func (t Time) IsImplicit() bool { return t.Flags&TimeImplicit != 0 }

// IsLinked reports whether the duration tracks its enclosing scope instead
// of holding a fixed value.
func (t Time) IsLinked() bool { return t.Flags&TimeLinked != 0 }

// Unset reports whether no pass has assigned a concrete value yet.
func (t Time) Unset() bool { return t.Flags == 0 }

// WithDefault returns a copy of t with ms installed as a DEFAULT value,
// only if t is currently unset. It is a no-op (returns t unchanged) once
// a value has already been set or defaulted, matching the timing pass
// rule that the first assignment wins.
func (t Time) WithDefault(ms uint32, implicit bool) Time {
	if !t.Unset() {
		return t
	}
	flags := TimeDefault
	if implicit {
		flags |= TimeImplicit
	}
	return Time{Ms: ms, Flags: flags}
}
