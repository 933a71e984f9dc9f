package sau

import "sort"

/*------------------------------------------------------------------
 *
 * Purpose:	The three post-parse timing passes: resolve every
 *		operator's duration (and give every ramp a concrete
 *		time_ms), flatten forked sub-sequences into the main
 *		linear event list, and settle duration-group (`|`)
 *		defaults before the builder linearizes the tree into a
 *		Program.
 *
 *		Timing is closed-form and cannot fail: a malformed ParseTree is never produced by the
 *		upstream tokenizer, so these passes have no error return.
 *
 *------------------------------------------------------------------*/

// RunTimingPasses mutates tree in place, resolving every operator's
// duration, flattening forks into the top-level event list, and
// settling duration-group defaults, then returns the now-flat,
// absolutely-ordered event list ready for the builder.
func RunTimingPasses(tree *ParseTree) []*ParseEvent {
	timeEventsAndOperators(tree.Events, 0)
	flat := flattenForks(tree.Events, 0)
	applyDurationGroups(flat)
	return flat
}

// timeEventsAndOperators is pass 1, walked depth-first over the
// top-level event chain and (recursively, via resolveOperatorTime) into
// every operator's own sub-modulator tree. parentDur is the duration
// fallback forks use for their sibling chains (0 at the top level).
func timeEventsAndOperators(events []*ParseEvent, parentDur uint32) {
	var prevSiblingDur uint32
	var prevSiblingEvent *ParseEvent
	havePrev := false

	// A fork's first event has no previous sibling of its own; the
	// parent event's duration stands in as its fallback.
	if parentDur > 0 {
		prevSiblingDur = parentDur
		havePrev = true
	}

	for _, e := range events {
		eventDur := uint32(0)
		for _, ref := range e.MainRefs {
			fallback, useFallback := uint32(0), false
			if havePrev {
				fallback, useFallback = prevSiblingDur, true
			}
			d := resolveOperatorTime(ref, false, fallback, useFallback)
			if d > eventDur {
				eventDur = d
			}
		}

		if havePrev && e.HasFromGapShift() && prevSiblingEvent != nil {
			collapseDefaultToZero(prevSiblingEvent)
		}
		if e.HasWaitPrevDur() && havePrev {
			e.WaitMs += prevSiblingDur
		}

		for _, f := range e.Forks {
			timeEventsAndOperators(f.Events, eventDur)
		}

		prevSiblingDur = eventDur
		prevSiblingEvent = e
		havePrev = true
	}
}

// collapseDefaultToZero implements "when a gap-shift follow-on is
// encountered and its previous was DEFAULT, the previous's time
// collapses to zero": a default duration only existed
// to carry a note up to the next one, and that next one just arrived
// early via an explicit gap.
func collapseDefaultToZero(prev *ParseEvent) {
	for _, ref := range prev.MainRefs {
		if ref.Data.Time.IsDefault() {
			ref.Data.Time = Time{Ms: 0, Flags: TimeDefault}
			retimeRamps(ref, 0)
		}
	}
}

// resolveOperatorTime depth-first resolves ref's own duration (recursing
// into its modulator sub-tree first, since an unset duration defaults to
// the longest sub-modulator), then times every ramp on the operator to
// that final duration unless the ramp already carries an explicit time.
func resolveOperatorTime(ref *OpRef, nested bool, fallbackMs uint32, useFallback bool) uint32 {
	var maxSub uint32
	for _, ld := range ref.Mods {
		for _, child := range ld.Refs {
			d := resolveOperatorTime(child, true, 0, false)
			if d > maxSub {
				maxSub = d
			}
		}
	}

	if ref.Data.Time.Unset() {
		def := maxSub
		implicit := nested
		if useFallback && maxSub == 0 {
			def = fallbackMs
			implicit = true
		}
		ref.Data.Time = ref.Data.Time.WithDefault(def, implicit)
	}

	// LINKED sub-operators run as long as their enclosing operator;
	// they contributed nothing to maxSub above, so backfill them now
	// that the enclosing duration is final.
	for _, ld := range ref.Mods {
		for _, child := range ld.Refs {
			if child.Data.Time.IsLinked() {
				child.Data.Time.Ms = ref.Data.Time.Ms
				retimeRamps(child, child.Data.Time.Ms)
			}
		}
	}

	retimeRamps(ref, ref.Data.Time.Ms)
	return ref.Data.Time.Ms
}

// retimeRamps resolves TIME_IF_NEW: any ramp with an active
// goal but no explicit time falls back to the operator's own duration.
func retimeRamps(ref *OpRef, opMs uint32) {
	apply := func(r *Ramp) {
		if r.Flags&RampGoal != 0 && r.Flags&RampTime == 0 {
			r.TimeMs = opMs
		}
	}
	apply(&ref.Data.Amp)
	apply(&ref.Data.Freq)
	apply(&ref.Data.Amp2)
	apply(&ref.Data.Freq2)
	apply(&ref.Data.Pan)
}

// --- pass 2: flatten forks ---------------------------------------------

type timedEvent struct {
	abs uint32
	ev  *ParseEvent
}

// flattenForks merges every fork's sub-sequence into the main linear
// event list, threading by absolute time. The result
// is a single slice in score order whose WaitMs values are relative to
// the immediately preceding entry, matching the Event.WaitMs invariant
// the builder and Program carry forward.
func flattenForks(events []*ParseEvent, startAbs uint32) []*ParseEvent {
	var collected []timedEvent
	collectTimed(events, startAbs, &collected)

	sort.SliceStable(collected, func(i, j int) bool { return collected[i].abs < collected[j].abs })

	out := make([]*ParseEvent, len(collected))
	cloneOf := make(map[*ParseEvent]*ParseEvent, len(collected))
	var prevAbs uint32
	for i, te := range collected {
		wait := uint32(0)
		if te.abs > prevAbs {
			wait = te.abs - prevAbs
		}
		// Clone so the relative WaitMs we assign doesn't corrupt a
		// ParseEvent that might be walked again (forks are each
		// visited exactly once, but cloning keeps this pass pure).
		clone := *te.ev
		clone.WaitMs = wait
		out[i] = &clone
		cloneOf[te.ev] = &clone
		prevAbs = te.abs
	}

	// Group backrefs still point at the pre-clone events; remap them so
	// the duration-group pass can find the opener in the flat list.
	for _, c := range out {
		if c.GroupBackref != nil {
			if cl, ok := cloneOf[c.GroupBackref]; ok {
				c.GroupBackref = cl
			}
		}
	}
	return out
}

func collectTimed(events []*ParseEvent, startAbs uint32, out *[]timedEvent) {
	abs := startAbs
	for _, e := range events {
		abs += e.WaitMs
		*out = append(*out, timedEvent{abs: abs, ev: e})
		for _, f := range e.Forks {
			collectTimed(f.Events, abs, out)
		}
	}
}

// --- pass 3: duration groups --------------------------------------------

// applyDurationGroups resolves the `|` duration-group syntax: every event whose GroupBackref is set closes a group that
// opened at the referenced event; the group's longest member duration
// becomes the DEFAULT time for any member whose time is still unset, and
// the slack between the group's length and the closing event's own
// duration is absorbed into the following event's wait.
func applyDurationGroups(flat []*ParseEvent) {
	indexOf := make(map[*ParseEvent]int, len(flat))
	for i, e := range flat {
		indexOf[e] = i
	}

	for i, e := range flat {
		if e.GroupBackref == nil {
			continue
		}
		openIdx, ok := indexOf[e.GroupBackref]
		if !ok || openIdx > i {
			continue
		}
		members := flat[openIdx : i+1]

		groupMax := uint32(0)
		for _, m := range members {
			d := eventDuration(m)
			if m.HasLockDurScope() {
				// Anchors the group rather than participating in
				// its max; see DESIGN.md.
				continue
			}
			if d > groupMax {
				groupMax = d
			}
		}

		lastDur := eventDuration(e)
		for _, m := range members {
			if m.HasLockDurScope() {
				// The anchor keeps its own duration.
				continue
			}
			for _, ref := range m.MainRefs {
				// A member counts as still unset if pass 1 left it at
				// zero or filled it from a sibling (IMPLICIT); a
				// default derived from the member's own modulator
				// tree stands.
				stillUnset := ref.Data.Time.IsDefault() &&
					(ref.Data.Time.Ms == 0 || ref.Data.Time.IsImplicit())
				if stillUnset || (m.HasVoiceSetDur() && ref.Data.Time.Unset()) {
					ref.Data.Time = Time{Ms: groupMax, Flags: TimeDefault}
					retimeRamps(ref, groupMax)
				}
			}
		}

		if i+1 < len(flat) && groupMax > lastDur {
			flat[i+1].WaitMs += groupMax - lastDur
		}
	}
}

func eventDuration(e *ParseEvent) uint32 {
	var max uint32
	for _, ref := range e.MainRefs {
		if ref.Data.Time.Ms > max {
			max = ref.Data.Time.Ms
		}
	}
	return max
}
