package sau

/*------------------------------------------------------------------
 *
 * Purpose:	The program builder: walk the timed, flattened
 *		event list and linearize it, assigning stable voice and
 *		operator IDs in creation order and interning modulator
 *		lists into the program-wide table.
 *
 *------------------------------------------------------------------*/

// builder holds the identity-tracking state the linearization pass
// needs: which OpObj/VoiceID pairs have already been assigned, so a
// second reference to "the same" operator or carrier reuses its ID
// instead of minting a new one.
type builder struct {
	program *Program
	voiceOf map[*OpObj]VoiceID
}

// BuildProgram runs the builder over a timed, flattened event list
// (the output of RunTimingPasses) and produces a Program ready for
// PreAlloc.
func BuildProgram(flat []*ParseEvent, mode ProgramMode, name string) *Program {
	p := &Program{
		Mode:     mode,
		Name:     name,
		ModLists: newModListTable(),
	}
	b := &builder{program: p, voiceOf: make(map[*OpObj]VoiceID)}

	var abs, maxEnd uint32
	for _, pe := range flat {
		ev := Event{WaitMs: pe.WaitMs}
		abs += pe.WaitMs

		var voID VoiceID
		voIDSet := false
		for _, ref := range pe.MainRefs {
			b.collectOpData(ref, false, &ev.OpData)
			if ref.UseType == UseCarr && !ref.IsNested() {
				vid := b.voiceIDFor(ref.Obj, ref.Obj.AssignedID)
				if !voIDSet {
					voID = vid
					voIDSet = true
				}
			}
		}
		ev.VoID = voID

		// The program ends when the last operator does: track each
		// event's absolute start plus its operators' own run length
		// (silence padding included), not just the longest operator
		// overall.
		for _, d := range ev.OpData {
			if end := abs + d.SilenceMs + d.Time.Ms; end > maxEnd {
				maxEnd = end
			}
		}

		p.Events = append(p.Events, ev)
	}

	p.OpCount = len(p.Operators)
	p.VoiceCount = len(p.Voices)
	p.DurationMs = maxEnd

	for i := range p.Voices {
		d := p.Operators[p.Voices[i].Root].Time.Ms
		p.Voices[i].DurationMs = d
	}

	return p
}

// collectOpData recursively linearizes ref and its modulator sub-tree,
// appending one OpData per newly- or further-specified operator to out,
// and returns ref's OpID. Nested modulator operators that are created
// for the first time here get their own OpData entry in the same
// event.
func (b *builder) collectOpData(ref *OpRef, nested bool, out *[]OpData) OpID {
	id, isNew := b.opIDFor(ref.Obj)

	d := ref.Data
	d.ID = id

	for _, ld := range ref.Mods {
		var ids IDArr
		for _, child := range ld.Refs {
			ids = append(ids, b.collectOpData(child, true, out))
		}
		switch ld.Use {
		case UseFMod:
			d.FMods = ids
			d.Mask |= ParamFMods
		case UsePMod:
			d.PMods = ids
			d.Mask |= ParamPMods
		case UseAMod:
			d.AMods = ids
			d.Mask |= ParamAMods
		}
	}

	if isNew {
		d.Mask = ParamAll
		if ref.UseType == UseCarr {
			d.Flags |= IsCarrier
		}
	}

	b.program.Operators[id].ID = id
	d.ApplyTo(&b.program.Operators[id], b.program.ModLists)
	*out = append(*out, d)
	return id
}

func (b *builder) opIDFor(obj *OpObj) (OpID, bool) {
	if obj.Assigned {
		return obj.AssignedID, false
	}
	id := OpID(len(b.program.Operators))
	obj.AssignedID = id
	obj.Assigned = true
	b.program.Operators = append(b.program.Operators, Operator{ID: id})
	return id, true
}

func (b *builder) voiceIDFor(obj *OpObj, rootOpID OpID) VoiceID {
	if vid, ok := b.voiceOf[obj]; ok {
		return vid
	}
	vid := VoiceID(len(b.program.Voices))
	b.program.Voices = append(b.program.Voices, Voice{ID: vid, Root: rootOpID, Flags: VoiceInit})
	b.voiceOf[obj] = vid
	return vid
}
