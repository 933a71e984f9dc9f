package sau

/*------------------------------------------------------------------
 *
 * Purpose:	IDArr is a length-prefixed vector of operator IDs used to
 *		build modulator lists (fmod/pmod/amod). Modulator lists are
 *		interned into a program-wide table by the builder so that
 *		runtime slots only ever hold a small index, never a slice.
 *
 *------------------------------------------------------------------*/

// OpID identifies an Operator within a Program. IDs are dense [0, op_count).
type OpID uint32

// VoiceID identifies a Voice within a Program. IDs are dense [0, vo_count).
type VoiceID uint16

// ModListID indexes into a Program's interned modulator-list table.
// ID 0 is reserved for the empty list, so any modulator slot can be
// tested with `id > 0`.
type ModListID uint32

// NoModList is the reserved empty-list ID.
const NoModList ModListID = 0

// IDArr is a vector of operator IDs, the concrete shape of a fmod/pmod/amod
// reference before it is interned into a Program's ModList table.
type IDArr []OpID

// modListTable interns distinct IDArr values so that repeated modulator
// lists across a program share one table slot. Index 0 is always the
// empty list.
type modListTable struct {
	lists []IDArr
	index map[string]ModListID
}

func newModListTable() *modListTable {
	return &modListTable{
		lists: []IDArr{nil},
		index: map[string]ModListID{"": 0},
	}
}

// Intern returns the table ID for ids, adding a new entry if this exact
// sequence hasn't been seen before in this program.
func (t *modListTable) Intern(ids IDArr) ModListID {
	if len(ids) == 0 {
		return NoModList
	}
	key := modListKey(ids)
	if id, ok := t.index[key]; ok {
		return id
	}
	id := ModListID(len(t.lists))
	cp := make(IDArr, len(ids))
	copy(cp, ids)
	t.lists = append(t.lists, cp)
	t.index[key] = id
	return id
}

// Get returns the interned list for id, or nil for NoModList.
func (t *modListTable) Get(id ModListID) IDArr {
	if int(id) >= len(t.lists) {
		return nil
	}
	return t.lists[id]
}

func modListKey(ids IDArr) string {
	// Fixed-width encoding avoids separator collisions between e.g.
	// [1, 23] and [12, 3] while staying cheap to build.
	buf := make([]byte, len(ids)*4)
	for i, id := range ids {
		buf[i*4+0] = byte(id >> 24)
		buf[i*4+1] = byte(id >> 16)
		buf[i*4+2] = byte(id >> 8)
		buf[i*4+3] = byte(id)
	}
	return string(buf)
}
