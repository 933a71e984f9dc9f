package sau

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	Error kinds. Errors are reported once at their
 *		origin and returned; the block engine and generator never
 *		swallow one internally.
 *
 *------------------------------------------------------------------*/

// MalformedProgramError reports a modulator list referencing an
// operator ID that does not exist at the program level. PreAlloc fails
// fast on this rather than guessing: the renderer only
// guards against *cycles*, which are tolerated, not against dangling
// references, which are not.
type MalformedProgramError struct {
	OpID   OpID
	Reason string
}

func (e *MalformedProgramError) Error() string {
	return fmt.Sprintf("malformed program: %s", e.Reason)
}

// PoolExhaustedError reports that PreAlloc's scratch-arena sizing came
// out over budget: a pathologically nested modulator graph demanded
// more than maxScratchBufs scratch buffers for a single voice's
// traversal. PreAlloc refuses such a program up front rather than
// allocating an absurd working set for it.
type PoolExhaustedError struct {
	Requested int
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("scratch/node pool exhausted: requested %d elements", e.Requested)
}
