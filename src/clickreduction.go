package sau

/*------------------------------------------------------------------
 *
 * Purpose:	Click-reduction: when a carrier wave node is
 *		first scheduled, nudge its remaining time to the nearest
 *		whole number of wave cycles at its starting frequency, so
 *		playback doesn't end mid-waveform and click. The nudge is
 *		small (at most half a cycle) but must be threaded through
 *		the rest of the timeline via delay_offs so relative timing
 *		across the score is preserved.
 *
 *------------------------------------------------------------------*/

// AdjustWaveTime shortens (or lengthens) node's remaining time to the
// nearest integer number of cycles at its current starting frequency,
// and returns the signed sample adjustment so the caller can publish it
// as delay_offs.
func AdjustWaveTime(node *WaveNode, srate int) int {
	if node.Wave == WaveNone || node.Wave == WaveNoise {
		return 0
	}
	freq := node.Freq.V0
	offs := CycleOffs(freq, node.TimeSamples, srate)
	node.TimeSamples += offs
	node.RemainSamples = node.TimeSamples
	return offs
}
