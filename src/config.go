package sau

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/*------------------------------------------------------------------
 *
 * Purpose:	RenderConfig carries the render-wide settings every
 *		command needs (sample rate, channel count, mixing mode);
 *		WaveProfile is an optional YAML file letting a score tune
 *		per-wave-type behavior without a code change.
 *
 *------------------------------------------------------------------*/

// RenderConfig is the render-wide configuration passed to PreAlloc and
// the Generator alike.
type RenderConfig struct {
	SampleRate   int
	Channels     int
	AmpDivVoices bool
}

// DefaultRenderConfig matches a typical CD-quality stereo render.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{SampleRate: 44100, Channels: 2, AmpDivVoices: true}
}

// WaveProfile overrides the click-reduction and oscillator defaults a
// score's waves use, loaded from a small YAML file.
type WaveProfile struct {
	// ClickReduction disables AdjustWaveTime's cycle-snapping nudge
	// when false, useful when a score deliberately wants hard cutoffs.
	ClickReduction bool `yaml:"click_reduction"`

	// MaxPMDepth bounds how many turns of the phasor a single pmod
	// sample is allowed to swing, guarding against scores that set an
	// extreme pmod amplitude from wrapping the phase many times over
	// in one sample and aliasing badly.
	MaxPMDepth float64 `yaml:"max_pm_depth"`
}

// DefaultWaveProfile is used whenever no profile file is given.
func DefaultWaveProfile() WaveProfile {
	return WaveProfile{ClickReduction: true, MaxPMDepth: 1.0}
}

// LoadWaveProfile reads and parses a WaveProfile YAML file, starting
// from DefaultWaveProfile so a file only needs to set the fields it
// wants to change.
func LoadWaveProfile(path string) (WaveProfile, error) {
	profile := DefaultWaveProfile()

	var data, err = os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("sau: read wave profile %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("sau: parse wave profile %q: %w", path, err)
	}
	return profile, nil
}
