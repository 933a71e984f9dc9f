package sau

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const amScore = `{
  "events": [
    {
      "refs": [
        {
          "use": "carr",
          "ref": "c",
          "data": {
            "wave": "sin",
            "freq": {"v0": 200},
            "amp": {"v0": 1},
            "time_ms": 500
          },
          "mods": [
            {
              "use": "amod",
              "refs": [
                {
                  "use": "amod",
                  "ref": "m",
                  "nested": true,
                  "data": {
                    "wave": "sin",
                    "freq": {"v0": 4},
                    "amp": {"v0": 1}
                  }
                }
              ]
            }
          ]
        }
      ]
    },
    {
      "wait_ms": 600,
      "refs": [
        {
          "use": "carr",
          "ref": "c",
          "data": {
            "wave": "sin",
            "freq": {"v0": 300, "vt": 600, "time_ms": 200, "curve": "xpe"},
            "amp": {"v0": 0.5},
            "time_ms": 400
          }
        }
      ]
    }
  ]
}`

func writeScore(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "score.json")
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func Test_DecodeParseTreeFile_Shape(t *testing.T) {
	tree, err := DecodeParseTreeFile(writeScore(t, amScore))
	assert.NoError(t, err)
	assert.Len(t, tree.Events, 2)

	first := tree.Events[0].MainRefs[0]
	assert.Equal(t, UseCarr, first.UseType)
	assert.Equal(t, uint32(500), first.Data.Time.Ms)
	assert.True(t, first.Data.Time.IsSet())
	assert.Len(t, first.Mods, 1)
	assert.Equal(t, UseAMod, first.Mods[0].Use)
	assert.True(t, first.Mods[0].Refs[0].IsNested())

	// Shared ref key "c" resolves to one OpObj across both events.
	second := tree.Events[1].MainRefs[0]
	assert.Same(t, first.Obj, second.Obj)

	// A goal-bearing ramp decodes with its flags and curve intact.
	assert.Equal(t, CurveXpe, second.Data.Freq.Curve)
	assert.NotZero(t, second.Data.Freq.Flags&RampGoal)
	assert.NotZero(t, second.Data.Freq.Flags&RampTime)
}

func Test_DecodeParseTreeFile_RendersEndToEnd(t *testing.T) {
	tree, err := DecodeParseTreeFile(writeScore(t, amScore))
	assert.NoError(t, err)

	flat := RunTimingPasses(tree)
	p := BuildProgram(flat, 0, "score")

	// One shared carrier plus its modulator; the second event updates.
	assert.Equal(t, 2, p.OpCount)
	assert.Equal(t, 1, p.VoiceCount)

	rt, err := PreAlloc(p, testRate, DefaultWaveProfile())
	assert.NoError(t, err)

	pcm := renderAll(t, NewGenerator(rt, 2, false), 2)
	assert.NotEmpty(t, pcm)

	// 600ms wait plus the update's 400ms run, give or take the
	// click-reduction nudge on each note boundary.
	frames := len(pcm) / 2
	assert.InDelta(t, testRate, frames, float64(testRate)/200+2)
}

func Test_DecodeParseTreeFile_Errors(t *testing.T) {
	_, err := DecodeParseTreeFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = DecodeParseTreeFile(writeScore(t, "{not json"))
	assert.Error(t, err)
}

func Test_LoadWaveProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("click_reduction: false\nmax_pm_depth: 2.5\n"), 0o644))

	profile, err := LoadWaveProfile(path)
	assert.NoError(t, err)
	assert.False(t, profile.ClickReduction)
	assert.Equal(t, 2.5, profile.MaxPMDepth)

	_, err = LoadWaveProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
