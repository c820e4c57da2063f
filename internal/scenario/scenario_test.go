package scenario

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mad-liquid/internal/world"
	"mad-liquid/internal/xp"
)

func quietOptions() Options {
	return Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		RunID:  func() string { return "test-run" },
	}
}

func TestTestdataScenariosPass(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			sc, err := Load(path)
			require.NoError(t, err)

			res, err := Run(sc, quietOptions())
			require.NoError(t, err)
			assert.Empty(t, res.Report.Failures)
			assert.True(t, res.Report.Passed())
			assert.Equal(t, "test-run", res.Report.RunID)
			assert.LessOrEqual(t, res.Report.Steps, sc.MaxSteps)

			g.Assert(t, sc.Name, []byte(RenderSlice(res.Sim.World(), sc.Slice)))
		})
	}
}

func TestShaftSettlesBeforeMaxSteps(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "shaft.yaml"))
	require.NoError(t, err)

	res, err := Run(sc, quietOptions())
	require.NoError(t, err)
	assert.True(t, res.Report.Idle)
	assert.Equal(t, 0, res.Report.Pending)
	assert.Less(t, res.Report.Steps, sc.MaxSteps)
	require.Len(t, res.Report.Census, 1)
	assert.Equal(t, "magic_water", res.Report.Census[0].Liquid)
	assert.Equal(t, 16, res.Report.Census[0].Top)
}

func TestFailedExpectationsAreReported(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "ledge.yaml"))
	require.NoError(t, err)
	broken := strings.Replace(string(data), "cells: 5", "cells: 6", 1)

	sc, err := Parse([]byte(broken))
	require.NoError(t, err)
	res, err := Run(sc, quietOptions())
	require.NoError(t, err)
	assert.False(t, res.Report.Passed())
	assert.Equal(t, []string{"cells: got 5, want 6"}, res.Report.Failures)
}

func TestDefaultRunIDIsUUIDv7(t *testing.T) {
	sc, err := Parse([]byte(`
name: empty
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
max_steps: 1
`))
	require.NoError(t, err)
	res, err := Run(sc, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	parsed, err := uuid.Parse(res.Report.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.True(t, res.Report.Idle)
	assert.Equal(t, 0, res.Report.Steps)
}

func TestRandomTicksRunToMaxSteps(t *testing.T) {
	sc, err := Parse([]byte(`
name: restless
bounds: {min: [-1, 0, -1], max: [1, 4, 1]}
place:
  - {pos: [0, 0, 0], liquid: magic_water}
random_ticks: 1
seed: 9
max_steps: 40
`))
	require.NoError(t, err)
	res, err := Run(sc, quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 40, res.Report.Steps)
	assert.False(t, res.Report.Idle)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown field",
			doc: `
name: typo
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
max_step: 10
`,
			want: ErrSchema,
		},
		{
			name: "strength out of range",
			doc: `
name: strong
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
place:
  - {pos: [0, 0, 0], liquid: magic_water, strength: 9}
max_steps: 10
`,
			want: ErrSchema,
		},
		{
			name: "short position",
			doc: `
name: flat
bounds: {min: [0, 0], max: [1, 1, 1]}
max_steps: 10
`,
			want: ErrSchema,
		},
		{
			name: "unknown liquid",
			doc: `
name: lava
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
place:
  - {pos: [0, 0, 0], liquid: lava}
max_steps: 10
`,
			want: ErrSchema,
		},
		{
			name: "inverted bounds",
			doc: `
name: inside-out
bounds: {min: [2, 0, 0], max: [1, 1, 1]}
max_steps: 10
`,
			want: ErrInvalid,
		},
		{
			name: "event with two actions",
			doc: `
name: busy
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
events:
  - {at: 1, remove: [0, 0, 0], pickup: [0, 0, 0]}
max_steps: 10
`,
			want: ErrInvalid,
		},
		{
			name: "event after the run",
			doc: `
name: late
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
events:
  - {at: 11, remove: [0, 0, 0]}
max_steps: 10
`,
			want: ErrInvalid,
		},
		{
			name: "liquid listed twice",
			doc: `
name: twice
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
liquids:
  - {name: experience}
  - {name: experience, tick_delay: 3}
max_steps: 10
`,
			want: ErrInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunRejectsDisabledLiquid(t *testing.T) {
	sc, err := Parse([]byte(`
name: missing
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
liquids:
  - {name: experience}
place:
  - {pos: [0, 0, 0], liquid: magic_water}
max_steps: 10
`))
	require.NoError(t, err)
	_, err = Run(sc, quietOptions())
	assert.ErrorIs(t, err, world.ErrUnknownLiquid)
}

func TestLiquidOverridesApply(t *testing.T) {
	sc, err := Parse([]byte(`
name: tuned
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
liquids:
  - {name: magic_water, connectivity: flood, tick_delay: 2, search_radius: 4, wake_radius: 0}
max_steps: 1
`))
	require.NoError(t, err)
	ls, err := sc.liquids()
	require.NoError(t, err)
	require.Len(t, ls, 1)
	p := ls[0].Params()
	assert.Equal(t, "flood", string(p.Connectivity))
	assert.Equal(t, 2, p.TickDelay)
	assert.Equal(t, 4, p.SearchRadius)
	assert.Equal(t, 0, p.WakeRadius)
}

func TestRenderSliceGlyphs(t *testing.T) {
	w := world.New(world.Bounds{Max: cube.Pos{3, 0, 0}})
	w.SetTerrain(cube.Pos{0, 0, 0}, world.Solid)
	w.SetTerrain(cube.Pos{1, 0, 0}, world.Floor)
	w.SetTerrain(cube.Pos{2, 0, 0}, world.Grate)
	assert.Equal(t, "#=+.\n", RenderSlice(w, 0))
	assert.Equal(t, "####\n", RenderSlice(w, 5), "outside the world reads as solid")
}

func TestPourReplacesPickedUpSource(t *testing.T) {
	sc, err := Parse([]byte(`
name: carry
bounds: {min: [-1, 0, -1], max: [2, 6, 1]}
liquids:
  - {name: experience}
place:
  - {pos: [0, 0, 0], liquid: experience}
events:
  - {at: 5, pickup: [0, 0, 0]}
  - {at: 6, pour: [1, 0, 0]}
max_steps: 1000
`))
	require.NoError(t, err)
	res, err := Run(sc, quietOptions())
	require.NoError(t, err)

	assert.True(t, res.Sim.Cell(cube.Pos{1, 0, 0}).IsSource())
	assert.False(t, res.Sim.Cell(cube.Pos{0, 0, 0}).IsSource())
	assert.Equal(t, 0, res.Report.XP)
	require.Len(t, res.Report.Census, 1)
	assert.Equal(t, 1, res.Report.Census[0].Sources)
}

func TestPourWithEmptyTankFails(t *testing.T) {
	sc, err := Parse([]byte(`
name: dry
bounds: {min: [0, 0, 0], max: [1, 1, 1]}
liquids:
  - {name: experience}
events:
  - {at: 0, pour: [0, 0, 0]}
max_steps: 5
`))
	require.NoError(t, err)
	_, err = Run(sc, quietOptions())
	assert.ErrorIs(t, err, xp.ErrTankEmpty)
}
