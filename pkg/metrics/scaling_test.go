package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform(t *testing.T) {
	rows := []Row{{ID: "a", Values: map[Metric]float64{
		NodeOverlaps:      3,
		NodeOrthogonality: 4,
		AspectRatio:       0.5,
	}}, {ID: "b", Values: map[Metric]float64{
		AspectRatio: 2,
	}}}

	out := Transform(rows, DefaultScaling())
	assert.Equal(t, 3.0, out[0].Values[NodeOverlaps])
	assert.Equal(t, -4.0, out[0].Values[NodeOrthogonality])
	assert.Equal(t, 2.0, out[0].Values[AspectRatio])
	assert.Equal(t, 2.0, out[1].Values[AspectRatio])

	assert.Equal(t, 4.0, rows[0].Values[NodeOrthogonality], "input is not modified")
}

func TestNormalizePerDataset(t *testing.T) {
	var rows []Row
	for i, v := range []float64{1, 2, 3, 4, 5, 6, 7} {
		rows = append(rows,
			Row{ID: string(rune('a' + i)), Dataset: "small", Values: map[Metric]float64{TotalArea: v}},
			Row{ID: string(rune('a' + i)), Dataset: "large", Values: map[Metric]float64{TotalArea: 10 * v}},
		)
	}

	out := Normalize(rows)
	require.Len(t, out, len(rows))
	for i := 0; i < len(out); i += 2 {
		assert.InDelta(t, out[i].Values[TotalArea], out[i+1].Values[TotalArea], 1e-9,
			"datasets are scaled independently")
	}
	for i := 2; i < len(out); i += 2 {
		assert.Greater(t, out[i].Values[TotalArea], out[i-2].Values[TotalArea], "order is kept")
	}
	assert.Less(t, out[0].Values[TotalArea], 0.0, "minimum lies below the first quartile")
	assert.Greater(t, out[len(out)-1].Values[TotalArea], 1.0, "maximum lies above the third quartile")
}

func TestNormalizeDegenerate(t *testing.T) {
	rows := []Row{
		{ID: "a", Values: map[Metric]float64{NodeOverlaps: 5, CrossingAngle: math.NaN()}},
		{ID: "b", Values: map[Metric]float64{NodeOverlaps: 5, CrossingAngle: 30}},
	}
	out := Normalize(rows)
	assert.Equal(t, 0.0, out[0].Values[NodeOverlaps])
	assert.Equal(t, 0.0, out[1].Values[NodeOverlaps])
	assert.True(t, math.IsNaN(out[0].Values[CrossingAngle]))
	assert.Equal(t, 0.0, out[1].Values[CrossingAngle], "a single sample has no spread")
}

func TestTopN(t *testing.T) {
	s := Scaling{Ignore: []Metric{
		NodeOrthogonality, NodeDensity, AspectRatio, LineIntersections,
		LengthDifference, CrossingAngle, UnrelatedOverlaps,
	}}
	rows := []Row{
		{ID: "a", Values: map[Metric]float64{NodeOverlaps: 0, TotalArea: 300}},
		{ID: "b", Values: map[Metric]float64{NodeOverlaps: 1, TotalArea: 100}},
		{ID: "c", Values: map[Metric]float64{NodeOverlaps: 2, TotalArea: 200}},
		{ID: "d", Values: map[Metric]float64{NodeOverlaps: 9, TotalArea: math.NaN()}},
	}

	assert.Equal(t, []string{"b"}, TopN(rows, 2, s))
	assert.Equal(t, []string{"a", "b", "c"}, TopN(rows, 3, s))
	assert.Equal(t, []string{"a", "b", "c", "d"}, TopN(rows, 4, s))
	assert.Empty(t, TopN(rows, 1, s))
	assert.Nil(t, TopN(rows, 0, s))
}

func TestRowOf(t *testing.T) {
	r := Report{{Metric: TotalArea, Label: TotalArea.Label(), Value: 7}}
	row := RowOf("x", "ds", r)
	assert.Equal(t, "x", row.ID)
	assert.Equal(t, "ds", row.Dataset)
	assert.Equal(t, 7.0, row.Values[TotalArea])
}
