package metrics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Scaling says how each metric is turned into a "lower is better" score
// when comparing layouts.
type Scaling struct {
	// Linear metrics are already better when lower.
	Linear []Metric `json:"linear" toml:"linear"`
	// Inverse metrics are better when higher and get negated.
	Inverse []Metric `json:"inverse" toml:"inverse"`
	// CloseToOne metrics are best at 1; values below 1 are replaced by their
	// reciprocal.
	CloseToOne []Metric `json:"close_to_one" toml:"close_to_one"`
	// Ignore metrics are kept as is and skipped by [TopN].
	Ignore []Metric `json:"ignore" toml:"ignore"`
}

// DefaultScaling is the scaling used by the comparison commands.
func DefaultScaling() Scaling {
	return Scaling{
		Linear: []Metric{
			NodeOverlaps,
			NodeDensity,
			TotalArea,
			LineIntersections,
			LengthDifference,
			UnrelatedOverlaps,
		},
		Inverse:    []Metric{NodeOrthogonality, CrossingAngle},
		CloseToOne: []Metric{AspectRatio},
	}
}

// Row is the metric vector of one evaluated layout.
type Row struct {
	// ID identifies the settings combination that produced the row.
	ID      string             `json:"id"`
	Dataset string             `json:"dataset"`
	Values  map[Metric]float64 `json:"values"`
}

// RowOf builds a row from a report.
func RowOf(id, dataset string, r Report) Row {
	return Row{ID: id, Dataset: dataset, Values: r.Values()}
}

func (r Row) clone() Row {
	out := r
	out.Values = make(map[Metric]float64, len(r.Values))
	for m, v := range r.Values {
		out.Values[m] = v
	}
	return out
}

// Transform returns copies of rows in which lower is better for every
// metric.
func Transform(rows []Row, s Scaling) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
		for _, m := range s.Inverse {
			if v, ok := out[i].Values[m]; ok {
				out[i].Values[m] = -v
			}
		}
		for _, m := range s.CloseToOne {
			if v, ok := out[i].Values[m]; ok && v < 1 {
				out[i].Values[m] = 1 / v
			}
		}
	}
	return out
}

// Normalize returns copies of rows with every metric mapped linearly so that
// the first quartile of its dataset becomes 0 and the third quartile
// becomes 1. Datasets are scaled independently. A metric whose quartiles
// coincide maps to 0; NaN values stay NaN.
func Normalize(rows []Row) []Row {
	type scaleKey struct {
		dataset string
		metric  Metric
	}
	samples := map[scaleKey][]float64{}
	for _, r := range rows {
		for m, v := range r.Values {
			if math.IsNaN(v) {
				continue
			}
			k := scaleKey{r.Dataset, m}
			samples[k] = append(samples[k], v)
		}
	}

	type iqr struct{ lo, hi float64 }
	scales := make(map[scaleKey]iqr, len(samples))
	for k, xs := range samples {
		slices.Sort(xs)
		scales[k] = iqr{
			lo: stat.Quantile(0.25, stat.LinInterp, xs, nil),
			hi: stat.Quantile(0.75, stat.LinInterp, xs, nil),
		}
	}

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
		for m, v := range out[i].Values {
			if math.IsNaN(v) {
				continue
			}
			sc := scales[scaleKey{r.Dataset, m}]
			if sc.hi == sc.lo {
				out[i].Values[m] = 0
				continue
			}
			out[i].Values[m] = (v - sc.lo) / (sc.hi - sc.lo)
		}
	}
	return out
}

// TopN returns the ids of rows that rank among the n lowest values of every
// metric not ignored by s, in row order. Rows should be transformed first.
// NaN ranks last.
func TopN(rows []Row, n int, s Scaling) []string {
	if n <= 0 || len(rows) == 0 {
		return nil
	}
	keep := make([]bool, len(rows))
	for i := range keep {
		keep[i] = true
	}

	idx := make([]int, len(rows))
	for _, m := range All {
		if slices.Contains(s.Ignore, m) {
			continue
		}
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			return compareScores(value(rows[a], m), value(rows[b], m))
		})
		best := make([]bool, len(rows))
		for _, i := range idx[:min(n, len(idx))] {
			best[i] = true
		}
		for i := range keep {
			keep[i] = keep[i] && best[i]
		}
	}

	var ids []string
	for i, r := range rows {
		if keep[i] && !slices.Contains(ids, r.ID) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func value(r Row, m Metric) float64 {
	v, ok := r.Values[m]
	if !ok {
		return math.NaN()
	}
	return v
}

func compareScores(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
