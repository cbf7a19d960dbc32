package metrics

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

// Entry is one measured value.
type Entry struct {
	Metric Metric  `json:"metric" bson:"metric"`
	Label  string  `json:"label" bson:"label"`
	Value  float64 `json:"-" bson:"value"`
}

// MarshalJSON writes NaN values as null.
func (e Entry) MarshalJSON() ([]byte, error) {
	type wire struct {
		Metric Metric   `json:"metric"`
		Label  string   `json:"label"`
		Value  *float64 `json:"value"`
	}
	w := wire{Metric: e.Metric, Label: e.Label}
	if !math.IsNaN(e.Value) && !math.IsInf(e.Value, 0) {
		w.Value = &e.Value
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads null values back as NaN.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w struct {
		Metric Metric   `json:"metric"`
		Label  string   `json:"label"`
		Value  *float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Metric, e.Label, e.Value = w.Metric, w.Label, math.NaN()
	if w.Value != nil {
		e.Value = *w.Value
	}
	return nil
}

// Report is the ordered result of one [Engine.Run].
type Report []Entry

// Get returns the value of m, or NaN if the report lacks it.
func (r Report) Get(m Metric) float64 {
	for _, e := range r {
		if e.Metric == m {
			return e.Value
		}
	}
	return math.NaN()
}

// Values returns the metric values keyed by metric.
func (r Report) Values() map[Metric]float64 {
	out := make(map[Metric]float64, len(r))
	for _, e := range r {
		out[e.Metric] = e.Value
	}
	return out
}

// TSV renders one "label<TAB>value" line per metric.
func (r Report) TSV() string {
	var b strings.Builder
	for _, e := range r {
		fmt.Fprintf(&b, "%s\t%s\n", e.Label, formatValue(e.Value))
	}
	return b.String()
}

// HTML renders one table row per metric.
func (r Report) HTML() string {
	var b strings.Builder
	for _, e := range r {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>\n", html.EscapeString(e.Label), formatValue(e.Value))
	}
	return b.String()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
