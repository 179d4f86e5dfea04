package results

import (
	"math"

	"github.com/iwvelando/mortgage-simulator/internal/simulation"
)

// Group is one box of the chart.
type Group struct {
	Name    string     `json:"name"`
	Values  []float64  `json:"values"`
	Summary BoxSummary `json:"summary"`
}

// Axis is the value axis shared by every group.
type Axis struct {
	Title string  `json:"title"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Trace is a Plotly box trace.
type Trace struct {
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Y         []float64 `json:"y"`
	BoxPoints string    `json:"boxpoints"`
}

// Layout is the Plotly layout for the chart.
type Layout struct {
	Title      string     `json:"title"`
	YAxis      AxisLayout `json:"yaxis"`
	ShowLegend bool       `json:"showlegend"`
	BoxMode    string     `json:"boxmode"`
}

// AxisLayout is a Plotly axis.
type AxisLayout struct {
	Title string    `json:"title"`
	Range []float64 `json:"range,omitempty"`
}

// Chart is the side-by-side box plot of one metric across conditions.
type Chart struct {
	Metric Metric  `json:"metric"`
	Label  string  `json:"label"`
	Title  string  `json:"title"`
	Axis   Axis    `json:"axis"`
	Groups []Group `json:"groups"`
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// BuildChart projects res onto metric and summarizes every group.
func BuildChart(res *simulation.Results, metric Metric) (Chart, error) {
	series, err := Project(res, metric)
	if err != nil {
		return Chart{}, err
	}

	chart := Chart{
		Metric: metric,
		Label:  metric.Label(),
		Title:  metric.Title(),
		Axis:   Axis{Title: "Value"},
		Groups: make([]Group, 0, len(series)),
		Data:   make([]Trace, 0, len(series)),
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		summary := Summarize(s.Values)
		chart.Groups = append(chart.Groups, Group{Name: s.Name, Values: s.Values, Summary: summary})
		chart.Data = append(chart.Data, Trace{Type: "box", Name: s.Name, Y: s.Values, BoxPoints: "outliers"})
		if summary.Count > 0 {
			lo = math.Min(lo, summary.Min)
			hi = math.Max(hi, summary.Max)
		}
	}
	if !math.IsInf(lo, 1) {
		chart.Axis.Min, chart.Axis.Max = lo, hi
	}

	chart.Layout = Layout{
		Title:      chart.Title,
		YAxis:      AxisLayout{Title: chart.Axis.Title},
		ShowLegend: true,
		BoxMode:    "group",
	}
	if len(chart.Groups) > 0 && chart.Axis.Max > chart.Axis.Min {
		chart.Layout.YAxis.Range = []float64{chart.Axis.Min, chart.Axis.Max}
	}
	return chart, nil
}

// Visualizer holds the metric currently selected for display. Changing the
// selection only re-projects results already held by the caller.
type Visualizer struct {
	selected Metric
}

// NewVisualizer starts with metric selected, or DefaultMetric when metric is
// empty or unknown.
func NewVisualizer(metric Metric) *Visualizer {
	if _, err := ParseMetric(string(metric)); err != nil {
		metric = DefaultMetric
	}
	return &Visualizer{selected: metric}
}

// Select changes the selected metric. An unknown name keeps the current
// selection and returns ErrUnknownMetric.
func (v *Visualizer) Select(name string) error {
	m, err := ParseMetric(name)
	if err != nil {
		return err
	}
	v.selected = m
	return nil
}

// Selected returns the selected metric.
func (v *Visualizer) Selected() Metric {
	return v.selected
}

// Chart builds the chart of res for the selected metric.
func (v *Visualizer) Chart(res *simulation.Results) (Chart, error) {
	return BuildChart(res, v.selected)
}
