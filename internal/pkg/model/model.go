// Package model holds the renderer inputs: everything a chart renderer needs to draw
// the charts of a view, already exploded, partitioned into series and stacked.
package model

import (
	"math"

	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
)

// Scenario defines all the charts produced by a view, rendered on a single page.
type Scenario struct {
	Name   string
	Charts []Chart
	Legend []LegendEntry
}

// IsEmpty reports whether there is nothing to chart.
func (s Scenario) IsEmpty() bool {
	return len(s.Charts) == 0
}

// LegendEntry associates a series value with its color.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Axis describes the x or y axis of a chart.
//
// A continuous axis is numeric. Otherwise, Labels holds the ordered categories of the axis.
type Axis struct {
	Title      string
	Continuous bool
	Labels     []string
	Min        *float64
	Max        *float64
}

// Chart holds all the series drawn in a single chart.
type Chart struct {
	ID        string
	Title     string
	ChartType view.ChartType
	X         Axis
	Y         Axis
	Series    []Series
	Display   view.Display
}

// IsStacked reports whether the series of this chart are stacked on top of each other.
func (c Chart) IsStacked() bool {
	return c.ChartType.IsStacked()
}

// Series is a set of points drawn with the same color.
//
// For stacked charts, Points holds the positive half of the series and Negative holds the negative half.
// Both halves have one point per x value of the chart, in ascending x order.
type Series struct {
	Label    string
	Color    string
	Points   []Point
	Negative []Point
}

// Halves returns the non-empty halves of the series: the positive half first.
func (s Series) Halves() [][]Point {
	halves := make([][]Point, 0, 2) //nolint:mnd
	if len(s.Points) > 0 {
		halves = append(halves, s.Points)
	}
	if len(s.Negative) > 0 {
		halves = append(halves, s.Negative)
	}

	return halves
}

// Point is a single data point.
//
// Y is the top of the point once stacked, and Base is the level it is stacked upon (0 when not stacked).
type Point struct {
	X      table.Value
	Label  string
	Y      float64
	Base   float64
	YLabel string // only for a discrete y axis
}

// Unstacked returns the value of the point before stacking.
func (p Point) Unstacked() float64 {
	return p.Y - p.Base
}

// Height returns the height of a bar.
func (p Point) Height() float64 {
	return math.Abs(p.Y - p.Base)
}

// Bars returns the points of a half that have a non-zero height, as a new slice.
func Bars(points []Point) []Point {
	bars := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Height() == 0 {
			continue
		}

		bars = append(bars, p)
	}

	return bars
}

// Vertex is a corner of an area polygon.
type Vertex struct {
	X     table.Value
	Label string
	Y     float64
}

// Polygon returns the outline of the area covered by a half of a stacked series:
// the bases in x order, then the tops in reverse x order.
func Polygon(points []Point) []Vertex {
	vertices := make([]Vertex, 0, 2*len(points)) //nolint:mnd
	for _, p := range points {
		vertices = append(vertices, Vertex{X: p.X, Label: p.Label, Y: p.Base})
	}

	for i := len(points) - 1; i >= 0; i-- {
		p := points[i]
		vertices = append(vertices, Vertex{X: p.X, Label: p.Label, Y: p.Y})
	}

	return vertices
}
