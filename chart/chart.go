// Package chart renders a finished simulation's queue-depth timeline to an
// image so a run's contention pattern can be eyeballed: a flat line at
// capacity means constant backpressure, a flat line at zero means starved
// consumers. Only the CLI uses this package; the simulation core never
// imports it.
package chart

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/concurrency-lab/prodcon/simulation"
	"github.com/concurrency-lab/prodcon/utils"
)

const (
	ColorRed   = "red"
	ColorBlue  = "blue"
	ColorGreen = "green"
	ColorGray  = "gray"
)

var colorsPaletteMap = map[string]color.RGBA{
	ColorRed:   {R: 214, G: 39, B: 40, A: 255},
	ColorBlue:  {R: 31, G: 119, B: 180, A: 255},
	ColorGreen: {R: 44, G: 160, B: 44, A: 255},
	ColorGray:  {R: 127, G: 127, B: 127, A: 255},
}

type GraphConfig struct {
	Title           string
	XLabel, YLabel  string
	BackgroundColor color.Color
}

type GraphLabelPoint struct {
	Label  string
	Points plotter.XYer
}

type Graph struct {
	Plot *plot.Plot
}

func NewGraph(config *GraphConfig) *Graph {
	p := plot.New()

	if config == nil {
		return &Graph{Plot: p}
	}

	p.Title.Text = config.Title
	p.X.Label.Text = config.XLabel
	p.Y.Label.Text = config.YLabel
	if config.BackgroundColor != color.Color(nil) {
		p.BackgroundColor = config.BackgroundColor
	}
	return &Graph{Plot: p}
}

func (g *Graph) GetColor(name string) color.RGBA {
	if c, ok := colorsPaletteMap[name]; ok {
		return c
	}
	return colorsPaletteMap[ColorBlue]
}

func (g *Graph) Save(width, height vg.Length, filename string) error {
	return g.Plot.Save(width, height, filename)
}

func (g *Graph) InsertComponent(components ...plot.Plotter) {
	g.Plot.Add(components...)
}

func (g *Graph) InsertLinePoints(points ...GraphLabelPoint) error {
	for _, lp := range points {
		if err := plotutil.AddLinePoints(g.Plot, lp.Label, lp.Points); err != nil {
			return err
		}
	}
	return nil
}

// QueueDepth writes a PNG line chart of the run's sampled queue depth with a
// horizontal reference line at the buffer's capacity.
func QueueDepth(result *simulation.Result, filename string) error {
	if len(result.Timeline) == 0 {
		return fmt.Errorf("result %s has no depth samples to plot", result.RunID)
	}

	graph := NewGraph(&GraphConfig{
		Title:           fmt.Sprintf("Queue depth: %s", result.Scenario),
		XLabel:          "seconds",
		YLabel:          "items",
		BackgroundColor: color.White,
	})

	depths := utils.Map(result.Timeline, func(s simulation.DepthSample) plotter.XY {
		return plotter.XY{X: s.Offset.Seconds(), Y: float64(s.Depth)}
	})
	if err := graph.InsertLinePoints(GraphLabelPoint{
		Label:  "depth",
		Points: plotter.XYs(depths),
	}); err != nil {
		return err
	}

	last := result.Timeline[len(result.Timeline)-1]
	capacityLine := plotter.XYs{
		{X: 0, Y: float64(result.Config.Capacity)},
		{X: last.Offset.Seconds(), Y: float64(result.Config.Capacity)},
	}
	line, err := plotter.NewLine(capacityLine)
	if err != nil {
		return err
	}
	line.Color = graph.GetColor(ColorGray)
	graph.InsertComponent(line)
	graph.Plot.Legend.Add("capacity", line)

	return graph.Save(6*vg.Inch, 3*vg.Inch, filename)
}
