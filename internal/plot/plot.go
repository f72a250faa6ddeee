// Package plot renders aggregated category counts as PNG charts.
package plot

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/analysis"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/config"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
)

// PixelsPerInch converts figure sizes in inches to pixels.
const PixelsPerInch = 100

// namedColors covers the names drawing.ColorFromKnown does not.
var namedColors = map[string]drawing.Color{
	"orange": {R: 255, G: 127, B: 14, A: 255},
	"gray":   {R: 127, G: 127, B: 127, A: 255},
}

// Renderer draws charts with go-chart.
type Renderer struct{}

// NewRenderer returns a PNG chart renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes result as a PNG chart to w. The kind of chart, its labels,
// color and size come from cfg. An empty result still yields a chart with
// its title and axes and nothing plotted.
func (p *Renderer) Render(w io.Writer, result analysis.Result, cfg config.PlotConfig) error {
	var err error
	switch {
	case !config.IsValidPlotKind(cfg.Kind) && cfg.Kind != "":
		err = fmt.Errorf("unknown plot kind %q", cfg.Kind)
	case len(result) == 0:
		err = emptyChart(cfg).Render(chart.PNG, w)
	case cfg.Kind == config.PlotKindScatter:
		err = scatterChart(result, cfg).Render(chart.PNG, w)
	default:
		err = barChart(result, cfg).Render(chart.PNG, w)
	}
	if err != nil {
		return errors.NewRenderError(err)
	}
	return nil
}

// ParseColor converts a hex color or a color name to a drawing color. An
// unknown name yields the zero color, which go-chart treats as unset.
func ParseColor(s string) drawing.Color {
	s = strings.TrimSpace(s)
	if config.IsHexColor(s) {
		return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
	}
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c
	}
	return drawing.ColorFromKnown(s)
}

func pixels(inches float64) int {
	return int(math.Round(inches * PixelsPerInch))
}

// yRange leaves headroom above the tallest bar and never collapses to zero.
func yRange(result analysis.Result) *chart.ContinuousRange {
	top := float64(result.Max()) * 1.1
	if top < 1 {
		top = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: top}
}

func barChart(result analysis.Result, cfg config.PlotConfig) chart.BarChart {
	col := ParseColor(cfg.Color)
	bars := make([]chart.Value, len(result))
	for i, c := range result {
		bars[i] = chart.Value{
			Label: c.Category,
			Value: float64(c.Count),
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		}
	}

	height := pixels(cfg.SizeH)
	return chart.BarChart{
		Title:      cfg.Title,
		Width:      pixels(cfg.SizeW),
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 70}},
		YAxis: chart.YAxis{
			Name:  cfg.YLabel,
			Range: yRange(result),
		},
		Bars:     bars,
		Elements: []chart.Renderable{xLabel(cfg.XLabel, height)},
	}
}

// xLabel draws the x axis title centered under the bar labels. BarChart has
// no axis name of its own.
func xLabel(label string, height int) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		if label == "" {
			return
		}
		style := chart.Style{
			Font:      defaults.Font,
			FontSize:  chart.DefaultAxisFontSize + 2,
			FontColor: chart.DefaultTextColor,
		}
		tb := chart.Draw.MeasureText(r, label, style)
		x := canvasBox.Left + (canvasBox.Width()-tb.Width())/2
		y := height - 12
		chart.Draw.Text(r, label, x, y, style)
	}
}

// emptyChart draws the frame of a chart with nothing in it. go-chart needs a
// series to lay out axes, so it gets one invisible point.
func emptyChart(cfg config.PlotConfig) chart.Chart {
	return chart.Chart{
		Title:      cfg.Title,
		Width:      pixels(cfg.SizeW),
		Height:     pixels(cfg.SizeH),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  cfg.XLabel,
			Ticks: []chart.Tick{{Value: -0.5}, {Value: 0.5}},
		},
		YAxis: chart.YAxis{
			Name:  cfg.YLabel,
			Range: yRange(nil),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0},
				YValues: []float64{0},
				Style:   chart.Style{StrokeWidth: chart.Disabled},
			},
		},
	}
}

func scatterChart(result analysis.Result, cfg config.PlotConfig) chart.Chart {
	col := ParseColor(cfg.Color)
	xs := make([]float64, len(result))
	ys := make([]float64, len(result))
	ticks := make([]chart.Tick, len(result))
	for i, c := range result {
		xs[i] = float64(i)
		ys[i] = float64(c.Count)
		ticks[i] = chart.Tick{Value: float64(i), Label: c.Category}
	}

	return chart.Chart{
		Title:      cfg.Title,
		Width:      pixels(cfg.SizeW),
		Height:     pixels(cfg.SizeH),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  cfg.XLabel,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(result)) - 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  cfg.YLabel,
			Range: yRange(result),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    cfg.YLabel,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    col,
				},
			},
		},
	}
}
