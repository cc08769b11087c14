package chart

import (
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/shopspring/decimal"
)

const timeAxisLayout = "2006-01-02 15:04"

// point is one buffered observation of a series.
type point struct {
	time  time.Time
	value decimal.Decimal
}

// HTMLRenderer is a PlotSink that buffers points per series for the lifetime of
// one analysis session and renders them as line charts on a single HTML page.
type HTMLRenderer struct {
	series map[string][]point
	order  []string
}

// NewHTMLRenderer creates an empty renderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		series: make(map[string][]point),
		order:  nil,
	}
}

// Plot implements PlotSink.
func (r *HTMLRenderer) Plot(series string, timestamp time.Time, value decimal.Decimal) error {
	if _, ok := r.series[series]; !ok {
		r.order = append(r.order, series)
	}

	r.series[series] = append(r.series[series], point{time: timestamp, value: value})

	return nil
}

// WriteHTML renders one line chart per series, in first-plotted order.
func (r *HTMLRenderer) WriteHTML(w io.Writer) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	for _, name := range r.order {
		points := r.series[name]

		xAxis := make([]string, len(points))
		values := make([]opts.LineData, len(points))

		for i, p := range points {
			xAxis[i] = p.time.UTC().Format(timeAxisLayout)
			values[i] = opts.LineData{Value: p.value.InexactFloat64()}
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: name}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
			charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		)
		line.SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
		line.SetXAxis(xAxis)
		line.AddSeries(name, values)

		page.AddCharts(line)
	}

	return page.Render(w)
}
