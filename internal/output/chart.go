package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/firefly"
)

// ChartFile is the default chart file name.
const ChartFile = "swarm.html"

// ChartSink keeps the initial positions and, once the final ones arrive,
// renders both as a scatter chart into Path.
type ChartSink struct {
	Path  string
	Title string

	mu    sync.Mutex
	start []optimization.Point
}

// NewChartSink creates a chart sink writing to path.
func NewChartSink(path, title string) *ChartSink {
	return &ChartSink{Path: path, Title: title}
}

// WritePositions implements firefly.Sink.
func (c *ChartSink) WritePositions(stage firefly.Stage, pop *firefly.Population) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stage == firefly.StageStart {
		c.start = pop.Positions()
		return nil
	}
	return c.render(c.start, pop.Positions())
}

func (c *ChartSink) render(start, end []optimization.Point) (err error) {
	if len(end) == 0 {
		return fmt.Errorf("no positions to plot")
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: c.Title,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "x",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "y",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	scatter.AddSeries("Start", scatterData(start, "circle")).
		AddSeries("End", scatterData(end, "triangle")).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create chart directory: %w", err)
		}
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close chart: %w", cerr)
		}
	}()

	if err := scatter.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func scatterData(points []optimization.Point, symbol string) []opts.ScatterData {
	data := make([]opts.ScatterData, len(points))
	for i, p := range points {
		data[i] = opts.ScatterData{
			Value:      []float64{p.X, p.Y},
			Symbol:     symbol,
			SymbolSize: 10,
		}
	}
	return data
}
