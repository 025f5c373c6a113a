package ladderservice

import (
	"bytes"
	"context"
	"time"

	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette holds the colors of rendered charts.
type ChartPalette struct {
	Background  drawing.Color
	PrimaryLine drawing.Color
	AccentLine  drawing.Color
	TextColor   drawing.Color
}

// DefaultPalette is a clay-court scheme.
var DefaultPalette = ChartPalette{
	Background:  drawing.ColorFromHex("fbf7f2"),
	PrimaryLine: drawing.ColorFromHex("c0562f"),
	AccentLine:  drawing.ColorFromHex("2f6f4f"),
	TextColor:   drawing.ColorFromHex("2b2b2b"),
}

// PointsHistoryChart renders a player's balance over time as a PNG.
func (s *LadderService) PointsHistoryChart(ctx context.Context, playerID uuid.UUID) ([]byte, error) {
	player, err := s.repo.GetPlayer(ctx, nil, playerID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListPointHistory(ctx, nil, playerID)
	if err != nil {
		return nil, err
	}
	return GeneratePointsHistoryChart(player.CreatedAt, history, DefaultPalette)
}

// GeneratePointsHistoryChart plots the balance after every ledger entry,
// starting from the balance before the first one.
func GeneratePointsHistoryChart(since time.Time, history []*ladderdb.PointHistory, palette ChartPalette) ([]byte, error) {
	if len(history) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	first := history[0]
	start := since
	if start.IsZero() || !start.Before(first.CreatedAt) {
		start = first.CreatedAt.Add(-time.Hour)
	}

	xValues := make([]time.Time, 0, len(history)+1)
	yValues := make([]float64, 0, len(history)+1)
	xValues = append(xValues, start)
	yValues = append(yValues, float64(first.Balance-first.Delta))

	lo, hi := yValues[0], yValues[0]
	for _, entry := range history {
		v := float64(entry.Balance)
		xValues = append(xValues, entry.CreatedAt)
		yValues = append(yValues, v)
		lo, hi = min(lo, v), max(hi, v)
	}

	mainSeries := chart.TimeSeries{
		Name:    "Points",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: palette.PrimaryLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    palette.AccentLine,
		},
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		YAxis: chart.YAxis{
			Name: "Points",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
			// A flat history would otherwise give a zero-height range.
			Range: &chart.ContinuousRange{
				Min: max(0, lo-20),
				Max: hi + 20,
			},
		},
		Series: []chart.Series{mainSeries},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No points history yet"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{Style: chart.Style{Hidden: true}},
		YAxis: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		// Render refuses a chart without a visible series.
		Series: []chart.Series{chart.ContinuousSeries{
			XValues: []float64{0, 1},
			YValues: []float64{0, 0},
			Style:   chart.Style{StrokeColor: drawing.ColorTransparent},
		}},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
