package report

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pmacsim/internal/engine"
)

// ErrNoSamples is returned when a run has nothing to draw.
var ErrNoSamples = errors.New("report: run has no samples")

var (
	colorField    = color.RGBA{R: 0xff, G: 0x44, B: 0x44, A: 0xff}
	colorDensity  = color.RGBA{R: 0x44, G: 0x44, B: 0xff, A: 0xff}
	colorWindow   = color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
	colorClear    = color.RGBA{R: 0x44, G: 0xcc, B: 0x44, A: 0xff}
	colorBlackout = color.RGBA{R: 0xff, G: 0x44, B: 0x44, A: 0xff}
	colorCommand  = color.RGBA{R: 0xff, G: 0xaa, B: 0x00, A: 0xff}
	colorPower    = color.RGBA{R: 0xaa, G: 0x44, B: 0xff, A: 0xff}
)

func xys(t, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(t))
	for i := range t {
		pts[i].X = t[i]
		pts[i].Y = y[i]
	}
	return pts
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color, width float64, legend bool) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(width)
	p.Add(line)
	if legend {
		p.Legend.Add(name, line)
	}
	return nil
}

func newPanel(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// Figure builds the 3x2 grid of panels for a run.
func Figure(res *engine.Result) ([][]*plot.Plot, error) {
	s := res.Series
	if s.Len() == 0 {
		return nil, ErrNoSamples
	}
	cfg := res.Config
	panels := Panels(res)

	field := newPanel("B-Field", "T")
	if err := addLine(field, "B-Field", xys(s.T, s.BField), colorField, 1.5, false); err != nil {
		return nil, err
	}

	density := newPanel("Plasma n_e", "n_e / N_e0")
	if err := addLine(density, "n_e/N_e0", xys(s.T, panels[1].Series[0]), colorDensity, 1.5, false); err != nil {
		return nil, err
	}

	windows := newPanel("PMAC Windows", "")
	end := s.T[s.Len()-1]
	for start := 0.0; start <= end; start += cfg.TWindow {
		stop := start + cfg.TWindow
		if stop > end {
			stop = end
		}
		seg := plotter.XYs{{X: start, Y: 0.9}, {X: stop, Y: 0.9}}
		if err := addLine(windows, "window", seg, colorWindow, 4, false); err != nil {
			return nil, err
		}
	}
	windows.Y.Min, windows.Y.Max = 0, 1

	guidance := newPanel("Guidance", "flag")
	if err := addLine(guidance, "Guidance Clear", xys(s.T, s.GuidanceClear), colorClear, 1.5, true); err != nil {
		return nil, err
	}
	if err := addLine(guidance, "Blackout", xys(s.T, s.Blackout), colorBlackout, 1.5, true); err != nil {
		return nil, err
	}
	guidance.Y.Min, guidance.Y.Max = -0.1, 1.1

	command := newPanel("AI Command", "command")
	if err := addLine(command, "AI Command", xys(s.T, s.Command), colorCommand, 1, false); err != nil {
		return nil, err
	}

	power := newPanel("Power", "kW")
	if err := addLine(power, "Power", xys(s.T, panels[5].Series[0]), colorPower, 1, false); err != nil {
		return nil, err
	}

	return [][]*plot.Plot{
		{field, density},
		{windows, guidance},
		{command, power},
	}, nil
}

// WritePNG renders the figure at the given size in inches.
func WritePNG(w io.Writer, res *engine.Result, widthIn, heightIn float64) error {
	plots, err := Figure(res)
	if err != nil {
		return err
	}

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(96),
	)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      len(plots[0]),
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(bw); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return bw.Flush()
}

// SavePNG writes the figure to path, creating parent directories.
func SavePNG(path string, res *engine.Result, widthIn, heightIn float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	if err := WritePNG(f, res, widthIn, heightIn); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
