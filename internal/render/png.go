// Package render writes PNG snapshots of curve trajectories. It is a
// read-only collaborator of the store: it consumes cloned curve data
// and never holds onto it.
package render

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/semmlerino/curveditor/internal/curve"
)

const (
	pointRadius  = 3.0
	framePadding = 24.0
	fontSize     = 12.0
)

var statusColors = map[curve.Status]color.RGBA{
	curve.StatusNormal:       {R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff},
	curve.StatusKeyframe:     {R: 0xe8, G: 0x4d, B: 0x4d, A: 0xff},
	curve.StatusTracked:      {R: 0x4d, G: 0xc8, B: 0x6a, A: 0xff},
	curve.StatusInterpolated: {R: 0xe8, G: 0xb3, B: 0x4d, A: 0xff},
	curve.StatusEndframe:     {R: 0x4d, G: 0x86, B: 0xe8, A: 0xff},
}

// Snapshot draws every curve's trajectory and writes a PNG. Points on
// currentFrame render larger so the frame's positions stand out.
func Snapshot(path string, curves map[string]curve.Curve, currentFrame, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("snapshot size must be positive, got %dx%d", width, height)
	}
	empty := true
	for _, c := range curves {
		if len(c.Points) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return fmt.Errorf("nothing to export")
	}

	minX, minY, maxX, maxY := bounds(curves)
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}
	scaleX := (float64(width) - 2*framePadding) / spanX
	scaleY := (float64(height) - 2*framePadding) / spanY
	toScreen := func(x, y float64) (float64, float64) {
		return framePadding + (x-minX)*scaleX, framePadding + (y-minY)*scaleY
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.RGBA{R: 0x1e, G: 0x1e, B: 0x22, A: 0xff})
	dc.Clear()

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %v", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	dc.SetFontFace(face)

	for _, c := range curves {
		drawTrajectory(dc, c, toScreen)
	}
	for _, c := range curves {
		drawPoints(dc, c, currentFrame, toScreen)
	}

	dc.SetColor(color.White)
	dc.DrawString(fmt.Sprintf("frame %d", currentFrame), framePadding, float64(height)-8)

	return dc.SavePNG(path)
}

func bounds(curves map[string]curve.Curve) (minX, minY, maxX, maxY float64) {
	first := true
	for _, c := range curves {
		for _, p := range c.Points {
			if first {
				minX, maxX = p.X, p.X
				minY, maxY = p.Y, p.Y
				first = false
				continue
			}
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	return minX, minY, maxX, maxY
}

func drawTrajectory(dc *gg.Context, c curve.Curve, toScreen func(x, y float64) (float64, float64)) {
	if len(c.Points) < 2 {
		return
	}
	dc.SetColor(color.RGBA{R: 0x55, G: 0x55, B: 0x60, A: 0xff})
	dc.SetLineWidth(1)
	for i := 1; i < len(c.Points); i++ {
		x0, y0 := toScreen(c.Points[i-1].X, c.Points[i-1].Y)
		x1, y1 := toScreen(c.Points[i].X, c.Points[i].Y)
		dc.DrawLine(x0, y0, x1, y1)
	}
	dc.Stroke()
	x, y := toScreen(c.Points[0].X, c.Points[0].Y)
	dc.SetColor(color.RGBA{R: 0x9a, G: 0x9a, B: 0xa4, A: 0xff})
	dc.DrawString(c.Name, x+6, y-6)
}

func drawPoints(dc *gg.Context, c curve.Curve, currentFrame int, toScreen func(x, y float64) (float64, float64)) {
	for _, p := range c.Points {
		x, y := toScreen(p.X, p.Y)
		r := pointRadius
		if p.Frame == currentFrame {
			r = pointRadius * 2
		}
		dc.SetColor(statusColors[p.Status])
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}
}
