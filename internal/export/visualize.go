package export

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
	"github.com/sheetgrid/sheetgrid/internal/pipeline"
)

// Overlay renders the aligned sheet with every section and grid column
// outlined in a distinct color, each tagged with its index. Useful for
// eyeballing why a region was or was not extracted.
func Overlay(res *pipeline.Result) *image.RGBA {
	bounds := res.Aligned.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, res.Aligned, bounds.Min, draw.Src)

	total := len(res.Sections)
	if res.Grid != nil {
		total += len(res.Grid.Columns)
	}
	palette := labelPalette(total)

	i := 0
	for _, s := range res.Sections {
		drawBox(out, s.Region.Box, palette[i])
		drawLabel(out, s.Region.Box.X+2, s.Region.Box.Y+2, strconv.Itoa(i+1), colorWhite, colorShadow)
		i++
	}
	if res.Grid != nil {
		for _, col := range res.Grid.Columns {
			drawBox(out, col.Region.Box, palette[i])
			drawLabel(out, col.Region.Box.X+2, col.Region.Box.Y+2, strconv.Itoa(col.Index), colorWhite, colorShadow)
			i++
		}
	}
	return out
}

var (
	colorWhite  = color.RGBA{255, 255, 255, 255}
	colorShadow = color.RGBA{0, 0, 0, 180}
)

// labelPalette spreads n saturated colors evenly around the hue wheel so
// adjacent regions stay visually distinct.
func labelPalette(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.RGBA, n)
	for i := range out {
		h := float64(i) * 360.0 / float64(n)
		r, g, b := colorful.Hsv(h, 0.85, 0.9).RGB255()
		out[i] = color.RGBA{r, g, b, 255}
	}
	return out
}

// drawBox outlines a box with a 2px stroke, clipped to the image.
func drawBox(img *image.RGBA, box geometry.Box, c color.RGBA) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.SetRGBA(x, y, c)
		}
	}
	for t := 0; t < 2; t++ {
		for x := box.X; x < box.X+box.W; x++ {
			set(x, box.Y+t)
			set(x, box.Y+box.H-1-t)
		}
		for y := box.Y; y < box.Y+box.H; y++ {
			set(box.X+t, y)
			set(box.X+box.W-1-t, y)
		}
	}
}

// 3x5 pixel digit font, enough for index labels without pulling in a
// font renderer.
var labelGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.SetRGBA(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := labelGlyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						img.SetRGBA(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}

