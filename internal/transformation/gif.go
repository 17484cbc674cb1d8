package transformation

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
)

// Animate rebuilds every frame of src as a full composited frame, resized to
// width and re-quantized to PaletteSize(quality) colors. Delays and the loop
// count are carried over.
func Animate(src *gif.GIF, width, quality int) *gif.GIF {
	w, h := src.Config.Width, src.Config.Height
	if w == 0 || h == 0 {
		b := src.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	colors := PaletteSize(quality)
	q := &quantize.MedianCutQuantizer{}

	out := &gif.GIF{LoopCount: src.LoopCount}
	for i, frame := range src.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(src.Disposal) {
			disposal = src.Disposal[i]
		}

		var previous *image.NRGBA
		if disposal == gif.DisposalPrevious {
			previous = imaging.Clone(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		out.Image = append(out.Image, palettize(Resize(canvas, width), q, colors))
		delay := 0
		if i < len(src.Delay) {
			delay = src.Delay[i]
		}
		out.Delay = append(out.Delay, delay)
		// Every emitted frame covers the whole canvas.
		out.Disposal = append(out.Disposal, gif.DisposalBackground)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			draw.Draw(canvas, canvas.Bounds(), previous, image.Point{}, draw.Src)
		}
	}
	return out
}

func palettize(img image.Image, q draw.Quantizer, colors int) *image.Paletted {
	bounds := img.Bounds()
	palette := q.Quantize(make(color.Palette, 0, colors), img)
	if len(palette) == 0 {
		palette = color.Palette{color.Transparent}
	}
	paletted := image.NewPaletted(bounds, palette)
	draw.FloydSteinberg.Draw(paletted, bounds, img, bounds.Min)
	return paletted
}
