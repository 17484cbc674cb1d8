package transformation

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"

	// imaging registers jpeg, png, gif, bmp and tiff; webp sources need
	// their decoder registered with the image package as well.
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

// Params are the effective settings for one conversion.
type Params struct {
	Width   int
	Format  string
	Quality int
}

// Metadata is what Probe learns about a source without decoding pixels.
type Metadata struct {
	Width  int
	Height int
	Format string
}

// Probe reads the image header of path.
func Probe(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read image header: %w", err)
	}
	return Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Supported reports whether format can be encoded.
func Supported(format string) bool {
	if strings.EqualFold(format, "webp") {
		return true
	}
	_, err := imaging.FormatFromExtension(format)
	return err == nil
}

// PaletteSize maps a 0-100 quality onto a GIF palette of at most 256 colors.
func PaletteSize(quality int) int {
	n := 256 * quality / 100
	if n < 2 {
		return 2
	}
	if n > 256 {
		return 256
	}
	return n
}

// Transform decodes src, resizes it to p.Width keeping the aspect ratio and
// writes it to dst encoded as p.Format. A Width of 0 keeps the source width.
func Transform(src, dst string, p Params) error {
	if !Supported(p.Format) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.Format)
	}

	if isGIF(src) && isGIF("."+p.Format) {
		anim, err := decodeGIF(src)
		if err != nil {
			return err
		}
		if len(anim.Image) > 1 {
			return writeFile(dst, func(w io.Writer) error {
				if err := gif.EncodeAll(w, Animate(anim, p.Width, p.Quality)); err != nil {
					return fmt.Errorf("error while encoding animated gif: %v", err)
				}
				return nil
			})
		}
	}

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("failed to decode image: %v", err)
	}

	newImage := Resize(img, p.Width)

	return writeFile(dst, func(w io.Writer) error {
		return Encode(w, newImage, p.Format, p.Quality)
	})
}

// Resize scales img to width, deriving the height from the aspect ratio.
func Resize(img image.Image, width int) image.Image {
	if width <= 0 || width == img.Bounds().Dx() {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// Encode writes img to w in format at the given quality.
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	if strings.EqualFold(format, "webp") {
		if err := webp.Encode(w, img, &webp.Options{Quality: float32(quality), Exact: true}); err != nil {
			return fmt.Errorf("error encoding to webp: %v", err)
		}
		return nil
	}

	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	var opts []imaging.EncodeOption
	switch f {
	case imaging.JPEG:
		opts = append(opts, imaging.JPEGQuality(quality))
	case imaging.PNG:
		// Below 100 the image is reduced to an indexed palette, written as a
		// paletted PNG.
		if quality < 100 {
			img = palettize(img, &quantize.MedianCutQuantizer{}, PaletteSize(quality))
		}
	case imaging.GIF:
		opts = append(opts,
			imaging.GIFNumColors(PaletteSize(quality)),
			imaging.GIFQuantizer(&quantize.MedianCutQuantizer{}),
		)
	}

	if err := imaging.Encode(w, img, f, opts...); err != nil {
		return fmt.Errorf("error while encoding %s: %v", format, err)
	}
	return nil
}

func isGIF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gif")
}

func decodeGIF(path string) (*gif.GIF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	anim, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	return anim, nil
}

// writeFile encodes into dst and removes the partial file when encoding fails.
func writeFile(dst string, encode func(io.Writer) error) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := encode(out); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to write image data: %w", err)
	}
	return nil
}
