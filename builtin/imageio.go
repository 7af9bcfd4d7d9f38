package builtin

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// Decoders for image.Decode
	_ "image/gif"
)

// loadImage decodes the file at path. With gray set the result is converted
// to a single channel image.
func loadImage(path string, gray bool) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if gray {
		return toGray(img), nil
	}
	return img, nil
}

// saveImage encodes img to path, choosing the encoder by extension when
// format is empty.
func saveImage(path string, img image.Image, format string, quality int) error {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch format {
	case "jpg", "jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// toGray converts any image to 8-bit luminance.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// intensities returns the pixels of img as luminance values.
func intensities(img image.Image) []uint8 {
	g := toGray(img)
	b := g.Bounds()
	out := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride : (y-b.Min.Y)*g.Stride+b.Dx()]
		out = append(out, row...)
	}
	return out
}

func describeImage(img image.Image) string {
	b := img.Bounds()
	channels := 3
	if _, ok := img.(*image.Gray); ok {
		channels = 1
	}
	return fmt.Sprintf("%dx%d, %d channel(s), %d kB", b.Dx(), b.Dy(), channels, b.Dx()*b.Dy()*channels/1024)
}
