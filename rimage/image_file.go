package rimage

import (
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.viam.com/utils"
)

// EncodeImage writes img to w in the format named by ext (".png", ".ppm" or ".qoi").
func EncodeImage(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".ppm":
		return ppm.Encode(w, toRGBA(img))
	case ".qoi":
		return qoi.Encode(w, img)
	default:
		return errors.Errorf("don't know how to write an image with extension %q", ext)
	}
}

// toRGBA returns img as an *image.RGBA, the only color model the ppm encoder takes.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	result := image.NewRGBA(img.Bounds())
	draw.Draw(result, result.Bounds(), img, img.Bounds().Min, draw.Src)
	return result
}

// WriteImageToFile writes img to fn, picking the format from the file extension.
func WriteImageToFile(fn string, img image.Image) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", fn)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()
	return EncodeImage(f, filepath.Ext(fn), img)
}

// ReadBytesFromFile reads a raw sensor dump.
func ReadBytesFromFile(fn string) ([]byte, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %q", fn)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return io.ReadAll(f)
}

// ScalePreview resizes img to width x height with nearest-neighbor sampling, the way a
// bitmap is stretched onto a preview surface without filtering.
func ScalePreview(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.NearestNeighbor)
}

// RotateLandscape rotates img 90 degrees counter-clockwise so a portrait sensor frame
// reads upright on a landscape preview.
func RotateLandscape(img image.Image) *image.NRGBA {
	return imaging.Rotate90(img)
}
