package dataset

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chai2010/tiff"
	"github.com/nfnt/resize"
	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"
	"golang.org/x/image/draw"
)

// readImage reads image from file.
func readImage(filename string) (image.Image, error) {
	ext := filepath.Ext(filename)
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ".png", ".PNG":
		return png.Decode(f)
	case ".jpg", ".jpeg", ".JPG", ".JPEG":
		return jpeg.Decode(f)
	case ".tiff", ".tif", ".TIFF", ".TIF":
		return tiff.Decode(f)
	default:
		err = fmt.Errorf("Unsupported image format: %v\n", ext)
		return nil, err
	}
}

// toNRGBA normalizes any decoded image to NRGBA pixels.
func toNRGBA(img image.Image) *image.NRGBA {
	maxY := img.Bounds().Size().Y
	maxX := img.Bounds().Size().X
	rec := image.Rectangle{image.ZP, image.Point{maxX, maxY}}
	dst := image.NewNRGBA(rec)
	draw.Copy(dst, image.ZP, img, img.Bounds(), draw.Src, nil)

	return dst
}

// toTensor converts an image to a CHW float tensor scaled to [-1, 1],
// matching the tanh output range of the generator.
func toTensor(img image.Image) *ts.Tensor {
	src := toNRGBA(img)
	h := src.Bounds().Size().Y
	w := src.Bounds().Size().X

	vals := make([]float64, 3*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.NRGBAAt(x, y)
			vals[0*h*w+y*w+x] = float64(c.R)/127.5 - 1
			vals[1*h*w+y*w+x] = float64(c.G)/127.5 - 1
			vals[2*h*w+y*w+x] = float64(c.B)/127.5 - 1
		}
	}

	return ts.MustOfSlice(vals).MustView([]int64{3, int64(h), int64(w)}, true).MustTotype(gotch.Float, true)
}

// resizeTo resamples an image to size x size with Lanczos.
func resizeTo(img image.Image, size uint) image.Image {
	if img.Bounds().Size().X == int(size) && img.Bounds().Size().Y == int(size) {
		return img
	}

	return resize.Resize(size, size, img, resize.Lanczos3)
}
