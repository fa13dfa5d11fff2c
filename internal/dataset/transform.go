package dataset

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/Brownie44l1/tl-eval/internal/common"
	"github.com/nfnt/resize"
)

// ImageNet channel statistics the pretrained backbones were trained with.
var (
	Mean = [3]float32{0.485, 0.456, 0.406}
	Std  = [3]float32{0.229, 0.224, 0.225}
)

// Transform turns an image into a normalized CHW float32 tensor of
// 3 x Size x Size.
type Transform struct {
	Size int
	// Resize scales the shorter side to this many pixels before cropping.
	// Zero leaves the image as is.
	Resize int
}

// Len is the number of float32 values Apply produces.
func (t Transform) Len() int {
	return 3 * t.Size * t.Size
}

// Apply center-crops img to Size x Size, padding with black where the image
// is smaller, and normalizes every channel with Mean and Std.
func (t Transform) Apply(img image.Image) []float32 {
	if t.Resize > 0 {
		img = resizeShorter(img, t.Resize)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	left := cropOffset(width, t.Size)
	top := cropOffset(height, t.Size)

	plane := t.Size * t.Size
	inputData := make([]float32, 3*plane)

	for y := 0; y < t.Size; y++ {
		for x := 0; x < t.Size; x++ {
			var rNorm, gNorm, bNorm float32

			srcX, srcY := left+x, top+y
			if srcX >= 0 && srcX < width && srcY >= 0 && srcY < height {
				r, g, b, _ := img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY).RGBA()
				rNorm = float32(r) / 65535.0
				gNorm = float32(g) / 65535.0
				bNorm = float32(b) / 65535.0
			}

			pixelIndex := y*t.Size + x
			inputData[pixelIndex] = (rNorm - Mean[0]) / Std[0]
			inputData[plane+pixelIndex] = (gNorm - Mean[1]) / Std[1]
			inputData[2*plane+pixelIndex] = (bNorm - Mean[2]) / Std[2]
		}
	}

	return inputData
}

// cropOffset is where a centered window of size starts inside length. It is
// negative when the window is larger than the image, which pads both sides.
func cropOffset(length, size int) int {
	if length >= size {
		return int(math.RoundToEven(float64(length-size) / 2))
	}
	return -((size - length) / 2)
}

func resizeShorter(img image.Image, shorter int) image.Image {
	b := img.Bounds()
	if b.Dx() <= b.Dy() {
		return resize.Resize(uint(shorter), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(shorter), img, resize.Lanczos3)
}

// DecodeFile reads and decodes a JPEG, PNG or GIF image.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.Wrap(common.ErrIO, "open image "+path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, common.Wrap(common.ErrIO, "decode image "+path, err)
	}
	return img, nil
}
