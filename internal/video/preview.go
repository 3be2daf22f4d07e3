package video

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// ScalePreview scales a decoded frame to the given display width,
// preserving aspect ratio. The display collaborator calls this on every
// frame change, so the cheap bilinear scaler is used rather than a
// high-quality kernel.
func ScalePreview(img image.Image, width int) *image.RGBA {
	bounds := img.Bounds()
	if width <= 0 || bounds.Dx() == 0 || bounds.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
