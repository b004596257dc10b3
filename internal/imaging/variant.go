package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// prepareVariant produces one OCR-ready raster: resized into the working
// band, desaturated, contrast-stretched, lightly denoised, then sharpened.
func (n *Normalizer) prepareVariant(img image.Image) image.Image {
	resized := n.resizeToBand(img)
	gray := imaging.Grayscale(resized)
	gray = imaging.AdjustContrast(gray, 20)
	gray = imaging.Blur(gray, 0.6)
	return imaging.Sharpen(gray, 1.2)
}

// resizeToBand clamps the long edge into [MinLongEdge, MaxLongEdge].
func (n *Normalizer) resizeToBand(img image.Image) image.Image {
	bounds := img.Bounds()
	long := bounds.Dx()
	if bounds.Dy() > long {
		long = bounds.Dy()
	}
	switch {
	case long < n.cfg.MinLongEdge:
		return resizeLongEdge(img, n.cfg.MinLongEdge)
	case long > n.cfg.MaxLongEdge:
		return resizeLongEdge(img, n.cfg.MaxLongEdge)
	default:
		return img
	}
}

func resizeLongEdge(img image.Image, edge int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() >= bounds.Dy() {
		return imaging.Resize(img, edge, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, edge, imaging.Lanczos)
}
