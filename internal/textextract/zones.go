package textextract

import (
	"image"
)

// zoneFractions maps each zone to its sub-rectangle expressed as fractions of
// the raster dimensions {x0, y0, x1, y1}.
var zoneFractions = map[Zone][4]float64{
	ZoneTopLeft:     {0.0, 0.0, 0.45, 0.30},
	ZoneTopRight:    {0.35, 0.0, 1.0, 0.35},
	ZoneBottomRight: {0.55, 0.60, 1.0, 1.0},
	ZoneMiddleBand:  {0.0, 0.30, 1.0, 0.75},
}

// CropZone returns the sub-image for the given zone. The full raster is
// returned unchanged for ZoneFull or when the image cannot be cropped.
func CropZone(img image.Image, zone Zone) image.Image {
	if zone == ZoneFull {
		return img
	}
	frac, ok := zoneFractions[zone]
	if !ok {
		return img
	}
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	rect := image.Rect(
		bounds.Min.X+int(frac[0]*w),
		bounds.Min.Y+int(frac[1]*h),
		bounds.Min.X+int(frac[2]*w),
		bounds.Min.Y+int(frac[3]*h),
	).Intersect(bounds)
	if rect.Empty() {
		return img
	}
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return img
	}
	return sub.SubImage(rect)
}
