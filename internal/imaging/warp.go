package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"
)

var errDegenerateQuad = errors.New("quad corners are collinear or coincident")

// warpQuad maps the quadrilateral (tl, tr, br, bl) onto an upright rectangle
// sized from the measured edge lengths, sampling bilinearly through the
// inverse homography.
func warpQuad(img image.Image, quad [4]image.Point) (image.Image, error) {
	tl, tr, br, bl := quad[0], quad[1], quad[2], quad[3]

	width := int(math.Max(pointDist(tl, tr), pointDist(bl, br)))
	height := int(math.Max(pointDist(tl, bl), pointDist(tr, br)))
	if width < 8 || height < 8 {
		return nil, errDegenerateQuad
	}

	// Inverse mapping: destination rectangle corners to source quad corners.
	h, err := homography(
		[4][2]float64{{0, 0}, {float64(width - 1), 0}, {float64(width - 1), float64(height - 1)}, {0, float64(height - 1)}},
		[4][2]float64{
			{float64(tl.X), float64(tl.Y)},
			{float64(tr.X), float64(tr.Y)},
			{float64(br.X), float64(br.Y)},
			{float64(bl.X), float64(bl.Y)},
		},
	)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := applyHomography(h, float64(x), float64(y))
			out.SetRGBA(x, y, sampleBilinear(img, sx, sy))
		}
	}
	return out, nil
}

func pointDist(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// homography solves the 8-unknown projective transform taking src corners to
// dst corners, via Gaussian elimination with partial pivoting.
func homography(src, dst [4][2]float64) ([8]float64, error) {
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i][0], src[i][1]
		dx, dy := dst[i][0], dst[i][1]
		m[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, dx}
		m[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, dy}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-10 {
			return [8]float64{}, errDegenerateQuad
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			factor := m[row][col] / m[col][col]
			for k := col; k < 9; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	var h [8]float64
	for i := 0; i < 8; i++ {
		h[i] = m[i][8] / m[i][i]
	}
	return h, nil
}

func applyHomography(h [8]float64, x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + 1
	if w == 0 {
		return 0, 0
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

func sampleBilinear(img image.Image, x, y float64) color.RGBA {
	bounds := img.Bounds()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	at := func(px, py int) (float64, float64, float64, float64) {
		if px < bounds.Min.X {
			px = bounds.Min.X
		}
		if px >= bounds.Max.X {
			px = bounds.Max.X - 1
		}
		if py < bounds.Min.Y {
			py = bounds.Min.Y
		}
		if py >= bounds.Max.Y {
			py = bounds.Max.Y - 1
		}
		r, g, b, a := img.At(px, py).RGBA()
		return float64(r >> 8), float64(g >> 8), float64(b >> 8), float64(a >> 8)
	}

	r00, g00, b00, a00 := at(x0, y0)
	r10, g10, b10, a10 := at(x0+1, y0)
	r01, g01, b01, a01 := at(x0, y0+1)
	r11, g11, b11, a11 := at(x0+1, y0+1)

	lerp2 := func(v00, v10, v01, v11 float64) uint8 {
		top := v00 + (v10-v00)*fx
		bottom := v01 + (v11-v01)*fx
		return uint8(top + (bottom-top)*fy)
	}

	return color.RGBA{
		R: lerp2(r00, r10, r01, r11),
		G: lerp2(g00, g10, g01, g11),
		B: lerp2(b00, b10, b01, b11),
		A: lerp2(a00, a10, a01, a11),
	}
}
