package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// candidate is one proposed document boundary, in full-resolution pixel
// coordinates.
type candidate struct {
	quad   [4]image.Point // tl, tr, br, bl
	rect   image.Rectangle
	area   float64
	isQuad bool
}

func (c candidate) aspect() float64 {
	w := float64(c.rect.Dx())
	h := float64(c.rect.Dy())
	if h == 0 {
		return 0
	}
	if w < h {
		w, h = h, w
	}
	return w / h
}

// workWidth is the downsampled width all boundary strategies operate on.
const workWidth = 360

// maxBoundaryAreaRatio rejects candidates covering nearly the whole frame;
// those mean the strategy saw no boundary at all.
const maxBoundaryAreaRatio = 0.95

// detectBoundary runs the independent strategies and returns the largest
// candidate satisfying the area and aspect constraints.
func detectBoundary(img image.Image, cfg Config) (candidate, bool) {
	small := imaging.Grayscale(imaging.Resize(img, workWidth, 0, imaging.Box))
	lum := luminancePlane(small)
	if len(lum) == 0 || len(lum[0]) == 0 {
		return candidate{}, false
	}
	scale := float64(img.Bounds().Dx()) / float64(len(lum[0]))

	masks := [][][]bool{
		edgeMask(lum),
		adaptiveMask(lum),
		bilateralEdgeMask(lum),
		lightRegionMask(lum),
	}

	frameArea := float64(img.Bounds().Dx() * img.Bounds().Dy())
	var best candidate
	found := false
	for _, mask := range masks {
		cand, ok := maskCandidate(mask, scale, img.Bounds())
		if !ok {
			continue
		}
		if cand.area < cfg.MinAreaRatio*frameArea || cand.area > maxBoundaryAreaRatio*frameArea {
			continue
		}
		if a := cand.aspect(); a < cfg.MinAspect || a > cfg.MaxAspect {
			continue
		}
		if !found || cand.area > best.area {
			best = cand
			found = true
		}
	}
	return best, found
}

func luminancePlane(img image.Image) [][]uint8 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	plane := make([][]uint8, h)
	for y := 0; y < h; y++ {
		row := make([]uint8, w)
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			row[x] = uint8((299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000)
		}
		plane[y] = row
	}
	return plane
}

// edgeMask marks pixels whose Sobel gradient magnitude exceeds mean+sigma.
func edgeMask(lum [][]uint8) [][]bool {
	return sobelMask(lum)
}

// bilateralEdgeMask runs an edge-preserving smooth before edge detection,
// which suppresses texture inside the document while keeping its border.
func bilateralEdgeMask(lum [][]uint8) [][]bool {
	return sobelMask(bilateralFilter(lum, 2, 25))
}

func sobelMask(lum [][]uint8) [][]bool {
	h := len(lum)
	w := len(lum[0])
	mag := make([][]float64, h)
	var sum, sumSq float64
	count := 0
	for y := 0; y < h; y++ {
		mag[y] = make([]float64, w)
		if y == 0 || y == h-1 {
			continue
		}
		for x := 1; x < w-1; x++ {
			gx := int(lum[y-1][x+1]) + 2*int(lum[y][x+1]) + int(lum[y+1][x+1]) -
				int(lum[y-1][x-1]) - 2*int(lum[y][x-1]) - int(lum[y+1][x-1])
			gy := int(lum[y+1][x-1]) + 2*int(lum[y+1][x]) + int(lum[y+1][x+1]) -
				int(lum[y-1][x-1]) - 2*int(lum[y-1][x]) - int(lum[y-1][x+1])
			m := math.Hypot(float64(gx), float64(gy))
			mag[y][x] = m
			sum += m
			sumSq += m * m
			count++
		}
	}
	if count == 0 {
		return emptyMask(w, h)
	}
	mean := sum / float64(count)
	std := math.Sqrt(sumSq/float64(count) - mean*mean)
	threshold := mean + std

	mask := emptyMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mask[y][x] = mag[y][x] > threshold
		}
	}
	// The border the strategies look for encloses the document interior;
	// fill the convex row spans so the component covers the full card face.
	return fillRowSpans(mask)
}

// adaptiveMask thresholds against the local mean (integral-image window),
// then applies a morphological close to heal broken borders.
func adaptiveMask(lum [][]uint8) [][]bool {
	h := len(lum)
	w := len(lum[0])
	integral := make([][]int64, h+1)
	integral[0] = make([]int64, w+1)
	for y := 0; y < h; y++ {
		integral[y+1] = make([]int64, w+1)
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(lum[y][x])
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	const window = 15
	const offset = 8
	mask := emptyMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := maxInt(0, x-window), maxInt(0, y-window)
			x1, y1 := minInt(w-1, x+window), minInt(h-1, y+window)
			count := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			total := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := total / count
			mask[y][x] = int64(lum[y][x]) > mean-offset
		}
	}
	return closeMask(mask)
}

// lightRegionMask segments regions brighter than the global mean, targeting
// the typically light document against a darker background.
func lightRegionMask(lum [][]uint8) [][]bool {
	h := len(lum)
	w := len(lum[0])
	var sum int64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += int64(lum[y][x])
		}
	}
	mean := uint8(sum / int64(w*h))

	mask := emptyMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mask[y][x] = lum[y][x] > mean
		}
	}
	return mask
}

func bilateralFilter(lum [][]uint8, radius int, sigmaColor float64) [][]uint8 {
	h := len(lum)
	w := len(lum[0])
	out := make([][]uint8, h)
	twoSigmaSq := 2 * sigmaColor * sigmaColor
	for y := 0; y < h; y++ {
		out[y] = make([]uint8, w)
		for x := 0; x < w; x++ {
			center := float64(lum[y][x])
			var weightSum, valueSum float64
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= h || nx < 0 || nx >= w {
						continue
					}
					diff := float64(lum[ny][nx]) - center
					weight := math.Exp(-diff * diff / twoSigmaSq)
					weightSum += weight
					valueSum += weight * float64(lum[ny][nx])
				}
			}
			out[y][x] = uint8(valueSum / weightSum)
		}
	}
	return out
}

func emptyMask(w, h int) [][]bool {
	mask := make([][]bool, h)
	for y := range mask {
		mask[y] = make([]bool, w)
	}
	return mask
}

// closeMask is a 3x3 morphological close (dilate then erode).
func closeMask(mask [][]bool) [][]bool {
	return erodeMask(dilateMask(mask))
}

func dilateMask(mask [][]bool) [][]bool {
	h := len(mask)
	w := len(mask[0])
	out := emptyMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for dy := -1; dy <= 1 && !out[y][x]; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ny, nx := y+dy, x+dx
					if ny >= 0 && ny < h && nx >= 0 && nx < w && mask[ny][nx] {
						out[y][x] = true
						break
					}
				}
			}
		}
	}
	return out
}

func erodeMask(mask [][]bool) [][]bool {
	h := len(mask)
	w := len(mask[0])
	out := emptyMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := true
			for dy := -1; dy <= 1 && keep; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= h || nx < 0 || nx >= w || !mask[ny][nx] {
						keep = false
						break
					}
				}
			}
			out[y][x] = keep
		}
	}
	return out
}

// fillRowSpans fills each row between its first and last marked pixel.
func fillRowSpans(mask [][]bool) [][]bool {
	for y := range mask {
		first, last := -1, -1
		for x := range mask[y] {
			if mask[y][x] {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		for x := first; x >= 0 && x <= last; x++ {
			mask[y][x] = true
		}
	}
	return mask
}

// maskCandidate extracts the largest connected component and derives both a
// bounding rectangle and a corner quadrilateral from it.
func maskCandidate(mask [][]bool, scale float64, frame image.Rectangle) (candidate, bool) {
	comp, ok := largestComponent(mask)
	if !ok {
		return candidate{}, false
	}

	scalePoint := func(p image.Point) image.Point {
		return image.Point{
			X: frame.Min.X + int(float64(p.X)*scale),
			Y: frame.Min.Y + int(float64(p.Y)*scale),
		}
	}

	rect := image.Rectangle{Min: scalePoint(comp.bbox.Min), Max: scalePoint(comp.bbox.Max)}.Intersect(frame)
	if rect.Empty() {
		return candidate{}, false
	}

	quad := [4]image.Point{
		scalePoint(comp.corners[0]),
		scalePoint(comp.corners[1]),
		scalePoint(comp.corners[2]),
		scalePoint(comp.corners[3]),
	}

	cand := candidate{
		quad: quad,
		rect: rect,
		area: float64(rect.Dx() * rect.Dy()),
	}
	cand.isQuad = quadArea(quad) >= 0.5*cand.area && distinctCorners(quad)
	return cand, true
}

type component struct {
	bbox    image.Rectangle
	corners [4]image.Point // tl, tr, br, bl by extreme sums/diffs
	size    int
}

// largestComponent flood-fills the mask and keeps the biggest region.
func largestComponent(mask [][]bool) (component, bool) {
	h := len(mask)
	if h == 0 {
		return component{}, false
	}
	w := len(mask[0])
	visited := emptyMask(w, h)

	var best component
	found := false
	var stack []image.Point

	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			if !mask[sy][sx] || visited[sy][sx] {
				continue
			}
			comp := component{bbox: image.Rect(sx, sy, sx+1, sy+1)}
			// Corner trackers: min(x+y), max(x-y), max(x+y), min(x-y).
			tl, tr, br, bl := image.Pt(sx, sy), image.Pt(sx, sy), image.Pt(sx, sy), image.Pt(sx, sy)

			stack = append(stack[:0], image.Pt(sx, sy))
			visited[sy][sx] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				comp.size++

				if p.X < comp.bbox.Min.X {
					comp.bbox.Min.X = p.X
				}
				if p.Y < comp.bbox.Min.Y {
					comp.bbox.Min.Y = p.Y
				}
				if p.X+1 > comp.bbox.Max.X {
					comp.bbox.Max.X = p.X + 1
				}
				if p.Y+1 > comp.bbox.Max.Y {
					comp.bbox.Max.Y = p.Y + 1
				}
				if p.X+p.Y < tl.X+tl.Y {
					tl = p
				}
				if p.X-p.Y > tr.X-tr.Y {
					tr = p
				}
				if p.X+p.Y > br.X+br.Y {
					br = p
				}
				if p.X-p.Y < bl.X-bl.Y {
					bl = p
				}

				for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := p.X+d.X, p.Y+d.Y
					if nx < 0 || nx >= w || ny < 0 || ny >= h || visited[ny][nx] || !mask[ny][nx] {
						continue
					}
					visited[ny][nx] = true
					stack = append(stack, image.Pt(nx, ny))
				}
			}

			comp.corners = [4]image.Point{tl, tr, br, bl}
			if !found || comp.size > best.size {
				best = comp
				found = true
			}
		}
	}
	return best, found
}

func quadArea(q [4]image.Point) float64 {
	// Shoelace over tl, tr, br, bl.
	var area float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		area += float64(q[i].X*q[j].Y - q[j].X*q[i].Y)
	}
	return math.Abs(area) / 2
}

func distinctCorners(q [4]image.Point) bool {
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			dx := float64(q[i].X - q[j].X)
			dy := float64(q[i].Y - q[j].Y)
			if math.Hypot(dx, dy) < 8 {
				return false
			}
		}
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
