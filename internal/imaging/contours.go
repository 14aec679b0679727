package imaging

import (
	"image"
	"math"
	"sort"
)

// Contour is an ordered list of boundary points.
type Contour []Point

// moore-neighbor offsets, clockwise starting from "east".
var neighborOffsets = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// FindContours traces the external boundaries of every connected
// foreground (>=128) blob in edges, via Moore-neighbor tracing.
func FindContours(edges *image.Gray) []Contour {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()

	fg := func(x, y int) bool {
		if x < 0 || x >= w || y < 0 || y >= h {
			return false
		}
		return edges.GrayAt(b.Min.X+x, b.Min.Y+y).Y >= 128
	}

	visited := make([][]bool, h)
	for i := range visited {
		visited[i] = make([]bool, w)
	}

	var contours []Contour
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !fg(x, y) || visited[y][x] {
				continue
			}
			// Only start tracing from a pixel that is a genuine boundary
			// pixel of its blob (has a background neighbor or sits at the
			// image edge), otherwise interior fill pixels would each spawn
			// a spurious single-pixel contour.
			if !isBoundary(fg, x, y) {
				visited[y][x] = true
				continue
			}
			contour := traceContour(fg, visited, x, y)
			if len(contour) >= 4 {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

func isBoundary(fg func(int, int) bool, x, y int) bool {
	for _, d := range neighborOffsets {
		if !fg(x+d[0], y+d[1]) {
			return true
		}
	}
	return false
}

// traceContour walks the boundary of the blob containing (x0, y0) using
// Moore-neighbor tracing, marking every pixel visited along the way.
func traceContour(fg func(int, int) bool, visited [][]bool, x0, y0 int) Contour {
	const maxSteps = 200000
	contour := Contour{{X: float64(x0), Y: float64(y0)}}
	visited[y0][x0] = true

	cx, cy := x0, y0
	backtrackDir := 6 // backtrack points "north", so the search starts at "north-east"
	steps := 0
	for steps < maxSteps {
		steps++
		found := false
		for i := 0; i < 8; i++ {
			dir := (backtrackDir + 1 + i) % 8
			nx, ny := cx+neighborOffsets[dir][0], cy+neighborOffsets[dir][1]
			if fg(nx, ny) {
				contour = append(contour, Point{X: float64(nx), Y: float64(ny)})
				if ny >= 0 && ny < len(visited) && nx >= 0 && nx < len(visited[0]) {
					visited[ny][nx] = true
				}
				backtrackDir = (dir + 4) % 8
				cx, cy = nx, ny
				found = true
				break
			}
		}
		if !found {
			break
		}
		if cx == x0 && cy == y0 {
			break
		}
	}
	return contour
}

// ContourArea computes the shoelace-formula area of a (possibly
// non-convex, simple) closed contour.
func ContourArea(c Contour) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(sum) / 2
}

// ArcLength sums the perimeter of a closed contour.
func ArcLength(c Contour) float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		total += Distance(c[i], c[j])
	}
	return total
}

// SortByArea sorts contours by ContourArea, largest first when decreasing
// is set.
func SortByArea(contours []Contour, decreasing bool) {
	sort.Slice(contours, func(i, j int) bool {
		ai, aj := ContourArea(contours[i]), ContourArea(contours[j])
		if decreasing {
			return ai > aj
		}
		return ai < aj
	})
}

// ApproxPolyDP approximates a closed contour with the Douglas-Peucker
// algorithm at the given epsilon.
func ApproxPolyDP(c Contour, epsilon float64) Contour {
	if len(c) < 3 {
		return c
	}

	// Closed-curve DP needs two anchor points to split the ring into two
	// open chains; pick the pair with maximum separation as an approximate
	// "diameter" split.
	i1, i2 := farthestPair(c)
	if i1 > i2 {
		i1, i2 = i2, i1
	}

	chainA := append(Contour{}, c[i1:i2+1]...)
	chainB := append(append(Contour{}, c[i2:]...), c[:i1+1]...)

	simplifiedA := douglasPeucker(chainA, epsilon)
	simplifiedB := douglasPeucker(chainB, epsilon)

	result := append(Contour{}, simplifiedA...)
	if len(simplifiedB) > 2 {
		result = append(result, simplifiedB[1:len(simplifiedB)-1]...)
	}
	return result
}

func farthestPair(c Contour) (int, int) {
	// O(n^2) is fine: contours reaching this stage have already been
	// filtered to a handful of candidates by the area threshold.
	bestI, bestJ := 0, 0
	best := -1.0
	for i := 0; i < len(c); i++ {
		for j := i + 1; j < len(c); j++ {
			d := Distance(c[i], c[j])
			if d > best {
				best, bestI, bestJ = d, i, j
			}
		}
	}
	return bestI, bestJ
}

func douglasPeucker(points Contour, epsilon float64) Contour {
	if len(points) < 3 {
		return points
	}
	dmax := 0.0
	index := 0
	for i := 1; i < len(points)-1; i++ {
		d := perpendicularDistance(points[i], points[0], points[len(points)-1])
		if d > dmax {
			dmax = d
			index = i
		}
	}
	if dmax > epsilon {
		left := douglasPeucker(points[:index+1], epsilon)
		right := douglasPeucker(points[index:], epsilon)
		return append(left[:len(left)-1], right...)
	}
	return Contour{points[0], points[len(points)-1]}
}

func perpendicularDistance(p, a, b Point) float64 {
	if a == b {
		return Distance(p, a)
	}
	num := math.Abs((b.Y-a.Y)*p.X - (b.X-a.X)*p.Y + b.X*a.Y - b.Y*a.X)
	den := Distance(a, b)
	return num / den
}

// PointPolygonTest reports whether pt lies inside (>0), on the boundary
// (=0), or outside (<0) the (closed) polygon.
func PointPolygonTest(polygon Contour, pt Point) float64 {
	n := len(polygon)
	if n < 3 {
		return -1
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if onSegment(pi, pj, pt) {
			return 0
		}
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) {
			xCross := (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if pt.X < xCross {
				inside = !inside
			}
		}
	}
	if inside {
		return 1
	}
	return -1
}

func onSegment(a, b, p Point) bool {
	const eps = 1e-6
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if math.Abs(cross) > eps {
		return false
	}
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return p.X >= minX-eps && p.X <= maxX+eps && p.Y >= minY-eps && p.Y <= maxY+eps
}
