package timeaxis

// Point is one (x, y) coordinate. Y keeps the raw token from the log.
type Point struct {
	X float64
	Y string
}

// Series is the coordinate sequence of one metric.
type Series struct {
	Points []Point
	// Indexed series use the zero-based sample position as X.
	Indexed bool
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Points)
}

// Pair zips values with axis positionally. The result is as long as the shorter
// of the two; trailing elements of the longer one are dropped. A nil axis pairs
// every value with its index.
func Pair(values []string, axis Axis) Series {
	if axis == nil {
		points := make([]Point, len(values))
		for i, v := range values {
			points[i] = Point{X: float64(i), Y: v}
		}

		return Series{Points: points, Indexed: true}
	}

	n := min(len(values), len(axis))

	points := make([]Point, n)
	for i := range n {
		points[i] = Point{X: axis[i], Y: values[i]}
	}

	return Series{Points: points}
}
