package analysis

import "time"

// Point is one sample of a display series.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// appendPoint returns a new series with p appended. The caller's backing
// array is never written to, so older snapshots stay valid.
func appendPoint(series []Point, p Point) []Point {
	out := make([]Point, len(series), len(series)+1)
	copy(out, series)
	return append(out, p)
}

// TrimSeries keeps the most recent limit points. It returns a subslice, not
// a copy.
func TrimSeries(series []Point, limit int) []Point {
	if limit <= 0 || len(series) <= limit {
		return series
	}
	return series[len(series)-limit:]
}
