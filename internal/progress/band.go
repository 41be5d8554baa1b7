package progress

import "math"

// Band maps a fraction in [0,1] onto a stage progress range.
type Band struct {
	Low  int
	High int
}

// Map converts fraction into a stage percentage inside the band. Values
// outside [0,1] and NaN are clamped.
func (b Band) Map(fraction float64) int {
	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	low, high := clamp(b.Low), clamp(b.High)
	if high < low {
		low, high = high, low
	}
	return low + int(math.Floor(fraction*float64(high-low)))
}
