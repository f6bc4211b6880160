// Package interpolation reads sample buffers at fractional positions, used
// by pitched sample playback.
package interpolation

// Linear interpolates between two samples. frac is the position between
// y0 and y1, 0-1.
func Linear(y0, y1, frac float32) float32 {
	return y0 + (y1-y0)*frac
}

// Cubic performs 4-point Catmull-Rom interpolation. frac is the position
// between y1 and y2, 0-1.
func Cubic(y0, y1, y2, y3, frac float32) float32 {
	c1 := 0.5 * (y2 - y0)
	c2 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c3 := 0.5 * (y3 - y0 + 3*(y1-y2))
	return ((c3*frac+c2)*frac+c1)*frac + y1
}

// At reads data at a fractional position. Interior positions use cubic
// interpolation; the first and last spans fall back to linear where the
// 4-point neighborhood runs off the buffer. pos must be in [0, len-1).
func At(data []float32, pos float64) float32 {
	idx := int(pos)
	frac := float32(pos - float64(idx))
	if idx < 1 || idx >= len(data)-2 {
		return Linear(data[idx], data[idx+1], frac)
	}
	return Cubic(data[idx-1], data[idx], data[idx+1], data[idx+2], frac)
}
