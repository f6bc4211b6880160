package filter

import "math"

// Shelf is a mono biquad configured as a low or high shelf. The enhancement
// chain uses a pair of them as a spectral tilt.
type Shelf struct {
	b0, b1, b2 float32
	a1, a2     float32

	x1, x2 float32
	y1, y2 float32
}

// NewShelf returns a flat (identity) shelf.
func NewShelf() *Shelf {
	return &Shelf{b0: 1}
}

// Reset clears the delay line.
func (s *Shelf) Reset() {
	s.x1, s.x2, s.y1, s.y2 = 0, 0, 0, 0
}

// SetLowShelf configures a low shelf at the given corner with gain in dB.
func (s *Shelf) SetLowShelf(sampleRate, frequency, gainDB float64) {
	s.configure(sampleRate, frequency, gainDB, true)
}

// SetHighShelf configures a high shelf at the given corner with gain in dB.
func (s *Shelf) SetHighShelf(sampleRate, frequency, gainDB float64) {
	s.configure(sampleRate, frequency, gainDB, false)
}

func (s *Shelf) configure(sampleRate, frequency, gainDB float64, low bool) {
	a := math.Pow(10, gainDB/40)
	omega := 2 * math.Pi * frequency / sampleRate
	sn := math.Sin(omega)
	cs := math.Cos(omega)
	beta := sn * math.Sqrt2 / 2 * math.Sqrt(a+1/a)

	var b0, b1, b2, a0, a1, a2 float64
	if low {
		b0 = a * ((a + 1) - (a-1)*cs + 2*beta)
		b1 = 2 * a * ((a - 1) - (a+1)*cs)
		b2 = a * ((a + 1) - (a-1)*cs - 2*beta)
		a0 = (a + 1) + (a-1)*cs + 2*beta
		a1 = -2 * ((a - 1) + (a+1)*cs)
		a2 = (a + 1) + (a-1)*cs - 2*beta
	} else {
		b0 = a * ((a + 1) + (a-1)*cs + 2*beta)
		b1 = -2 * a * ((a - 1) + (a+1)*cs)
		b2 = a * ((a + 1) + (a-1)*cs - 2*beta)
		a0 = (a + 1) - (a-1)*cs + 2*beta
		a1 = 2 * ((a - 1) - (a+1)*cs)
		a2 = (a + 1) - (a-1)*cs - 2*beta
	}

	s.b0 = float32(b0 / a0)
	s.b1 = float32(b1 / a0)
	s.b2 = float32(b2 / a0)
	s.a1 = float32(a1 / a0)
	s.a2 = float32(a2 / a0)
}

// Process filters one sample through the shelf.
func (s *Shelf) Process(input float32) float32 {
	out := s.b0*input + s.b1*s.x1 + s.b2*s.x2 - s.a1*s.y1 - s.a2*s.y2
	s.x2 = s.x1
	s.x1 = input
	s.y2 = s.y1
	s.y1 = out
	return out
}

// ProcessBuffer filters a buffer in place.
func (s *Shelf) ProcessBuffer(buffer []float32) {
	for i := range buffer {
		buffer[i] = s.Process(buffer[i])
	}
}
