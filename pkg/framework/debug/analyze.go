package debug

import "math"

// AnalysisResult summarizes an audio buffer for diagnostics and tests.
type AnalysisResult struct {
	Peak     float32
	RMS      float32
	MaxStep  float32 // largest delta between consecutive samples
	HasNaN   bool
	NaNCount int
	Silent   bool
}

const silenceThreshold = 0.0001

// Analyze scans a buffer. MaxStep is the click detector: envelope and
// parameter smoothing bound the sample-to-sample delta, so a large step
// indicates a discontinuity.
func Analyze(buffer []float32) AnalysisResult {
	var result AnalysisResult
	if len(buffer) == 0 {
		result.Silent = true
		return result
	}

	var sumSquares float64
	var last float32
	for i, sample := range buffer {
		if math.IsNaN(float64(sample)) {
			result.HasNaN = true
			result.NaNCount++
			continue
		}

		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > result.Peak {
			result.Peak = abs
		}

		if i > 0 {
			step := sample - last
			if step < 0 {
				step = -step
			}
			if step > result.MaxStep {
				result.MaxStep = step
			}
		}
		last = sample

		sumSquares += float64(sample) * float64(sample)
	}

	result.RMS = float32(math.Sqrt(sumSquares / float64(len(buffer))))
	result.Silent = result.RMS < silenceThreshold
	return result
}
