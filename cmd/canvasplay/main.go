// Command canvasplay auditions the synthesizer through the system audio
// device: it paints a scripted glissando across the canvas while a step
// pattern drives the rompler, printing performance counters as it plays.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/paint"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/rompler"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/synth"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/tracker"
)

const blockSize = 512

// streamer adapts the synth engine to oto's pull model. Read renders whole
// blocks and interleaves them as little-endian stereo float32.
type streamer struct {
	eng   *synth.Engine
	left  []float32
	right []float32

	// Rendered bytes not yet handed to oto.
	pending []byte
}

func newStreamer(eng *synth.Engine) *streamer {
	return &streamer{
		eng:     eng,
		left:    make([]float32, blockSize),
		right:   make([]float32, blockSize),
		pending: make([]byte, 0, blockSize*8),
	}
}

func (s *streamer) Read(p []byte) (int, error) {
	for len(s.pending) < len(p) {
		s.eng.Process(s.left, s.right)
		for i := 0; i < blockSize; i++ {
			s.pending = binary.LittleEndian.AppendUint32(s.pending, math.Float32bits(s.left[i]))
			s.pending = binary.LittleEndian.AppendUint32(s.pending, math.Float32bits(s.right[i]))
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[:copy(s.pending, s.pending[n:])]
	return n, nil
}

func buildBank(rate float64) (*rompler.Bank, error) {
	bank := rompler.NewBank(rate)
	specs := []struct {
		name    string
		freq    float64
		seconds float64
	}{
		{"sub", 55, 0.8},
		{"pluck", 220, 0.4},
		{"chime", 880, 1.2},
	}
	for _, sp := range specs {
		if err := bank.Add(rompler.SineSample(sp.name, sp.freq, sp.seconds, rate, 69)); err != nil {
			return nil, fmt.Errorf("bank sample %s: %w", sp.name, err)
		}
	}
	return bank, nil
}

func programPattern(t *tracker.Engine, bpm float64) {
	t.SetTempo(bpm)
	t.SetSwing(0.15)
	kick := tracker.Step{Enabled: true, Note: 33, Velocity: 120, Gate: 0.4}
	hat := tracker.Step{Enabled: true, Note: 81, Velocity: 70, Gate: 0.15}
	for i := 0; i < tracker.StepCount; i++ {
		switch {
		case i%4 == 0:
			t.SetStep(i, kick)
		case i%2 == 1:
			t.SetStep(i, hat)
		}
	}
}

// glissando sweeps one continuous brush stroke left to right, arcing through
// the pitch range, until stop closes.
func glissando(eng *synth.Engine, stop <-chan struct{}) {
	const period = 20 * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	t := 0.0
	eng.Paint.BeginGesture(paint.Position{X: 0, Y: 0.5}, 0.8, paint.Color{Hue: 0.6, Saturation: 1, Brightness: 1})
	for {
		select {
		case <-stop:
			eng.Paint.EndGesture()
			return
		case <-ticker.C:
			t += period.Seconds()
			x := math.Mod(t/6.0, 1.0)
			y := 0.5 + 0.4*math.Sin(2*math.Pi*t/3.0)
			pressure := 0.5 + 0.4*math.Sin(2*math.Pi*t/5.0)
			eng.Paint.UpdateGesture(paint.Position{X: x, Y: y}, pressure, paint.Color{Hue: x, Saturation: 1, Brightness: 1})
		}
	}
}

func run() error {
	var (
		rate     = flag.Int("rate", 48000, "output sample rate in Hz")
		bpm      = flag.Float64("bpm", 124, "tracker tempo")
		duration = flag.Duration("duration", 20*time.Second, "how long to play")
		hybrid   = flag.Bool("hybrid", true, "mix paint and tracker (false: paint only)")
	)
	flag.Parse()

	bank, err := buildBank(float64(*rate))
	if err != nil {
		return err
	}

	eng := synth.NewEngine(synth.Config{Bank: bank})
	eng.Prepare(float64(*rate), blockSize)
	eng.Paint.SetCanvasRegion(paint.CanvasRegionBounds{Left: 0, Right: 1, Bottom: 0, Top: 1})
	eng.Paint.SetFrequencyRange(80, 5000, true)
	eng.Paint.SetMasterGain(0.5)
	programPattern(eng.Tracker, *bpm)

	if *hybrid {
		eng.SetMode(synth.ModeHybrid)
		eng.SetTrackerRunning(true)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *rate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(newStreamer(eng))
	player.Play()
	defer player.Close()

	stop := make(chan struct{})
	go glissando(eng, stop)

	status := time.NewTicker(time.Second)
	defer status.Stop()
	end := time.After(*duration)
	for {
		select {
		case <-status.C:
			m := eng.Metrics()
			fmt.Printf("cpu %5.1f%%  oscillators %4d  voices %2d  strokes %2d\n",
				m.CPULoad*100, m.ActiveOscillators, m.ActiveVoices, m.ActiveStrokes)
		case <-end:
			close(stop)
			return nil
		}
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "canvasplay:", err)
		os.Exit(1)
	}
}
